// Command symptomctl runs the symptom checker from the command line.
//
// Usage:
//
//	symptomctl predict "fever and chills"
//	symptomctl inspect --model symptom_transformer.safetensors
//	symptomctl rules
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Skufu/symptomchat/internal/compose"
	"github.com/Skufu/symptomchat/internal/config"
	"github.com/Skufu/symptomchat/internal/correction"
	"github.com/Skufu/symptomchat/internal/model"
	"github.com/Skufu/symptomchat/internal/predictor"
	"github.com/Skufu/symptomchat/internal/spelling"
)

type options struct {
	modelPath    string
	seed         uint64
	noSpellcheck bool
	verbose      bool
	listWords    bool
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "symptomctl",
		Short:        "Symptom checker command line",
		SilenceUsage: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&opts.modelPath, "model", "", "model artifact (defaults to MODEL_PATH)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log pipeline details to stderr")

	predict := &cobra.Command{
		Use:   "predict [symptoms...]",
		Short: "Diagnose a symptom description",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPredict(cmd.OutOrStdout(), opts, strings.Join(args, " "))
		},
	}
	predict.Flags().Uint64Var(&opts.seed, "seed", 0, "opener seed (0 picks one from the clock)")
	predict.Flags().BoolVar(&opts.noSpellcheck, "no-spellcheck", false, "skip spelling correction")

	inspect := &cobra.Command{
		Use:   "inspect",
		Short: "Show model configuration and vocabulary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInspect(cmd.OutOrStdout(), opts)
		},
	}
	inspect.Flags().BoolVar(&opts.listWords, "words", false, "list vocabulary words")

	rules := &cobra.Command{
		Use:   "rules",
		Short: "List correction rules and advice labels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRules(cmd.OutOrStdout())
		},
	}

	root.AddCommand(predict, inspect, rules)
	return root
}

func (o *options) logger() *zap.Logger {
	if !o.verbose {
		return zap.NewNop()
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

func (o *options) load() (*model.Artifact, error) {
	path := o.modelPath
	if path == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		path = cfg.ModelPath
	}
	return model.Load(path)
}

type predictOutput struct {
	predictor.Result
	Label    string `json:"label,omitempty"`
	RawLabel string `json:"raw_label,omitempty"`
	Rule     string `json:"rule,omitempty"`
}

func runPredict(out io.Writer, opts *options, text string) error {
	art, err := opts.load()
	if err != nil {
		return err
	}

	var norm predictor.Normalizer = spelling.Identity{}
	if !opts.noSpellcheck {
		norm = spelling.NewCorrector(art.Vocab.Words())
	}

	pred, err := predictor.New(predictor.Deps{
		Model:      art.Model,
		Vocab:      art.Vocab,
		Normalizer: norm,
		Composer:   compose.NewSeeded(opts.seed),
		Logger:     opts.logger(),
	})
	if err != nil {
		return err
	}

	res := pred.Predict(text)
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(predictOutput{Result: res, Label: res.Label, RawLabel: res.RawLabel, Rule: res.Rule}); err != nil {
		return err
	}
	if !res.OK() {
		return fmt.Errorf("prediction failed: %s", res.Error)
	}
	return nil
}

func runInspect(out io.Writer, opts *options) error {
	art, err := opts.load()
	if err != nil {
		return err
	}

	cfg := art.Config
	fmt.Fprintf(out, "path:       %s\n", art.Path)
	fmt.Fprintf(out, "vocab_size: %d\n", cfg.VocabSize)
	fmt.Fprintf(out, "embed_dim:  %d\n", cfg.EmbedDim)
	fmt.Fprintf(out, "heads:      %d\n", cfg.Heads)
	fmt.Fprintf(out, "ff_dim:     %d\n", cfg.FFDim)
	fmt.Fprintf(out, "layers:     %d\n", cfg.Layers)
	fmt.Fprintf(out, "max_len:    %d\n", cfg.MaxLen)

	words := art.Vocab.Words()
	fmt.Fprintf(out, "words:      %d\n", len(words))
	if opts.listWords {
		for _, w := range words {
			fmt.Fprintln(out, "  "+w)
		}
	}
	return nil
}

func runRules(out io.Writer) error {
	fmt.Fprintln(out, "rules (first match wins):")
	for i, id := range correction.NewEngine(nil).Rules() {
		fmt.Fprintf(out, "  %2d. %s\n", i+1, id)
	}

	fmt.Fprintln(out, "advice:")
	for _, label := range compose.Labels() {
		fmt.Fprintf(out, "  - %s\n", label)
	}
	return nil
}
