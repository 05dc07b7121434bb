// Package predictor wires the normalizer, decoder, correction engine and
// composer into the single predict operation served to callers.
package predictor

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Skufu/symptomchat/internal/compose"
	"github.com/Skufu/symptomchat/internal/correction"
	"github.com/Skufu/symptomchat/internal/decoder"
	"github.com/Skufu/symptomchat/internal/vocab"
)

// ErrEmptyInput is returned for blank text; such input never reaches the model.
var ErrEmptyInput = errors.New("empty text")

// Normalizer corrects spelling before tokenization.
type Normalizer interface {
	Correct(text string) string
}

// Result is the outcome of one prediction. On failure only Error is set.
type Result struct {
	Original  string `json:"original,omitempty"`
	Corrected string `json:"corrected,omitempty"`
	Diagnosis string `json:"diagnosis,omitempty"`
	Error     string `json:"error,omitempty"`

	Label    string `json:"-"`
	RawLabel string `json:"-"`
	Rule     string `json:"-"`
}

// OK reports whether the result carries a diagnosis.
func (r Result) OK() bool { return r.Error == "" }

// Deps are the collaborators shared by every request.
type Deps struct {
	Model      decoder.Model
	Vocab      *vocab.Vocabulary
	Normalizer Normalizer
	Engine     *correction.Engine
	Composer   *compose.Composer
	Logger     *zap.Logger
}

// Predictor is built once at startup and shared by all requests. Nothing it
// holds is mutated after New returns.
type Predictor struct {
	decoder  *decoder.Decoder
	norm     Normalizer
	engine   *correction.Engine
	composer *compose.Composer
	logger   *zap.Logger
}

func New(d Deps) (*Predictor, error) {
	if d.Model == nil {
		return nil, fmt.Errorf("predictor: model is required")
	}
	if d.Vocab == nil {
		return nil, fmt.Errorf("predictor: vocabulary is required")
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Normalizer == nil {
		return nil, fmt.Errorf("predictor: normalizer is required")
	}
	if d.Engine == nil {
		d.Engine = correction.NewEngine(d.Logger)
	}
	if d.Composer == nil {
		d.Composer = compose.NewSeeded(0)
	}

	return &Predictor{
		decoder:  decoder.New(d.Model, d.Vocab, decoder.WithLogger(d.Logger)),
		norm:     d.Normalizer,
		engine:   d.Engine,
		composer: d.Composer,
		logger:   d.Logger,
	}, nil
}

// Predict runs the full pipeline for one request. Failures are reported in
// the result, never returned or panicked.
func (p *Predictor) Predict(text string) Result {
	res, err := p.predict(text)
	if err != nil {
		p.logger.Warn("prediction failed", zap.Error(err))
		return Result{Error: err.Error()}
	}
	return res
}

func (p *Predictor) predict(text string) (res Result, err error) {
	if strings.TrimSpace(text) == "" {
		return Result{}, ErrEmptyInput
	}

	defer func() {
		if r := recover(); r != nil {
			res, err = Result{}, fmt.Errorf("predict: %v", r)
		}
	}()

	corrected := p.norm.Correct(text)

	out, err := p.decoder.Decode(corrected)
	if err != nil {
		return Result{}, err
	}

	decision := p.engine.Correct(corrected, out.Label)

	p.logger.Info("prediction",
		zap.String("raw", out.Label),
		zap.String("label", decision.Label),
		zap.String("rule", decision.Rule),
		zap.Int("steps", out.Steps))

	return Result{
		Original:  text,
		Corrected: corrected,
		Diagnosis: p.composer.Compose(decision.Label),
		Label:     decision.Label,
		RawLabel:  out.Label,
		Rule:      decision.Rule,
	}, nil
}

// Rules lists the correction rules in evaluation order.
func (p *Predictor) Rules() []string {
	return p.engine.Rules()
}
