// Package decoder drives a sequence model one token at a time.
package decoder

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"github.com/Skufu/symptomchat/internal/vocab"
)

const (
	// MaxLen is the fixed input length the model was trained with.
	MaxLen = 100
	// MaxSteps bounds the generation loop.
	MaxSteps = 100
)

// StopReason says why decoding ended.
type StopReason string

const (
	StopEOS      StopReason = "eos"
	StopMaxSteps StopReason = "max_steps"
)

var ErrEmptyScores = errors.New("model returned no scores")

// Stepper scores the next output token for one request.
type Stepper interface {
	// Next returns scores over the vocabulary for the position after tgt.
	Next(tgt []int) ([]float64, error)
}

// Model starts a decoding session for a padded input sequence.
type Model interface {
	Begin(src []int) (Stepper, error)
}

// Output is the result of one decode.
type Output struct {
	Label  string
	IDs    []int // generated ids, start token stripped
	Steps  int
	Reason StopReason
}

// Decoder performs greedy decoding. It holds no per-request state.
type Decoder struct {
	model    Model
	vocab    *vocab.Vocabulary
	maxLen   int
	maxSteps int
	logger   *zap.Logger
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithLogger sets the logger used for per-decode debug output.
func WithLogger(l *zap.Logger) Option {
	return func(d *Decoder) { d.logger = l }
}

// WithMaxSteps overrides MaxSteps.
func WithMaxSteps(n int) Option {
	return func(d *Decoder) { d.maxSteps = n }
}

func New(m Model, v *vocab.Vocabulary, opts ...Option) *Decoder {
	d := &Decoder{
		model:    m,
		vocab:    v,
		maxLen:   MaxLen,
		maxSteps: MaxSteps,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// BuildInput truncates ids to maxLen-2, wraps them in start/end markers
// and right-pads with the padding id to exactly maxLen.
func BuildInput(ids []int, v *vocab.Vocabulary, maxLen int) []int {
	if len(ids) > maxLen-2 {
		ids = ids[:maxLen-2]
	}
	src := make([]int, 0, maxLen)
	src = append(src, v.StartID())
	src = append(src, ids...)
	src = append(src, v.EndID())
	for len(src) < maxLen {
		src = append(src, v.PadID())
	}
	return src
}

// Decode tokenizes text and generates the output label.
func (d *Decoder) Decode(text string) (Output, error) {
	src := BuildInput(d.vocab.Encode(text), d.vocab, d.maxLen)

	step, err := d.model.Begin(src)
	if err != nil {
		return Output{}, fmt.Errorf("encode input: %w", err)
	}

	eos := d.vocab.EndID()
	tgt := []int{d.vocab.StartID()}
	out := Output{Reason: StopMaxSteps}

	for i := 0; i < d.maxSteps; i++ {
		scores, err := step.Next(tgt)
		if err != nil {
			return Output{}, fmt.Errorf("decode step %d: %w", i, err)
		}
		if len(scores) == 0 {
			return Output{}, fmt.Errorf("decode step %d: %w", i, ErrEmptyScores)
		}
		out.Steps = i + 1

		next := Argmax(scores)
		if next == eos {
			out.Reason = StopEOS
			break
		}
		tgt = append(tgt, next)
	}

	out.IDs = tgt[1:]
	out.Label = d.vocab.Decode(out.IDs)

	d.logger.Debug("decoded",
		zap.Int("steps", out.Steps),
		zap.String("reason", string(out.Reason)),
		zap.String("label", out.Label))
	return out, nil
}

// Argmax returns the index of the largest score; the first one wins ties.
func Argmax(scores []float64) int {
	return floats.MaxIdx(scores)
}
