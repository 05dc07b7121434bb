package model

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/Skufu/symptomchat/internal/decoder"
)

type encoderLayer struct {
	self         attention
	ff           feedForward
	norm1, norm2 layerNorm
}

func (l *encoderLayer) forward(x *mat.Dense) *mat.Dense {
	x.Add(x, l.self.forward(x, x, false))
	l.norm1.forward(x)
	x.Add(x, l.ff.forward(x))
	return l.norm2.forward(x)
}

type decoderLayer struct {
	self, cross         attention
	ff                  feedForward
	norm1, norm2, norm3 layerNorm
}

func (l *decoderLayer) forward(x, memory *mat.Dense) *mat.Dense {
	x.Add(x, l.self.forward(x, x, true))
	l.norm1.forward(x)
	x.Add(x, l.cross.forward(x, memory, false))
	l.norm2.forward(x)
	x.Add(x, l.ff.forward(x))
	return l.norm3.forward(x)
}

// Transformer is a post-norm encoder-decoder transformer with a vocabulary
// projection head. It is immutable once loaded and safe for concurrent use.
type Transformer struct {
	cfg       Config
	embedding *mat.Dense // [vocab, dim]
	pe        *mat.Dense // [maxLen, dim]
	encoder   []encoderLayer
	encNorm   layerNorm
	decoder   []decoderLayer
	decNorm   layerNorm
	head      linear
}

func (t *Transformer) Config() Config { return t.cfg }

// embed looks up ids and adds positional encodings.
func (t *Transformer) embed(ids []int) (*mat.Dense, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("empty sequence")
	}
	if len(ids) > t.cfg.MaxLen {
		return nil, fmt.Errorf("sequence length %d exceeds max length %d", len(ids), t.cfg.MaxLen)
	}
	x := mat.NewDense(len(ids), t.cfg.EmbedDim, nil)
	for i, id := range ids {
		if id < 0 || id >= t.cfg.VocabSize {
			return nil, fmt.Errorf("token id %d out of range [0, %d)", id, t.cfg.VocabSize)
		}
		row := x.RawRowView(i)
		copy(row, t.embedding.RawRowView(id))
		pos := t.pe.RawRowView(i)
		for j := range row {
			row[j] += pos[j]
		}
	}
	return x, nil
}

func (t *Transformer) encode(src []int) (*mat.Dense, error) {
	x, err := t.embed(src)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	for i := range t.encoder {
		x = t.encoder[i].forward(x)
	}
	return t.encNorm.forward(x), nil
}

// logits returns the projected scores for every target position, [len(tgt), vocab].
func (t *Transformer) logits(memory *mat.Dense, tgt []int) (*mat.Dense, error) {
	x, err := t.embed(tgt)
	if err != nil {
		return nil, fmt.Errorf("target: %w", err)
	}
	for i := range t.decoder {
		x = t.decoder[i].forward(x, memory)
	}
	t.decNorm.forward(x)
	return t.head.forward(x), nil
}

// Begin encodes src once and returns a session that scores target prefixes
// against the cached encoder output.
func (t *Transformer) Begin(src []int) (decoder.Stepper, error) {
	memory, err := t.encode(src)
	if err != nil {
		return nil, err
	}
	return &Session{model: t, memory: memory}, nil
}

// Session is the per-request decoding state. Not safe for concurrent use.
type Session struct {
	model  *Transformer
	memory *mat.Dense
}

// Next returns the scores for the token that follows tgt.
func (s *Session) Next(tgt []int) ([]float64, error) {
	out, err := s.model.logits(s.memory, tgt)
	if err != nil {
		return nil, err
	}
	last := out.RawRowView(len(tgt) - 1)
	scores := make([]float64, len(last))
	copy(scores, last)
	return scores, nil
}
