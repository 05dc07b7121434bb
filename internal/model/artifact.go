// Package model loads the trained symptom transformer and runs inference.
package model

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/Skufu/symptomchat/internal/vocab"
)

// Artifact is everything loaded from one model file.
type Artifact struct {
	Path   string
	Config Config
	Vocab  *vocab.Vocabulary
	Model  *Transformer
}

// Load reads a safetensors model artifact. A missing file yields an error
// wrapping os.ErrNotExist.
func Load(path string) (*Artifact, error) {
	st, err := openSafetensors(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("model file not found at: %s: %w", path, os.ErrNotExist)
		}
		return nil, fmt.Errorf("open model %s: %w", path, err)
	}
	defer st.Close()

	cfg, err := parseConfig(st.metadata)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", path, err)
	}
	w2i, i2w, err := parseVocab(st.metadata)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", path, err)
	}

	for word, id := range w2i {
		if id < 0 || id >= cfg.VocabSize {
			return nil, fmt.Errorf("model %s: word %q has id %d outside vocab_size %d", path, word, id, cfg.VocabSize)
		}
	}

	w := &weights{st: st}
	t := buildTransformer(cfg, w)
	if w.err != nil {
		return nil, fmt.Errorf("model %s: %w", path, w.err)
	}

	return &Artifact{
		Path:   path,
		Config: cfg,
		Vocab:  vocab.New(w2i, i2w),
		Model:  t,
	}, nil
}

// weights reads named tensors and keeps the first error, so the layer
// wiring below can stay linear.
type weights struct {
	st  *safetensors
	err error
}

func (w *weights) load(name string, shape ...int) []float64 {
	if w.err != nil {
		return nil
	}
	got, data, err := w.st.read(name)
	if err != nil {
		w.err = err
		return nil
	}
	if !slices.Equal(got, shape) {
		w.err = fmt.Errorf("tensor %s: shape %v, want %v", name, got, shape)
		return nil
	}
	return data
}

func (w *weights) dense(name string, rows, cols int) *mat.Dense {
	data := w.load(name, rows, cols)
	if data == nil {
		return nil
	}
	return mat.NewDense(rows, cols, data)
}

func (w *weights) vector(name string, n int) []float64 {
	return w.load(name, n)
}

func (w *weights) linear(prefix string, out, in int) linear {
	return linear{
		w: w.dense(prefix+".weight", out, in),
		b: w.vector(prefix+".bias", out),
	}
}

func (w *weights) norm(prefix string, dim int) layerNorm {
	return layerNorm{
		gamma: w.vector(prefix+".weight", dim),
		beta:  w.vector(prefix+".bias", dim),
	}
}

func (w *weights) attention(prefix string, dim, heads int) attention {
	inW := w.dense(prefix+".in_proj_weight", 3*dim, dim)
	inB := w.vector(prefix+".in_proj_bias", 3*dim)
	out := w.linear(prefix+".out_proj", dim, dim)
	if w.err != nil {
		return attention{}
	}
	return newAttention(inW, inB, out, dim, heads)
}

func (w *weights) feedForward(prefix string, dim, ff int) feedForward {
	return feedForward{
		up:   w.linear(prefix+".linear1", ff, dim),
		down: w.linear(prefix+".linear2", dim, ff),
	}
}

func buildTransformer(cfg Config, w *weights) *Transformer {
	d, h, ff := cfg.EmbedDim, cfg.Heads, cfg.FFDim
	t := &Transformer{
		cfg:       cfg,
		embedding: w.dense("embedding.weight", cfg.VocabSize, d),
		pe:        positionalEncoding(cfg.MaxLen, d),
		encoder:   make([]encoderLayer, cfg.Layers),
		decoder:   make([]decoderLayer, cfg.Layers),
	}

	for i := range t.encoder {
		p := fmt.Sprintf("transformer.encoder.layers.%d", i)
		t.encoder[i] = encoderLayer{
			self:  w.attention(p+".self_attn", d, h),
			ff:    w.feedForward(p, d, ff),
			norm1: w.norm(p+".norm1", d),
			norm2: w.norm(p+".norm2", d),
		}
	}
	t.encNorm = w.norm("transformer.encoder.norm", d)

	for i := range t.decoder {
		p := fmt.Sprintf("transformer.decoder.layers.%d", i)
		t.decoder[i] = decoderLayer{
			self:  w.attention(p+".self_attn", d, h),
			cross: w.attention(p+".multihead_attn", d, h),
			ff:    w.feedForward(p, d, ff),
			norm1: w.norm(p+".norm1", d),
			norm2: w.norm(p+".norm2", d),
			norm3: w.norm(p+".norm3", d),
		}
	}
	t.decNorm = w.norm("transformer.decoder.norm", d)
	t.head = w.linear("fc_out", cfg.VocabSize, d)
	return t
}
