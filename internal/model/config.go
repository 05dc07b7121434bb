package model

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// MaxLen is the maximum sequence length of both encoder and decoder.
const MaxLen = 100

// Config is the architecture stored alongside the weights.
type Config struct {
	VocabSize int `json:"vocab_size"`
	EmbedDim  int `json:"EMBED_DIM"`
	Heads     int `json:"N_HEADS"`
	FFDim     int `json:"FF_DIM"`
	Layers    int `json:"NUM_LAYERS"`
	MaxLen    int `json:"-"`
}

func (c Config) Validate() error {
	if c.VocabSize <= 0 {
		return fmt.Errorf("vocab_size must be positive, got %d", c.VocabSize)
	}
	if c.EmbedDim <= 0 {
		return fmt.Errorf("EMBED_DIM must be positive, got %d", c.EmbedDim)
	}
	if c.Heads <= 0 {
		return fmt.Errorf("N_HEADS must be positive, got %d", c.Heads)
	}
	if c.EmbedDim%c.Heads != 0 {
		return fmt.Errorf("EMBED_DIM (%d) must be divisible by N_HEADS (%d)", c.EmbedDim, c.Heads)
	}
	if c.FFDim <= 0 {
		return fmt.Errorf("FF_DIM must be positive, got %d", c.FFDim)
	}
	if c.Layers <= 0 {
		return fmt.Errorf("NUM_LAYERS must be positive, got %d", c.Layers)
	}
	return nil
}

func parseConfig(meta map[string]string) (Config, error) {
	raw, ok := meta["config"]
	if !ok {
		return Config{}, fmt.Errorf("metadata is missing config")
	}
	var cfg Config
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.MaxLen = MaxLen
	return cfg, cfg.Validate()
}

func parseVocab(meta map[string]string) (map[string]int, map[int]string, error) {
	rawW2I, ok := meta["word2idx"]
	if !ok {
		return nil, nil, fmt.Errorf("metadata is missing word2idx")
	}
	rawI2W, ok := meta["idx2word"]
	if !ok {
		return nil, nil, fmt.Errorf("metadata is missing idx2word")
	}

	var w2i map[string]int
	if err := json.Unmarshal([]byte(rawW2I), &w2i); err != nil {
		return nil, nil, fmt.Errorf("parse word2idx: %w", err)
	}

	// JSON object keys are strings; ids are restored here.
	var keyed map[string]string
	if err := json.Unmarshal([]byte(rawI2W), &keyed); err != nil {
		return nil, nil, fmt.Errorf("parse idx2word: %w", err)
	}
	i2w := make(map[int]string, len(keyed))
	for k, w := range keyed {
		id, err := strconv.Atoi(k)
		if err != nil {
			return nil, nil, fmt.Errorf("idx2word key %q is not an integer", k)
		}
		i2w[id] = w
	}
	return w2i, i2w, nil
}
