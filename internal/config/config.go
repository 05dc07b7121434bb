// Package config reads service settings from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Port        string
	ModelPath   string
	DatabaseURL string
	EnableDB    bool
	GinMode     string
	LogLevel    zapcore.Level
	SpellCheck  bool
	PhraseSeed  uint64
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	level, err := zapcore.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	seed, err := strconv.ParseUint(getEnv("PHRASE_SEED", "0"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("PHRASE_SEED must be a non-negative integer: %w", err)
	}

	enableDB, err := strconv.ParseBool(getEnv("ENABLE_DB", "false"))
	if err != nil {
		return nil, fmt.Errorf("ENABLE_DB must be a boolean: %w", err)
	}

	spellCheck, err := strconv.ParseBool(getEnv("SPELLCHECK", "true"))
	if err != nil {
		return nil, fmt.Errorf("SPELLCHECK must be a boolean: %w", err)
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		ModelPath:   getEnv("MODEL_PATH", "symptom_transformer.safetensors"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		EnableDB:    enableDB,
		GinMode:     getEnv("GIN_MODE", "release"),
		LogLevel:    level,
		SpellCheck:  spellCheck,
		PhraseSeed:  seed,
	}

	if cfg.EnableDB && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required when ENABLE_DB=true")
	}

	return cfg, nil
}

// Logger builds a production zap logger at the configured level.
func (c *Config) Logger() (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(c.LogLevel)
	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
