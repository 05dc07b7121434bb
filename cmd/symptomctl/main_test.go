package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRulesListsTableInOrder(t *testing.T) {
	out, err := execute(t, "rules")
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	require.Greater(t, len(lines), 10)
	assert.Equal(t, "rules (first match wins):", lines[0])
	assert.Contains(t, lines[1], "1. safety-respiratory")
	assert.Contains(t, out, "10. fallback")

	assert.Less(t, strings.Index(out, "safety-neuro"), strings.Index(out, "jaundice"))
	assert.Contains(t, out, "advice:")
	assert.Contains(t, out, "  - cervical spondylosis")
	assert.Contains(t, out, "  - typhoid")
}

func TestPredictRequiresText(t *testing.T) {
	_, err := execute(t, "predict")
	assert.Error(t, err)
}

func TestPredictMissingModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.safetensors")
	_, err := execute(t, "predict", "--model", path, "fever", "and", "chills")
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Contains(t, err.Error(), "model file not found at: "+path)
}

func TestInspectMissingModelFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env.safetensors")
	t.Setenv("ENABLE_DB", "false")
	t.Setenv("LOG_LEVEL", "info")
	t.Setenv("PHRASE_SEED", "0")
	t.Setenv("MODEL_PATH", path)

	_, err := execute(t, "inspect")
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}

func TestInspectRejectsArgs(t *testing.T) {
	_, err := execute(t, "inspect", "extra")
	assert.Error(t, err)
}
