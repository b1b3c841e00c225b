package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"SOPKB_STORE_BACKEND", "SOPKB_WINDOW_CHARS", "SOPKB_RETRY_BACKOFF",
		"SOPKB_SIMILARITY_THRESHOLD", "SOPKB_MAX_RESULTS", "SOPKB_EMBED_MAX_CHARS",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, BackendCSV, cfg.StoreBackend)
	assert.Equal(t, DefaultWindowChars, cfg.WindowChars)
	assert.Equal(t, DefaultRetryBackoff, cfg.RetryBackoff)
	assert.Equal(t, DefaultSimilarityThreshold, cfg.SimilarityThreshold)
	assert.Equal(t, DefaultMaxResults, cfg.MaxResults)
	assert.Equal(t, DefaultEmbedMaxChars, cfg.EmbedMaxChars)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SOPKB_WINDOW_CHARS", "500")
	t.Setenv("SOPKB_RETRY_BACKOFF", "10ms")
	t.Setenv("SOPKB_SIMILARITY_THRESHOLD", "0.5")
	t.Setenv("SOPKB_LLM_PROVIDER", "bedrock")
	t.Setenv("SOPKB_LOG_LEVEL", "debug")

	cfg := Load()
	assert.Equal(t, 500, cfg.WindowChars)
	assert.Equal(t, 10*time.Millisecond, cfg.RetryBackoff)
	assert.InDelta(t, 0.5, cfg.SimilarityThreshold, 1e-9)
	assert.Equal(t, ProviderBedrock, cfg.LLMProvider)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoadInvalidEnvFallsBack(t *testing.T) {
	t.Setenv("SOPKB_MAX_RESULTS", "lots")
	t.Setenv("SOPKB_CALL_TIMEOUT", "soon")

	cfg := Load()
	assert.Equal(t, DefaultMaxResults, cfg.MaxResults)
	assert.Equal(t, DefaultCallTimeout, cfg.CallTimeout)
}

func TestLoadFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sopkb.yaml")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join([]string{
		"store_path: /data/records.csv",
		"max_results: 8",
		"retry_backoff: 250ms",
		"log_level: warn",
	}, "\n")), 0o600))

	base := Load()
	base.OpenAIAPIKey = "secret"

	cfg, err := LoadFile(path, base)
	require.NoError(t, err)
	assert.Equal(t, "/data/records.csv", cfg.StorePath)
	assert.Equal(t, 8, cfg.MaxResults)
	assert.Equal(t, 250*time.Millisecond, cfg.RetryBackoff)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
	assert.Equal(t, base.WindowChars, cfg.WindowChars, "unset keys keep base value")
	assert.Equal(t, "secret", cfg.OpenAIAPIKey)
}

func TestLoadFileErrors(t *testing.T) {
	base := Load()

	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), base)
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store_backend: mongo\n"), 0o600))
	_, err = LoadFile(path, base)
	require.ErrorContains(t, err, "unknown store backend")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"zero window", func(c *Config) { c.WindowChars = 0 }, "window_chars"},
		{"threshold above one", func(c *Config) { c.SimilarityThreshold = 1.5 }, "similarity_threshold"},
		{"no results", func(c *Config) { c.MaxResults = 0 }, "max_results"},
		{"no dimension", func(c *Config) { c.EmbedDimension = 0 }, "embed_dimension"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.errMsg)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLogLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLogLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLogLevel("chatty"))
}

func TestNewLoggerWithWriters(t *testing.T) {
	var console, file bytes.Buffer
	logger := NewLoggerWithWriters(&console, &file, slog.LevelInfo)

	logger.Debug("hidden")
	logger.Info("ingest complete", "accepted", 3)

	assert.NotContains(t, console.String(), "hidden")
	assert.Contains(t, console.String(), "accepted=3")
	assert.Contains(t, file.String(), `"accepted":3`)
}

func TestSetupLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sopkb.log")
	logger, closeFn := SetupLogger(LogOptions{File: path, Level: slog.LevelInfo, Quiet: true})
	logger.Info("stored", "records", 2)
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"records":2`)
}
