package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "./data/transflow.db", cfg.DB)
	assert.Equal(t, "./profiles", cfg.ProfilesDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 4, cfg.Workers)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db: /tmp/file.db\nlog_format: JSON\nworkers: 2\n"), 0o644))
	t.Setenv("TRANSFLOW_DB", "/tmp/env.db")

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/env.db", cfg.DB)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 2, cfg.Workers)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	tests := map[string]string{
		"TRANSFLOW_LOG_LEVEL":  "loud",
		"TRANSFLOW_LOG_FORMAT": "xml",
		"TRANSFLOW_WORKERS":    "0",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load(viper.New(), "")
			assert.Error(t, err)
		})
	}
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	level, err = ParseLevel(" WARN ")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	_, err = ParseLevel("verbose")
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, Config{LogLevel: "warn", LogFormat: "json"})

	logger.Info("hidden")
	logger.Warn("shown", "profile", "api1")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.Equal(t, "api1", rec["profile"])

	buf.Reset()
	NewLogger(&buf, Config{LogLevel: "info", LogFormat: "text"}).Info("hello", "n", 1)
	assert.Contains(t, buf.String(), "msg=hello n=1")
}
