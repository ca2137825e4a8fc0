// Package config resolves CLI settings from flags, TRANSFLOW_* environment
// variables, an optional config file and defaults, and builds the process
// logger.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/viper"
)

const EnvPrefix = "TRANSFLOW"

// Keys understood by Load.
const (
	KeyDB          = "db"
	KeyProfilesDir = "profiles_dir"
	KeyLogLevel    = "log_level"
	KeyLogFormat   = "log_format"
	KeyWorkers     = "workers"
)

type Config struct {
	DB          string
	ProfilesDir string
	LogLevel    string
	LogFormat   string
	Workers     int
}

// SetDefaults registers the built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyDB, "./data/transflow.db")
	v.SetDefault(KeyProfilesDir, "./profiles")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyWorkers, 4)
}

// Load reads configFile when set and resolves every key on v. Flags must
// already be bound by the caller.
func Load(v *viper.Viper, configFile string) (Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", configFile, err)
		}
	}

	cfg := Config{
		DB:          v.GetString(KeyDB),
		ProfilesDir: v.GetString(KeyProfilesDir),
		LogLevel:    v.GetString(KeyLogLevel),
		LogFormat:   strings.ToLower(v.GetString(KeyLogFormat)),
		Workers:     v.GetInt(KeyWorkers),
	}
	if cfg.Workers < 1 {
		return cfg, fmt.Errorf("workers must be at least 1, got %d", cfg.Workers)
	}
	if _, err := ParseLevel(cfg.LogLevel); err != nil {
		return cfg, err
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return cfg, fmt.Errorf("unknown log format %q", cfg.LogFormat)
	}
	return cfg, nil
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
	return level, nil
}

// NewLogger builds the logger described by cfg, writing to w.
func NewLogger(w io.Writer, cfg Config) *slog.Logger {
	level, err := ParseLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}
