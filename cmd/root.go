/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/valpere/transflow/internal/config"
)

var version = "0.1.0"

var (
	cfgFile  string
	cfg      config.Config
	logger   = slog.New(slog.NewTextHandler(os.Stderr, nil))
	settings = viper.New()
)

var rootCmd = &cobra.Command{
	Use:   "transflow",
	Short: "Profile-driven toolkit for LLM document translation pipelines",
	Long: `transflow validates translation pipeline profiles, parses raw LLM responses,
splits documents into translation units and checks translated output line by line.

Profiles (api, prompt, parser, policy, chunk, pipeline) are JSON, YAML or TOML
files and can be kept in a local SQLite registry.

Use "transflow validate --help" to check a profile tree.`,
	Version:      version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(settings, cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
		logger = config.NewLogger(os.Stderr, cfg)
		slog.SetDefault(logger)
		logger.Debug("configuration loaded", "db", cfg.DB, "profiles_dir", cfg.ProfilesDir, "workers", cfg.Workers)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Config file (json, yaml or toml)")
	flags.String("db", "./data/transflow.db", "Profile registry database path")
	flags.String("profiles-dir", "./profiles", "Default profile directory")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-format", "text", "Log format (text or json)")
	flags.Int("workers", 4, "Number of profiles processed concurrently")

	for key, name := range map[string]string{
		config.KeyDB:          "db",
		config.KeyProfilesDir: "profiles-dir",
		config.KeyLogLevel:    "log-level",
		config.KeyLogFormat:   "log-format",
		config.KeyWorkers:     "workers",
	} {
		_ = settings.BindPFlag(key, flags.Lookup(name))
	}
}
