// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the paperwork CLI, a research-paper
// browsing assistant backed by a search and chat service.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/paperwork/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// loadedSecrets holds credentials loaded from .secrets/ at startup.
	loadedSecrets secrets.Set

	logger  = zap.NewNop()
	verbose bool
)

// secretDefault returns configured when it is set, otherwise the loaded
// secret for key.
func secretDefault(key, configured string) string {
	if configured != "" {
		return configured
	}
	return loadedSecrets.Get(key, "")
}

// rootCmd is the base command for the paperwork CLI.
var rootCmd = &cobra.Command{
	Use:   "paperwork",
	Short: "AI research paper browser",
	Long: `paperwork searches for academic papers, answers questions about them with
an AI backend, and keeps a personal library and knowledge profile.

Use chat for an interactive conversation, search for a one-shot result list,
and library or profile to manage what has been saved.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		l, err := config.Build()
		if err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		logger = l

		s, err := secrets.Load(secrets.DefaultDir, logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug("loaded secrets", zap.Strings("keys", keys))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./paperwork.yaml or ~/.config/paperwork/paperwork.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().String("backend", "", "backend base URL (overrides backend.base_url)")
	rootCmd.PersistentFlags().String("profile", "", "profile database path (overrides profile.path)")

	_ = viper.BindPFlag("backend.base_url", rootCmd.PersistentFlags().Lookup("backend"))
	_ = viper.BindPFlag("profile.path", rootCmd.PersistentFlags().Lookup("profile"))
}

func initConfig() {
	setDefaults()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("paperwork")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "paperwork"))
		}
	}

	viper.SetEnvPrefix("PAPERWORK")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
