// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the essay-engine CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/essay-engine/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns the secret value for key if it exists, or fallback otherwise.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the essay-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "essay-engine",
	Short: "Evidence-grounded essay generation over a local corpus",
	Long: `essay-engine generates structured academic essays grounded in a local
document corpus. A topic is decomposed into sub-questions; each sub-question
retrieves validated evidence from a vector index and becomes one body
paragraph, framed by a generated introduction and summary.

Each pipeline stage is a subcommand: ingest builds the index from source
documents, retrieve inspects ranked evidence for a single question, and
essay runs the full generation pipeline.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; absence is not an error.
		_ = godotenv.Load()

		s, err := secrets.Load(".secrets/")
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
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./essay-engine.yaml or ~/.config/essay-engine/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("essay-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "essay-engine"))
		}
	}

	viper.SetEnvPrefix("ESSAY_ENGINE")
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
