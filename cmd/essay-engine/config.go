// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/essay-engine/pkg/types"
)

// addEmbeddingFlags registers the flags shared by every command that
// embeds text (ingest, retrieve, essay).
func addEmbeddingFlags(cmd *cobra.Command) {
	cmd.Flags().String("embedding-backend", "", "embedding backend: openai or ollama (default openai)")
	cmd.Flags().String("embedding-model", "", "embedding model identifier (default text-embedding-3-small)")
	cmd.Flags().String("embedding-base-url", "", "override the embedding API endpoint")
}

// addIndexFlags registers the flags shared by every command that opens
// the vector index.
func addIndexFlags(cmd *cobra.Command) {
	cmd.Flags().String("index-backend", "", "index backend: sqlite or pgvector (default sqlite)")
	cmd.Flags().String("index-path", "index/essay-engine.db", "SQLite database path (sqlite backend)")
	cmd.Flags().String("database-url", "", "Postgres connection string (pgvector backend)")
	cmd.Flags().Int("dimension", 0, "embedding dimension enforced by the index (0 = infer from first upsert)")
}

func embeddingConfig(cmd *cobra.Command) types.EmbeddingConfig {
	backend, _ := cmd.Flags().GetString("embedding-backend")
	if backend == "" {
		backend = viper.GetString("embedding.backend")
	}
	model, _ := cmd.Flags().GetString("embedding-model")
	if model == "" {
		model = viper.GetString("embedding.model")
	}
	baseURL, _ := cmd.Flags().GetString("embedding-base-url")
	if baseURL == "" {
		baseURL = viper.GetString("embedding.base_url")
	}

	return types.EmbeddingConfig{
		Backend: backend,
		Model:   model,
		APIKey:  secretDefault("openai-api-key", viper.GetString("embedding.api_key")),
		BaseURL: baseURL,
	}
}

func indexConfig(cmd *cobra.Command) types.IndexConfig {
	backend, _ := cmd.Flags().GetString("index-backend")
	if backend == "" {
		backend = viper.GetString("index.backend")
	}
	path, _ := cmd.Flags().GetString("index-path")
	databaseURL, _ := cmd.Flags().GetString("database-url")
	if databaseURL == "" {
		databaseURL = secretDefault("database-url", viper.GetString("index.database_url"))
	}
	dimension, _ := cmd.Flags().GetInt("dimension")

	return types.IndexConfig{
		Backend:     backend,
		Path:        path,
		DatabaseURL: databaseURL,
		Dimension:   dimension,
	}
}

// aiConfig builds the generation settings for a command with --backend,
// --model, and --temperature flags.
func aiConfig(cmd *cobra.Command) types.AIConfig {
	backend, _ := cmd.Flags().GetString("backend")
	if backend == "" {
		backend = viper.GetString("essay.backend")
	}
	model, _ := cmd.Flags().GetString("model")
	if model == "" {
		model = viper.GetString("essay.model")
	}
	temperature, _ := cmd.Flags().GetFloat64("temperature")

	return types.AIConfig{
		Backend:     backend,
		Model:       model,
		APIKey:      secretDefault("anthropic-api-key", viper.GetString("essay.api_key")),
		Temperature: temperature,
	}
}
