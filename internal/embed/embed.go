// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package embed turns text into fixed-length vectors for similarity
// comparison. The same embedder (model and version) must be used at
// ingestion and at query time; index collection names encode the model
// so the two can never drift apart silently.
package embed

import (
	"context"
	"fmt"

	"github.com/pdiddy/essay-engine/pkg/types"
)

// Embedder maps text to a fixed-length vector. Implementations are safe
// for concurrent use.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)

	// Model returns the embedding model identifier. Identical text
	// embeds to identical vectors only within one model.
	Model() string
}

// New constructs the embedder selected by cfg.Backend.
func New(cfg types.EmbeddingConfig) (Embedder, error) {
	switch cfg.Backend {
	case "", "openai":
		return NewOpenAI(cfg)
	case "ollama":
		return NewOllama(cfg)
	default:
		return nil, fmt.Errorf("unknown embedding backend %q", cfg.Backend)
	}
}
