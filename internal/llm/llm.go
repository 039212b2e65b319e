// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm provides the text-generation client the prompt-driven
// stages share. Every generator in the pipeline consumes the same
// narrow contract: prompt in, text out.
package llm

import (
	"context"
	"fmt"

	"github.com/pdiddy/essay-engine/pkg/types"
)

// Client generates text from a prompt. Model and temperature are fixed
// at construction; implementations are safe for concurrent use.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// New constructs the generation client selected by cfg.Backend.
func New(cfg types.AIConfig) (Client, error) {
	switch cfg.Backend {
	case "", "claude":
		return NewClaude(cfg)
	case "ollama":
		return NewOllama(cfg)
	default:
		return nil, fmt.Errorf("unknown generation backend %q", cfg.Backend)
	}
}
