// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/ollama/ollama/api"
	"github.com/ollama/ollama/envconfig"

	"github.com/pdiddy/essay-engine/pkg/types"
)

// Ollama generates text through a local Ollama server.
type Ollama struct {
	client      *api.Client
	model       string
	temperature float64
}

// NewOllama builds the client from config. The host comes from the
// OLLAMA_HOST environment default.
func NewOllama(cfg types.AIConfig) (*Ollama, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("ollama generation backend requires a model")
	}
	return &Ollama{
		client:      api.NewClient(envconfig.Host(), http.DefaultClient),
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}, nil
}

// Generate streams a completion for the prompt and returns the
// accumulated response text.
func (o *Ollama) Generate(ctx context.Context, prompt string) (string, error) {
	req := api.GenerateRequest{
		Model:  o.model,
		Prompt: prompt,
		Options: map[string]any{
			"temperature": o.temperature,
		},
	}

	var b strings.Builder
	err := o.client.Generate(ctx, &req, func(resp api.GenerateResponse) error {
		_, err := b.WriteString(resp.Response)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}

	return b.String(), nil
}
