// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embed

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/ollama/ollama/envconfig"

	"github.com/pdiddy/essay-engine/pkg/types"
)

// Ollama generates embeddings through a local Ollama server.
type Ollama struct {
	client  *api.Client
	model   string
	timeout time.Duration
}

// NewOllama builds the embedder from config. An empty BaseURL uses the
// OLLAMA_HOST environment default.
func NewOllama(cfg types.EmbeddingConfig) (*Ollama, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("ollama embedding backend requires a model")
	}

	host := envconfig.Host()
	if cfg.BaseURL != "" {
		u, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("parsing ollama base URL: %w", err)
		}
		host = u
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Ollama{
		client:  api.NewClient(host, http.DefaultClient),
		model:   cfg.Model,
		timeout: timeout,
	}, nil
}

// Model returns the embedding model identifier.
func (o *Ollama) Model() string { return o.model }

// Embed requests a vector for text from the Ollama embeddings endpoint.
func (o *Ollama) Embed(ctx context.Context, text string) ([]float64, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	resp, err := o.client.Embeddings(ctx, &api.EmbeddingRequest{
		Model:  o.model,
		Prompt: text,
	})
	if err != nil {
		return nil, fmt.Errorf("ollama embedding: %w", err)
	}

	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("ollama returned an empty embedding")
	}

	return resp.Embedding, nil
}
