// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pdiddy/essay-engine/internal/httputil"
	"github.com/pdiddy/essay-engine/pkg/types"
)

// openaiAPIBase is the embeddings endpoint. Declared as a var so tests
// can substitute an httptest server.
var openaiAPIBase = "https://api.openai.com/v1"

const defaultEmbeddingModel = "text-embedding-3-small"

// OpenAI calls an OpenAI-compatible embeddings API.
type OpenAI struct {
	client *http.Client
	base   string
	apiKey string
	model  string
}

// NewOpenAI builds the embedder from config. An empty model falls back
// to text-embedding-3-small.
func NewOpenAI(cfg types.EmbeddingConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai embedding backend requires an API key")
	}

	base := cfg.BaseURL
	if base == "" {
		base = openaiAPIBase
	}
	model := cfg.Model
	if model == "" {
		model = defaultEmbeddingModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &OpenAI{
		client: &http.Client{Timeout: timeout},
		base:   base,
		apiKey: cfg.APIKey,
		model:  model,
	}, nil
}

// Model returns the embedding model identifier.
func (o *OpenAI) Model() string { return o.model }

// embeddingRequest is the request body for the embeddings API.
type embeddingRequest struct {
	Input string `json:"input"`
	Model string `json:"model"`
}

// embeddingResponse is the response body from the embeddings API.
type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// Embed requests a vector for text. Rate limits and transient server
// errors are retried by the shared HTTP helper.
func (o *OpenAI) Embed(ctx context.Context, text string) ([]float64, error) {
	body, err := json.Marshal(embeddingRequest{Input: text, Model: o.model})
	if err != nil {
		return nil, fmt.Errorf("marshaling embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.base+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := httputil.DoWithRetry(ctx, o.client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("calling embeddings API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embeddings API returned %d: %s", resp.StatusCode, string(data))
	}

	var er embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, fmt.Errorf("decoding embedding response: %w", err)
	}

	if len(er.Data) == 0 || len(er.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("embeddings API returned no vector")
	}

	return er.Data[0].Embedding, nil
}
