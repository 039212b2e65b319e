// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/essay-engine/internal/httputil"
	"github.com/pdiddy/essay-engine/pkg/types"
)

// claudeAPIURL is the Claude API endpoint. Package-level var for test
// substitution.
var claudeAPIURL = "https://api.anthropic.com/v1/messages"

const defaultClaudeModel = "claude-sonnet-4-5-20250929"

// Claude calls the Claude Messages API.
type Claude struct {
	apiKey      string
	model       string
	temperature float64
	client      *http.Client
}

// NewClaude builds the client from config.
func NewClaude(cfg types.AIConfig) (*Claude, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("claude backend requires an API key")
	}
	model := cfg.Model
	if model == "" {
		model = defaultClaudeModel
	}
	return &Claude{
		apiKey:      cfg.APIKey,
		model:       model,
		temperature: cfg.Temperature,
		client:      http.DefaultClient,
	}, nil
}

// claudeRequest is the request body for the Claude Messages API.
type claudeRequest struct {
	Model       string          `json:"model"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature"`
	Messages    []claudeMessage `json:"messages"`
}

// claudeMessage is a single message in the Claude API conversation.
type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// claudeResponse is the response body from the Claude Messages API.
type claudeResponse struct {
	Content []claudeContent `json:"content"`
}

// claudeContent is a content block in the Claude API response.
type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Generate sends the prompt as a single user message and returns the
// concatenated text blocks of the response.
func (c *Claude) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := claudeRequest{
		Model:       c.model,
		MaxTokens:   4096,
		Temperature: c.temperature,
		Messages: []claudeMessage{
			{Role: "user", Content: prompt},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, claudeAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := httputil.DoWithRetry(ctx, c.client, req, 0)
	if err != nil {
		return "", fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("Claude API returned %d: %s", resp.StatusCode, string(body))
	}

	var cResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return "", fmt.Errorf("decoding Claude response: %w", err)
	}

	var b strings.Builder
	for _, block := range cResp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("Claude API returned no text content")
	}

	return b.String(), nil
}
