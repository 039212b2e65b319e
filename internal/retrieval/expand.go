// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieval

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/essay-engine/internal/llm"
)

// expansionPromptTmpl asks the model to decompose a sub-question into
// focused search queries that broaden recall against the vector index.
var expansionPromptTmpl = template.Must(template.New("expansion").Parse(`Break down this question into specific search queries that will help find relevant information:
Question: {{.Question}}

Consider:
1. Core concepts mentioned
2. Related terminology
3. Specific aspects to look for

Format each query to be specific and focused. Return only the queries, one per line, with no numbering or additional text.
`))

// QueryExpander turns one question into several semantically distinct
// search queries.
type QueryExpander interface {
	Expand(ctx context.Context, question string) ([]string, error)
}

// Expander implements QueryExpander with a generation call.
type Expander struct {
	client llm.Client
}

// NewExpander builds an expander over the given generation client.
func NewExpander(client llm.Client) *Expander {
	return &Expander{client: client}
}

// Expand asks the model for search queries and parses one query per
// line. It returns an error for a failed call or output with no usable
// lines; the retriever falls back to the original question in either
// case, so expansion failure never aborts retrieval.
func (e *Expander) Expand(ctx context.Context, question string) ([]string, error) {
	var buf bytes.Buffer
	if err := expansionPromptTmpl.Execute(&buf, struct{ Question string }{Question: question}); err != nil {
		return nil, fmt.Errorf("rendering expansion prompt: %w", err)
	}

	out, err := e.client.Generate(ctx, buf.String())
	if err != nil {
		return nil, fmt.Errorf("expansion call: %w", err)
	}

	queries := parseQueries(out)
	if len(queries) == 0 {
		return nil, fmt.Errorf("expansion produced no queries")
	}
	return queries, nil
}

// parseQueries splits model output into discrete query strings. List
// markers and numbering are stripped; blank lines and header lines
// (ending in a colon) are dropped.
func parseQueries(out string) []string {
	var queries []string
	for _, line := range strings.Split(out, "\n") {
		q := strings.TrimSpace(line)
		q = stripListMarker(q)
		if q == "" || strings.HasSuffix(q, ":") {
			continue
		}
		queries = append(queries, q)
	}
	return queries
}

// stripListMarker removes a leading bullet ("-", "*") or numbering
// ("1.", "2)") from a line.
func stripListMarker(s string) string {
	trimmed := strings.TrimLeft(s, "-* \t")
	// Numbered lists: digits followed by "." or ")".
	i := 0
	for i < len(trimmed) && trimmed[i] >= '0' && trimmed[i] <= '9' {
		i++
	}
	if i > 0 && i < len(trimmed) && (trimmed[i] == '.' || trimmed[i] == ')') {
		trimmed = trimmed[i+1:]
	}
	return strings.TrimSpace(trimmed)
}
