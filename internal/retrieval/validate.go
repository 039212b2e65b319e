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

// validationPromptTmpl asks for a closed binary relevance judgment. The
// constrained output contract ("relevant"/"not_relevant") is what lets
// the response be checked by exact string comparison.
var validationPromptTmpl = template.Must(template.New("validation").Parse(`Question: {{.Question}}
Text Chunk: {{.Chunk}}

Determine if this chunk is directly relevant to the question by checking:
1. Does it contain information that directly addresses the question?
2. Is the information in the correct context?
3. Does it provide substantive information rather than just mentioning keywords?

Return ONLY 'relevant' or 'not_relevant'
`))

// RelevanceValidator judges whether a chunk is relevant to a question.
type RelevanceValidator interface {
	Validate(ctx context.Context, question, chunkText string) (bool, error)
}

// Validator implements RelevanceValidator with a constrained generation
// call. It is fail-closed: only the exact answer "relevant" accepts a
// chunk; free text, empty output, and errors all reject.
type Validator struct {
	client llm.Client
}

// NewValidator builds a validator over the given generation client.
// Classification calls should use temperature 0.
func NewValidator(client llm.Client) *Validator {
	return &Validator{client: client}
}

// Validate returns whether the model judged the chunk relevant. The
// response is trimmed, lowercased, and compared by exact equality to
// "relevant"; anything else is a rejection.
func (v *Validator) Validate(ctx context.Context, question, chunkText string) (bool, error) {
	var buf bytes.Buffer
	err := validationPromptTmpl.Execute(&buf, struct{ Question, Chunk string }{
		Question: question,
		Chunk:    chunkText,
	})
	if err != nil {
		return false, fmt.Errorf("rendering validation prompt: %w", err)
	}

	out, err := v.client.Generate(ctx, buf.String())
	if err != nil {
		return false, fmt.Errorf("validation call: %w", err)
	}

	return normalizeJudgment(out) == "relevant", nil
}

// normalizeJudgment trims whitespace and lowercases a model response so
// the equality check tolerates formatting but nothing else.
func normalizeJudgment(out string) string {
	return strings.ToLower(strings.TrimSpace(out))
}
