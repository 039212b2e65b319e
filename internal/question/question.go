// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package question decomposes an essay topic into the ordered
// sub-questions that structure the essay body.
package question

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/essay-engine/internal/llm"
	"github.com/pdiddy/essay-engine/pkg/types"
)

// subQuestionsPromptTmpl asks for a short progression of sub-questions.
// The one-per-line contract is what makes the response parseable; the
// returned order becomes the paragraph order of the essay.
var subQuestionsPromptTmpl = template.Must(template.New("subquestions").Parse(`For the main research question: {{.Question}}

Generate 3-5 sub-questions that:
1. Help build understanding of the main question
2. Follow a logical progression:
   - Definition/Context
   - Problem/Impact Analysis
   - Solutions/Implications
3. Can each be answered in 1-2 paragraphs

Return ONLY the sub-questions, one per line, with no numbering or additional text.
`))

// Builder turns a topic into a question hierarchy with a single
// generation call.
type Builder struct {
	client llm.Client
}

func NewBuilder(client llm.Client) *Builder {
	return &Builder{client: client}
}

// Build decomposes topic into sub-questions. The topic serves as the
// hierarchy's main question; each non-empty response line becomes one
// sub-question, in response order.
func (b *Builder) Build(ctx context.Context, topic string) (types.QuestionHierarchy, error) {
	var buf bytes.Buffer
	if err := subQuestionsPromptTmpl.Execute(&buf, struct{ Question string }{Question: topic}); err != nil {
		return types.QuestionHierarchy{}, fmt.Errorf("rendering sub-questions prompt: %w", err)
	}

	out, err := b.client.Generate(ctx, buf.String())
	if err != nil {
		return types.QuestionHierarchy{}, fmt.Errorf("generating sub-questions: %w", err)
	}

	subs := parseSubQuestions(out)
	if len(subs) == 0 {
		return types.QuestionHierarchy{}, fmt.Errorf("no sub-questions in model output")
	}

	return types.QuestionHierarchy{
		MainQuestion: topic,
		SubQuestions: subs,
	}, nil
}

func parseSubQuestions(out string) []string {
	var subs []string
	for _, line := range strings.Split(out, "\n") {
		q := strings.TrimSpace(line)
		if q == "" {
			continue
		}
		subs = append(subs, q)
	}
	return subs
}
