// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package essay

import (
	"bytes"
	"context"
	"strings"
	"text/template"

	"github.com/pdiddy/essay-engine/internal/llm"
	"github.com/pdiddy/essay-engine/pkg/types"
)

var introPromptTmpl = template.Must(template.New("intro").Parse(`Task: Generate an academic introduction paragraph that introduces the global research topic
and smoothly transitions into the specific research questions that will be addressed.

Global Topic: {{.Topic}}

Research Questions to be Addressed:
{{.Questions}}

Guidelines:
- Start with a broad context for the global topic
- Establish the significance of the research area
- Gradually narrow down to the specific aspects being studied
- Introduce each research question naturally within the flow
- Maintain formal academic tone
- Keep to 1-2 cohesive paragraphs
- End with a clear indication of what the paper will explore

Academic Introduction:
`))

// IntroWriter generates the essay's opening section from the topic and
// the sub-questions the body will address.
type IntroWriter struct {
	client llm.Client
}

func NewIntroWriter(client llm.Client) *IntroWriter {
	return &IntroWriter{client: client}
}

// Write generates the introduction. Failures are reported in the
// result's status, never as an error.
func (iw *IntroWriter) Write(ctx context.Context, topic string, questions []string) types.IntroResult {
	var buf bytes.Buffer
	err := introPromptTmpl.Execute(&buf, struct{ Topic, Questions string }{
		Topic:     topic,
		Questions: bulletList(questions),
	})
	if err != nil {
		return types.IntroResult{Status: types.StatusError, ErrorMessage: err.Error()}
	}

	out, err := iw.client.Generate(ctx, buf.String())
	if err != nil {
		return types.IntroResult{Status: types.StatusError, ErrorMessage: err.Error()}
	}

	return types.IntroResult{
		Introduction: strings.TrimSpace(out),
		Status:       types.StatusSuccess,
	}
}

func bulletList(items []string) string {
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- ")
		b.WriteString(item)
	}
	return b.String()
}
