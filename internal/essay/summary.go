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

var summaryPromptTmpl = template.Must(template.New("summary").Parse(`Task: Generate a cohesive summary paragraph that synthesizes the following thesis statements
in the context of the global topic.

Global Topic: {{.Topic}}

Thesis Statements:
{{.Theses}}

Guidelines:
- Create a flowing narrative that connects the thesis statements
- Maintain clear relationship to the global topic
- Keep academic tone
- Be concise but comprehensive
- Create smooth transitions between ideas
- End with a statement that ties everything together

Summary Paragraph:
`))

// SummaryWriter synthesizes the body paragraphs' thesis statements into
// a closing section.
type SummaryWriter struct {
	client llm.Client
}

func NewSummaryWriter(client llm.Client) *SummaryWriter {
	return &SummaryWriter{client: client}
}

// Write generates the summary from the collected theses. Failures are
// reported in the result's status, never as an error.
func (sw *SummaryWriter) Write(ctx context.Context, topic string, theses []string) types.SummaryResult {
	var buf bytes.Buffer
	err := summaryPromptTmpl.Execute(&buf, struct{ Topic, Theses string }{
		Topic:  topic,
		Theses: bulletList(theses),
	})
	if err != nil {
		return types.SummaryResult{Status: types.StatusError, ErrorMessage: err.Error()}
	}

	out, err := sw.client.Generate(ctx, buf.String())
	if err != nil {
		return types.SummaryResult{Status: types.StatusError, ErrorMessage: err.Error()}
	}

	return types.SummaryResult{
		Summary: strings.TrimSpace(out),
		Status:  types.StatusSuccess,
	}
}
