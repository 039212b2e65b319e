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

// paragraphPromptTmpl asks for one body paragraph plus a short thesis.
// The PARAGRAPH:/THESIS: markers are the parsing contract.
var paragraphPromptTmpl = template.Must(template.New("paragraph").Parse(`Global Topic: {{.Topic}}

Task: Generate an academic paragraph addressing the following specific question within the context
of the global topic, using the provided resources. Then provide a concise thesis statement
(maximum 10 words) that captures the core argument.

Specific Question: {{.Question}}

Resources:
{{.Resources}}

Context and Guidelines:
- Consider how this specific aspect relates to the global topic
- Write in formal academic style
- Include proper citations
- Maintain objective tone
- Support arguments with evidence from resources
- Use appropriate academic vocabulary
- Keep to one cohesive paragraph
- Make clear connections between the specific question and the global topic

Please format your response as follows:

PARAGRAPH:
[Your academic paragraph here]

THESIS:
[Core argument in 10 words or less]
`))

// ParagraphWriter generates one body paragraph per sub-question.
// Failures are reported in the result's status, never as an error, so
// one bad paragraph cannot abort the essay.
type ParagraphWriter struct {
	client llm.Client
}

func NewParagraphWriter(client llm.Client) *ParagraphWriter {
	return &ParagraphWriter{client: client}
}

// Write generates the paragraph answering question, grounded in the
// formatted resources block.
func (p *ParagraphWriter) Write(ctx context.Context, topic, question, resources string) types.ParagraphResult {
	var buf bytes.Buffer
	err := paragraphPromptTmpl.Execute(&buf, struct{ Topic, Question, Resources string }{
		Topic:     topic,
		Question:  question,
		Resources: resources,
	})
	if err != nil {
		return types.ParagraphResult{
			Question:     question,
			Status:       types.StatusError,
			ErrorMessage: err.Error(),
		}
	}

	out, err := p.client.Generate(ctx, buf.String())
	if err != nil {
		return types.ParagraphResult{
			Question:     question,
			Status:       types.StatusError,
			ErrorMessage: err.Error(),
		}
	}

	paragraph, thesis := parseParagraph(out)
	return types.ParagraphResult{
		Question:  question,
		Paragraph: paragraph,
		Thesis:    thesis,
		Status:    types.StatusSuccess,
	}
}

// parseParagraph splits a response on the THESIS: marker. A missing
// marker keeps the whole text as the paragraph with a sentinel thesis.
func parseParagraph(out string) (paragraph, thesis string) {
	parts := strings.SplitN(strings.TrimSpace(out), "THESIS:", 2)

	paragraph = strings.TrimSpace(strings.Replace(parts[0], "PARAGRAPH:", "", 1))
	thesis = "Thesis not found"
	if len(parts) > 1 {
		thesis = strings.TrimSpace(parts[1])
	}
	return paragraph, thesis
}
