// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package essay

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/pdiddy/essay-engine/pkg/types"
)

type mockLLM struct {
	out     string
	err     error
	prompts []string
}

func (m *mockLLM) Generate(_ context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	return m.out, nil
}

func TestParagraphWrite(t *testing.T) {
	client := &mockLLM{out: "PARAGRAPH:\nBureaucratic rationality reorganizes consumption.\n\nTHESIS:\nRationalization reshapes consumer life."}
	pw := NewParagraphWriter(client)

	got := pw.Write(context.Background(), "McDonaldization", "What is rationalization?", "Source: Book\nContent: text\nPage: 1\n")

	if !got.OK() {
		t.Fatalf("status = %q, error = %q", got.Status, got.ErrorMessage)
	}
	if got.Question != "What is rationalization?" {
		t.Errorf("Question = %q", got.Question)
	}
	if got.Paragraph != "Bureaucratic rationality reorganizes consumption." {
		t.Errorf("Paragraph = %q", got.Paragraph)
	}
	if got.Thesis != "Rationalization reshapes consumer life." {
		t.Errorf("Thesis = %q", got.Thesis)
	}
}

func TestParagraphWritePromptContents(t *testing.T) {
	client := &mockLLM{out: "PARAGRAPH:\np\nTHESIS:\nt"}
	pw := NewParagraphWriter(client)

	pw.Write(context.Background(), "the topic", "the question", "the resources")

	prompt := client.prompts[0]
	for _, want := range []string{"the topic", "the question", "the resources"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestParagraphWriteFailure(t *testing.T) {
	pw := NewParagraphWriter(&mockLLM{err: fmt.Errorf("model unreachable")})

	got := pw.Write(context.Background(), "topic", "question", "resources")

	if got.Status != types.StatusError {
		t.Fatalf("status = %q, want error", got.Status)
	}
	if got.ErrorMessage == "" {
		t.Error("ErrorMessage empty")
	}
	if got.Question != "question" {
		t.Errorf("Question = %q, must survive failure", got.Question)
	}
}

func TestParseParagraph(t *testing.T) {
	tests := []struct {
		name          string
		out           string
		wantParagraph string
		wantThesis    string
	}{
		{
			name:          "both sections",
			out:           "PARAGRAPH:\nbody text\n\nTHESIS:\ncore argument",
			wantParagraph: "body text",
			wantThesis:    "core argument",
		},
		{
			name:          "missing thesis marker",
			out:           "PARAGRAPH:\nbody text only",
			wantParagraph: "body text only",
			wantThesis:    "Thesis not found",
		},
		{
			name:          "no markers at all",
			out:           "free-form answer",
			wantParagraph: "free-form answer",
			wantThesis:    "Thesis not found",
		},
		{
			name:          "extra whitespace",
			out:           "  PARAGRAPH:  \n  body  \nTHESIS:\n  thesis  \n",
			wantParagraph: "body",
			wantThesis:    "thesis",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, th := parseParagraph(tt.out)
			if p != tt.wantParagraph {
				t.Errorf("paragraph = %q, want %q", p, tt.wantParagraph)
			}
			if th != tt.wantThesis {
				t.Errorf("thesis = %q, want %q", th, tt.wantThesis)
			}
		})
	}
}

func TestIntroWrite(t *testing.T) {
	client := &mockLLM{out: "  An introduction.  "}
	iw := NewIntroWriter(client)

	got := iw.Write(context.Background(), "topic", []string{"q1", "q2"})
	if !got.OK() {
		t.Fatalf("status = %q", got.Status)
	}
	if got.Introduction != "An introduction." {
		t.Errorf("Introduction = %q", got.Introduction)
	}
	if !strings.Contains(client.prompts[0], "- q1\n- q2") {
		t.Errorf("questions not bulleted in prompt: %q", client.prompts[0])
	}
}

func TestIntroWriteFailure(t *testing.T) {
	iw := NewIntroWriter(&mockLLM{err: fmt.Errorf("model unreachable")})
	got := iw.Write(context.Background(), "topic", []string{"q"})
	if got.Status != types.StatusError || got.ErrorMessage == "" {
		t.Errorf("got %+v, want error status with message", got)
	}
}

func TestSummaryWrite(t *testing.T) {
	client := &mockLLM{out: "A summary."}
	sw := NewSummaryWriter(client)

	got := sw.Write(context.Background(), "topic", []string{"thesis one", "thesis two"})
	if !got.OK() {
		t.Fatalf("status = %q", got.Status)
	}
	if got.Summary != "A summary." {
		t.Errorf("Summary = %q", got.Summary)
	}
	if !strings.Contains(client.prompts[0], "- thesis one\n- thesis two") {
		t.Errorf("theses not bulleted in prompt: %q", client.prompts[0])
	}
}

func TestSummaryWriteFailure(t *testing.T) {
	sw := NewSummaryWriter(&mockLLM{err: fmt.Errorf("model unreachable")})
	got := sw.Write(context.Background(), "topic", []string{"t"})
	if got.Status != types.StatusError || got.ErrorMessage == "" {
		t.Errorf("got %+v, want error status with message", got)
	}
}

func TestFormatChunks(t *testing.T) {
	chunks := []types.ScoredChunk{
		{
			Chunk: types.EvidenceChunk{
				Content: "first passage",
				Source:  types.SourceMeta{Title: "Book One", Page: 4},
			},
			RelevanceScore: 0.9,
		},
		{
			Chunk: types.EvidenceChunk{
				Content: "second passage",
				Source:  types.SourceMeta{Title: "Book Two", Page: 17},
			},
			RelevanceScore: 0.7,
		},
	}

	got := FormatChunks(chunks)

	for _, want := range []string{
		"Source: Book One", "Content: first passage", "Page: 4",
		"Source: Book Two", "Content: second passage", "Page: 17",
		chunkSeparator,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("formatted output missing %q:\n%s", want, got)
		}
	}
}

func TestFormatChunksEmpty(t *testing.T) {
	if got := FormatChunks(nil); got != "No resources available." {
		t.Errorf("FormatChunks(nil) = %q", got)
	}
}
