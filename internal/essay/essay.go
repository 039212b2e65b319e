// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package essay orchestrates essay generation: question decomposition,
// per-sub-question evidence retrieval, body paragraphs, summary,
// introduction, and assembly. A failed section becomes a marked
// placeholder in the assembled text, never a silent omission, so
// paragraph order always matches sub-question order.
package essay

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/pdiddy/essay-engine/pkg/types"
)

// HierarchyBuilder decomposes a topic into ordered sub-questions.
type HierarchyBuilder interface {
	Build(ctx context.Context, topic string) (types.QuestionHierarchy, error)
}

// Retriever returns ranked, validated evidence for one question.
type Retriever interface {
	Retrieve(ctx context.Context, question string, topK int) ([]types.ScoredChunk, error)
}

// ParagraphGenerator produces one body paragraph from formatted
// resources. Failures travel in the result's status.
type ParagraphGenerator interface {
	Write(ctx context.Context, topic, question, resources string) types.ParagraphResult
}

// IntroGenerator produces the opening section.
type IntroGenerator interface {
	Write(ctx context.Context, topic string, questions []string) types.IntroResult
}

// SummaryGenerator synthesizes theses into the closing section.
type SummaryGenerator interface {
	Write(ctx context.Context, topic string, theses []string) types.SummaryResult
}

// Generator drives the full pipeline for one topic.
type Generator struct {
	hierarchy  HierarchyBuilder
	retriever  Retriever
	paragraphs ParagraphGenerator
	intro      IntroGenerator
	summary    SummaryGenerator

	maxConcurrent int
	w             io.Writer
}

// NewGenerator wires the essay pipeline. Progress lines go to w.
func NewGenerator(
	hierarchy HierarchyBuilder,
	retriever Retriever,
	paragraphs ParagraphGenerator,
	intro IntroGenerator,
	summary SummaryGenerator,
	cfg types.EssayConfig,
	w io.Writer,
) *Generator {
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 3
	}
	if w == nil {
		w = io.Discard
	}
	return &Generator{
		hierarchy:     hierarchy,
		retriever:     retriever,
		paragraphs:    paragraphs,
		intro:         intro,
		summary:       summary,
		maxConcurrent: maxConcurrent,
		w:             w,
	}
}

// Generate produces a complete essay for topic. Only a failed question
// decomposition aborts the run; every later failure degrades to a
// marked placeholder section in the assembled text.
func (g *Generator) Generate(ctx context.Context, topic string) (types.Essay, error) {
	hierarchy, err := g.hierarchy.Build(ctx, topic)
	if err != nil {
		return types.Essay{}, fmt.Errorf("building question hierarchy: %w", err)
	}
	fmt.Fprintf(g.w, "decomposed topic into %d sub-questions\n", len(hierarchy.SubQuestions))

	body := g.generateBody(ctx, topic, hierarchy.SubQuestions)

	var theses []string
	for _, p := range body {
		if p.OK() {
			theses = append(theses, p.Thesis)
		}
	}

	summary := g.summary.Write(ctx, topic, theses)
	intro := g.intro.Write(ctx, topic, hierarchy.SubQuestions)

	essay := types.Essay{
		Topic:        topic,
		Hierarchy:    hierarchy,
		Introduction: intro,
		Body:         body,
		Summary:      summary,
	}
	essay.Text = assemble(essay)
	return essay, nil
}

// generateBody retrieves evidence and writes a paragraph for every
// sub-question, fanning out up to maxConcurrent sub-questions at once.
// Results are indexed by sub-question position so completion order
// cannot reorder the essay. Sub-questions not yet started when ctx is
// done are recorded as failed instead of being issued.
func (g *Generator) generateBody(ctx context.Context, topic string, subQuestions []string) []types.ParagraphResult {
	body := make([]types.ParagraphResult, len(subQuestions))

	var wg sync.WaitGroup
	sem := make(chan struct{}, g.maxConcurrent)

	for i, q := range subQuestions {
		if err := ctx.Err(); err != nil {
			body[i] = types.ParagraphResult{
				Question:     q,
				Status:       types.StatusError,
				ErrorMessage: fmt.Sprintf("not started: %v", err),
			}
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(i int, q string) {
			defer wg.Done()
			defer func() { <-sem }()

			body[i] = g.generateParagraph(ctx, topic, q)
		}(i, q)
	}
	wg.Wait()

	return body
}

// generateParagraph handles one sub-question end to end: retrieval,
// then paragraph generation over the formatted evidence.
func (g *Generator) generateParagraph(ctx context.Context, topic, question string) types.ParagraphResult {
	chunks, err := g.retriever.Retrieve(ctx, question, 0)
	if err != nil {
		fmt.Fprintf(g.w, "failed  %q: %v\n", question, err)
		return types.ParagraphResult{
			Question:     question,
			Status:       types.StatusError,
			ErrorMessage: fmt.Sprintf("retrieving evidence: %v", err),
		}
	}

	result := g.paragraphs.Write(ctx, topic, question, FormatChunks(chunks))
	if result.OK() {
		fmt.Fprintf(g.w, "wrote paragraph for %q (%d chunks)\n", question, len(chunks))
	} else {
		fmt.Fprintf(g.w, "failed  %q: %s\n", question, result.ErrorMessage)
	}
	return result
}

// assemble renders the final text: introduction, body paragraphs in
// sub-question order, then summary, separated by blank lines. Failed
// sections appear as bracketed placeholders naming the failure.
func assemble(e types.Essay) string {
	var sections []string

	if e.Introduction.OK() {
		sections = append(sections, e.Introduction.Introduction)
	} else {
		sections = append(sections, fmt.Sprintf("[introduction unavailable: %s]", e.Introduction.ErrorMessage))
	}

	for _, p := range e.Body {
		if p.OK() {
			sections = append(sections, p.Paragraph)
		} else {
			sections = append(sections, fmt.Sprintf("[paragraph unavailable for %q: %s]", p.Question, p.ErrorMessage))
		}
	}

	if e.Summary.OK() {
		sections = append(sections, e.Summary.Summary)
	} else {
		sections = append(sections, fmt.Sprintf("[summary unavailable: %s]", e.Summary.ErrorMessage))
	}

	return strings.Join(sections, "\n\n")
}
