// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retrieval turns a natural-language question into a ranked,
// validated set of evidence chunks. The pipeline is strict: query
// expansion, then vector lookup, then relevance validation, then
// scoring; fan-out happens within a stage, never across stages.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/pdiddy/essay-engine/internal/embed"
	"github.com/pdiddy/essay-engine/internal/index"
	"github.com/pdiddy/essay-engine/pkg/types"
)

// UnavailableError reports that the vector index or embedder could not
// be reached. There is no fallback evidence source, so retrieval for the
// affected question aborts rather than returning partial results.
type UnavailableError struct {
	Op  string
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("retrieval unavailable (%s): %v", e.Op, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// Retriever composes expansion, lookup, validation, and scoring into the
// precise-chunk-retrieval operation essay generation consumes.
type Retriever struct {
	expander  QueryExpander
	validator RelevanceValidator
	embedder  embed.Embedder
	idx       index.Index

	topK          int
	maxConcurrent int
	callTimeout   time.Duration
	w             io.Writer
}

// NewRetriever wires the pipeline. All collaborators are injected;
// warnings (expansion fallback, rejected validation calls, excluded
// degenerate vectors) go to w.
func NewRetriever(
	expander QueryExpander,
	validator RelevanceValidator,
	embedder embed.Embedder,
	idx index.Index,
	cfg types.RetrievalConfig,
	w io.Writer,
) *Retriever {
	topK := cfg.TopK
	if topK <= 0 {
		topK = 5
	}
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 3
	}
	callTimeout := cfg.CallTimeout
	if callTimeout <= 0 {
		callTimeout = 30 * time.Second
	}
	if w == nil {
		w = io.Discard
	}
	return &Retriever{
		expander:      expander,
		validator:     validator,
		embedder:      embedder,
		idx:           idx,
		topK:          topK,
		maxConcurrent: maxConcurrent,
		callTimeout:   callTimeout,
		w:             w,
	}
}

// Retrieve returns validated evidence for question, ordered by
// descending relevance score with ties kept in first-encountered order.
// topK bounds each expanded query's index lookup; the full validated,
// ranked set is returned and the caller decides how much to use.
//
// Validation always runs against the original question, not the
// expanded queries, so accepted evidence tracks user intent rather than
// a derived sub-query.
func (r *Retriever) Retrieve(ctx context.Context, question string, topK int) ([]types.ScoredChunk, error) {
	if topK <= 0 {
		topK = r.topK
	}

	queries := r.expandQueries(ctx, question)

	candidates, err := r.lookup(ctx, queries, topK)
	if err != nil {
		return nil, err
	}

	accepted := r.validateAll(ctx, question, candidates)

	scored, err := r.scoreAll(ctx, question, accepted)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].RelevanceScore > scored[j].RelevanceScore
	})

	return scored, nil
}

// expandQueries runs query expansion with the retriever's fallback
// guarantee: any failure or empty result degrades to the original
// question as the sole query.
func (r *Retriever) expandQueries(ctx context.Context, question string) []string {
	callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()

	queries, err := r.expander.Expand(callCtx, question)
	if err != nil || len(queries) == 0 {
		if err != nil {
			fmt.Fprintf(r.w, "warning: query expansion failed, using original question: %v\n", err)
		}
		return []string{question}
	}
	return queries
}

// lookup embeds each query and fetches its top-k neighbours, fanning
// out up to maxConcurrent lookups at once. Results are merged in query
// order and deduplicated by content+source identity, keeping retrieval
// deterministic regardless of goroutine completion order. Any embed or
// index failure means the evidence source is unreachable and surfaces
// as an UnavailableError.
func (r *Retriever) lookup(ctx context.Context, queries []string, topK int) ([]types.EvidenceChunk, error) {
	perQuery := make([][]types.EvidenceChunk, len(queries))
	errs := make([]error, len(queries))

	var wg sync.WaitGroup
	sem := make(chan struct{}, r.maxConcurrent)

	for i, q := range queries {
		if ctx.Err() != nil {
			return nil, &UnavailableError{Op: "lookup", Err: ctx.Err()}
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(i int, q string) {
			defer wg.Done()
			defer func() { <-sem }()

			callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
			defer cancel()

			vec, err := r.embedder.Embed(callCtx, q)
			if err != nil {
				errs[i] = fmt.Errorf("embedding query %q: %w", q, err)
				return
			}

			chunks, err := r.idx.Query(callCtx, vec, topK)
			if err != nil {
				errs[i] = fmt.Errorf("index lookup for %q: %w", q, err)
				return
			}
			perQuery[i] = chunks
		}(i, q)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, &UnavailableError{Op: "lookup", Err: err}
		}
	}

	seen := make(map[string]bool)
	var candidates []types.EvidenceChunk
	for _, chunks := range perQuery {
		for _, c := range chunks {
			key := c.Identity()
			if seen[key] {
				continue
			}
			seen[key] = true
			candidates = append(candidates, c)
		}
	}
	return candidates, nil
}

// validateAll judges every candidate against the original question,
// fanning out up to maxConcurrent validation calls. A failed call
// rejects that one candidate (fail-closed) instead of aborting the
// retrieval. Accepted chunks keep their candidate order.
func (r *Retriever) validateAll(ctx context.Context, question string, candidates []types.EvidenceChunk) []types.EvidenceChunk {
	verdicts := make([]bool, len(candidates))

	var wg sync.WaitGroup
	sem := make(chan struct{}, r.maxConcurrent)

	for i, c := range candidates {
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(i int, chunkText string) {
			defer wg.Done()
			defer func() { <-sem }()

			callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
			defer cancel()

			ok, err := r.validator.Validate(callCtx, question, chunkText)
			if err != nil {
				fmt.Fprintf(r.w, "warning: validation failed for one candidate, rejecting: %v\n", err)
				return
			}
			verdicts[i] = ok
		}(i, c.Content)
	}
	wg.Wait()

	var accepted []types.EvidenceChunk
	for i, ok := range verdicts {
		if ok {
			accepted = append(accepted, candidates[i])
		}
	}
	return accepted
}

// scoreAll computes each accepted chunk's cosine similarity to the
// original question. Chunks whose stored embedding is missing are
// re-embedded; an unreachable embedder surfaces as an
// UnavailableError. Degenerate vectors exclude the affected chunk from
// the ranking rather than assigning it an arbitrary score.
func (r *Retriever) scoreAll(ctx context.Context, question string, accepted []types.EvidenceChunk) ([]types.ScoredChunk, error) {
	if len(accepted) == 0 {
		return []types.ScoredChunk{}, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
	qVec, err := r.embedder.Embed(callCtx, question)
	cancel()
	if err != nil {
		return nil, &UnavailableError{Op: "scoring", Err: fmt.Errorf("embedding question: %w", err)}
	}

	scored := make([]types.ScoredChunk, 0, len(accepted))
	for _, c := range accepted {
		cVec := c.Embedding
		if len(cVec) == 0 {
			callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
			cVec, err = r.embedder.Embed(callCtx, c.Content)
			cancel()
			if err != nil {
				return nil, &UnavailableError{Op: "scoring", Err: fmt.Errorf("embedding chunk: %w", err)}
			}
		}

		sim, err := Cosine(qVec, cVec)
		if err != nil {
			if errors.Is(err, ErrDegenerateVector) {
				fmt.Fprintf(r.w, "warning: excluding chunk with degenerate embedding (%s)\n", c.Source.Title)
				continue
			}
			fmt.Fprintf(r.w, "warning: excluding unscorable chunk: %v\n", err)
			continue
		}

		scored = append(scored, types.ScoredChunk{Chunk: c, RelevanceScore: sim})
	}
	return scored, nil
}
