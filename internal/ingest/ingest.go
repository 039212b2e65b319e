// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ingest builds the evidence index from a resources directory:
// read, chunk, embed, upsert. It is the offline producer half of the
// retrieval pipeline and must use the same embedding model the
// retriever queries with.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/pdiddy/essay-engine/internal/embed"
	"github.com/pdiddy/essay-engine/internal/index"
	"github.com/pdiddy/essay-engine/pkg/types"
)

var errUnsupported = errors.New("unsupported file type")

// BatchSummary holds counts from an ingestion run.
type BatchSummary struct {
	Ingested int
	Skipped  int
	Failed   int
}

// Total returns the number of files considered.
func (s BatchSummary) Total() int {
	return s.Ingested + s.Skipped + s.Failed
}

// HasFailures reports whether any files failed.
func (s BatchSummary) HasFailures() bool {
	return s.Failed > 0
}

// Ingestor chunks and embeds source documents into the index.
type Ingestor struct {
	embedder embed.Embedder
	idx      index.Index

	resourcesDir  string
	chunkSize     int
	overlapPct    float64
	maxConcurrent int
	w             io.Writer
}

// NewIngestor wires an ingestion run. Progress lines go to w.
func NewIngestor(embedder embed.Embedder, idx index.Index, cfg types.IngestConfig, w io.Writer) *Ingestor {
	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 256
	}
	overlapPct := cfg.OverlapPct
	if overlapPct <= 0 || overlapPct >= 1 {
		overlapPct = 0.1
	}
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 3
	}
	if w == nil {
		w = io.Discard
	}
	return &Ingestor{
		embedder:      embedder,
		idx:           idx,
		resourcesDir:  cfg.ResourcesDir,
		chunkSize:     chunkSize,
		overlapPct:    overlapPct,
		maxConcurrent: maxConcurrent,
		w:             w,
	}
}

// IngestAll processes every file in the resources directory. One bad
// file fails alone; the run continues and the summary reports it.
func (ing *Ingestor) IngestAll(ctx context.Context) (BatchSummary, error) {
	entries, err := os.ReadDir(ing.resourcesDir)
	if err != nil {
		return BatchSummary{}, fmt.Errorf("reading resources directory %s: %w", ing.resourcesDir, err)
	}

	var summary BatchSummary
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		path := filepath.Join(ing.resourcesDir, name)

		n, err := ing.IngestFile(ctx, path)
		switch {
		case errors.Is(err, errUnsupported):
			fmt.Fprintf(ing.w, "skipped %s\n", name)
			summary.Skipped++
		case err != nil:
			fmt.Fprintf(ing.w, "failed  %s: %v\n", name, err)
			summary.Failed++
		default:
			fmt.Fprintf(ing.w, "ingested %s (%d chunks)\n", name, n)
			summary.Ingested++
		}
	}
	return summary, nil
}

// IngestFile chunks, embeds, and indexes a single document, returning
// the number of chunks stored. Embedding fans out up to maxConcurrent
// chunks at once; the upsert is a single batch so a partially embedded
// file never reaches the index.
func (ing *Ingestor) IngestFile(ctx context.Context, path string) (int, error) {
	pages, err := readDocument(path)
	if err != nil {
		return 0, err
	}

	title := filepath.Base(path)

	type pending struct {
		text string
		page int
	}
	var todo []pending
	for _, p := range pages {
		for _, piece := range Chunk(p.Text, ing.chunkSize, ing.overlapPct) {
			todo = append(todo, pending{text: piece, page: p.Number})
		}
	}
	if len(todo) == 0 {
		return 0, fmt.Errorf("no text in %s", title)
	}

	entries := make([]index.Entry, len(todo))
	errs := make([]error, len(todo))

	var wg sync.WaitGroup
	sem := make(chan struct{}, ing.maxConcurrent)

	for i, p := range todo {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(i int, p pending) {
			defer wg.Done()
			defer func() { <-sem }()

			vec, err := ing.embedder.Embed(ctx, p.text)
			if err != nil {
				errs[i] = fmt.Errorf("embedding chunk %d: %w", i, err)
				return
			}
			entries[i] = index.Entry{
				ID:     uuid.NewString(),
				Vector: vec,
				Text:   p.text,
				Title:  title,
				Page:   p.page,
			}
		}(i, p)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return 0, err
		}
	}

	if err := ing.idx.UpsertBatch(ctx, entries); err != nil {
		return 0, fmt.Errorf("indexing %s: %w", title, err)
	}
	return len(entries), nil
}
