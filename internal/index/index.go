// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package index persists embedded evidence chunks and answers top-k
// nearest-neighbour queries over them.
package index

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/essay-engine/pkg/types"
)

// Entry is one chunk prepared for indexing: vector, text, and provenance.
type Entry struct {
	ID     string
	Vector []float64
	Text   string
	Title  string
	Page   int
}

// Index stores embedded chunks and returns the k entries nearest a query
// vector, most similar first. Upsert and UpsertBatch are distinct
// operations: one document's single embedding versus a batch, each with
// its own shape, so neither call site can hand the other's payload in.
type Index interface {
	Upsert(ctx context.Context, entry Entry) error
	UpsertBatch(ctx context.Context, entries []Entry) error
	Query(ctx context.Context, vector []float64, k int) ([]types.EvidenceChunk, error)
	Close() error
}

// New constructs the index selected by cfg.Backend. The collection is
// named after the embedding model so indexes built with different models
// can never be queried interchangeably.
func New(cfg types.IndexConfig, embeddingModel string) (Index, error) {
	collection := CollectionName(embeddingModel)
	switch cfg.Backend {
	case "", "sqlite":
		return NewSQLite(cfg, collection)
	case "pgvector":
		return NewPgvector(context.Background(), cfg, collection)
	default:
		return nil, fmt.Errorf("unknown index backend %q", cfg.Backend)
	}
}

// CollectionName derives a table/collection identifier from an embedding
// model name, e.g. "text-embedding-3-small" → "embeddings_text_embedding_3_small".
func CollectionName(model string) string {
	var b strings.Builder
	b.WriteString("embeddings_")
	for _, r := range strings.ToLower(model) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
