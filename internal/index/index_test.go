// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/pdiddy/essay-engine/pkg/types"
)

func TestCollectionName(t *testing.T) {
	tests := []struct {
		model string
		want  string
	}{
		{"text-embedding-3-small", "embeddings_text_embedding_3_small"},
		{"nomic-embed-text", "embeddings_nomic_embed_text"},
		{"Model.V2", "embeddings_model_v2"},
		{"", "embeddings_"},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			if got := CollectionName(tt.model); got != tt.want {
				t.Errorf("CollectionName(%q) = %q, want %q", tt.model, got, tt.want)
			}
		})
	}
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 1.0},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0.0},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, -1.0},
		{"zero norm", []float64{0, 0}, []float64{1, 2}, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cosine(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("cosine = %f, want %f", got, tt.want)
			}
		})
	}
}

func newTestIndex(t *testing.T) *SQLite {
	t.Helper()
	cfg := types.IndexConfig{
		Backend:   "sqlite",
		Path:      filepath.Join(t.TempDir(), "index.db"),
		Dimension: 3,
	}
	s, err := NewSQLite(cfg, CollectionName("test-model"))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteUpsertAndQuery(t *testing.T) {
	ctx := context.Background()
	s := newTestIndex(t)

	entries := []Entry{
		{ID: "a", Vector: []float64{1, 0, 0}, Text: "chunk about rationalization", Title: "ritzer.txt", Page: 1},
		{ID: "b", Vector: []float64{0, 1, 0}, Text: "chunk about efficiency", Title: "ritzer.txt", Page: 2},
		{ID: "c", Vector: []float64{0.9, 0.1, 0}, Text: "chunk about predictability", Title: "weber.txt"},
	}
	if err := s.UpsertBatch(ctx, entries); err != nil {
		t.Fatalf("UpsertBatch: %v", err)
	}

	chunks, err := s.Query(ctx, []float64{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}

	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if chunks[0].Content != "chunk about rationalization" {
		t.Errorf("nearest chunk = %q", chunks[0].Content)
	}
	if chunks[1].Content != "chunk about predictability" {
		t.Errorf("second chunk = %q", chunks[1].Content)
	}
	if chunks[0].Source.Title != "ritzer.txt" || chunks[0].Source.Page != 1 {
		t.Errorf("source = %+v", chunks[0].Source)
	}
	if len(chunks[0].Embedding) != 3 {
		t.Errorf("stored embedding not returned: %v", chunks[0].Embedding)
	}
}

func TestSQLiteUpsertReplacesByID(t *testing.T) {
	ctx := context.Background()
	s := newTestIndex(t)

	if err := s.Upsert(ctx, Entry{ID: "a", Vector: []float64{1, 0, 0}, Text: "old"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := s.Upsert(ctx, Entry{ID: "a", Vector: []float64{1, 0, 0}, Text: "new"}); err != nil {
		t.Fatalf("Upsert replace: %v", err)
	}

	chunks, err := s.Query(ctx, []float64{1, 0, 0}, 10)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0].Content != "new" {
		t.Errorf("content = %q, want %q", chunks[0].Content, "new")
	}
}

func TestSQLiteDimensionCheck(t *testing.T) {
	ctx := context.Background()
	s := newTestIndex(t)

	err := s.Upsert(ctx, Entry{ID: "bad", Vector: []float64{1, 0}, Text: "wrong dimension"})
	if err == nil {
		t.Error("expected dimension error, got nil")
	}

	err = s.Upsert(ctx, Entry{ID: "empty", Vector: nil, Text: "no vector"})
	if err == nil {
		t.Error("expected empty-vector error, got nil")
	}
}

func TestSQLiteQueryEmptyCollection(t *testing.T) {
	s := newTestIndex(t)

	chunks, err := s.Query(context.Background(), []float64{1, 0, 0}, 5)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("got %d chunks from empty collection", len(chunks))
	}
}

func TestNewUnknownBackend(t *testing.T) {
	_, err := New(types.IndexConfig{Backend: "faiss"}, "m")
	if err == nil {
		t.Error("expected error for unknown backend")
	}
}
