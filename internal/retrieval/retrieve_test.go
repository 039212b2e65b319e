// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieval

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pdiddy/essay-engine/internal/index"
	"github.com/pdiddy/essay-engine/pkg/types"
)

type mockExpander struct {
	queries []string
	err     error
}

func (m *mockExpander) Expand(_ context.Context, _ string) ([]string, error) {
	return m.queries, m.err
}

type validatorFunc func(question, chunkText string) (bool, error)

func (f validatorFunc) Validate(_ context.Context, question, chunkText string) (bool, error) {
	return f(question, chunkText)
}

func acceptAll(string, string) (bool, error) { return true, nil }

// mockEmbedder returns a fixed vector per known text and a default for
// everything else, recording the texts it was asked to embed.
type mockEmbedder struct {
	mu     sync.Mutex
	vecs   map[string][]float64
	def    []float64
	errFor map[string]bool
	calls  []string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	m.mu.Lock()
	m.calls = append(m.calls, text)
	m.mu.Unlock()
	if m.errFor[text] {
		return nil, fmt.Errorf("embedder down")
	}
	if v, ok := m.vecs[text]; ok {
		return v, nil
	}
	if m.def != nil {
		return m.def, nil
	}
	return []float64{1, 0}, nil
}

func (m *mockEmbedder) Model() string { return "mock-embedding" }

// mockIndex answers every query with the same candidate set, or, when
// byKey is set, selects the set by the first vector component.
type mockIndex struct {
	chunks []types.EvidenceChunk
	byKey  map[float64][]types.EvidenceChunk
	err    error
}

func (m *mockIndex) Upsert(context.Context, index.Entry) error        { return nil }
func (m *mockIndex) UpsertBatch(context.Context, []index.Entry) error { return nil }
func (m *mockIndex) Close() error                                     { return nil }

func (m *mockIndex) Query(_ context.Context, vector []float64, k int) ([]types.EvidenceChunk, error) {
	if m.err != nil {
		return nil, m.err
	}
	chunks := m.chunks
	if m.byKey != nil {
		chunks = m.byKey[vector[0]]
	}
	if len(chunks) > k {
		chunks = chunks[:k]
	}
	return chunks, nil
}

func evidence(content, title string, page int, emb ...float64) types.EvidenceChunk {
	return types.EvidenceChunk{
		Content:   content,
		Source:    types.SourceMeta{Title: title, Page: page},
		Embedding: emb,
	}
}

func newTestRetriever(ex QueryExpander, v RelevanceValidator, em *mockEmbedder, ix *mockIndex, w io.Writer) *Retriever {
	cfg := types.RetrievalConfig{TopK: 5, MaxConcurrent: 2, CallTimeout: time.Second}
	return NewRetriever(ex, v, em, ix, cfg, w)
}

func TestRetrieveRanksValidatedChunks(t *testing.T) {
	question := "How does McDonaldization manifest in everyday consumer behavior?"

	chunkA := evidence("Ritzer describes efficiency as the first dimension of McDonaldization.", "The McDonaldization of Society", 12, 1, 0)
	chunkB := evidence("The restaurant opened its first franchise in 1955.", "Fast Food Nation", 3, 0.9, 0.1)
	chunkC := evidence("Calculability privileges quantity over quality in consumer choices.", "The McDonaldization of Society", 47, 1, 1)

	em := &mockEmbedder{vecs: map[string][]float64{question: {1, 0}}}
	ix := &mockIndex{chunks: []types.EvidenceChunk{chunkA, chunkB, chunkC}}
	v := validatorFunc(func(_, chunkText string) (bool, error) {
		return chunkText != chunkB.Content, nil
	})
	r := newTestRetriever(&mockExpander{queries: []string{"q1", "q2"}}, v, em, ix, nil)

	got, err := r.Retrieve(context.Background(), question, 5)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("got %d chunks, want 2: %+v", len(got), got)
	}
	if got[0].Chunk.Content != chunkA.Content {
		t.Errorf("got[0] = %q, want chunk A first", got[0].Chunk.Content)
	}
	if got[1].Chunk.Content != chunkC.Content {
		t.Errorf("got[1] = %q, want chunk C second", got[1].Chunk.Content)
	}
	for _, sc := range got {
		if sc.Chunk.Content == chunkB.Content {
			t.Error("rejected chunk B present in results")
		}
	}
	if got[0].RelevanceScore < got[1].RelevanceScore {
		t.Errorf("scores not descending: %v then %v", got[0].RelevanceScore, got[1].RelevanceScore)
	}
}

func TestRetrieveDeduplicates(t *testing.T) {
	dup := evidence("shared passage", "Book", 1, 1, 0)
	em := &mockEmbedder{
		vecs: map[string][]float64{"q1": {1, 0}, "q2": {2, 0}},
	}
	ix := &mockIndex{byKey: map[float64][]types.EvidenceChunk{
		1: {dup, evidence("only in q1", "Book", 2, 1, 0)},
		2: {dup, evidence("only in q2", "Book", 3, 1, 0)},
	}}
	r := newTestRetriever(&mockExpander{queries: []string{"q1", "q2"}}, validatorFunc(acceptAll), em, ix, nil)

	got, err := r.Retrieve(context.Background(), "question", 5)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}

	count := 0
	for _, sc := range got {
		if sc.Chunk.Content == dup.Content {
			count++
		}
	}
	if count != 1 {
		t.Errorf("duplicate chunk appears %d times, want 1", count)
	}
	if len(got) != 3 {
		t.Errorf("got %d chunks, want 3", len(got))
	}
}

func TestRetrieveStableTieOrder(t *testing.T) {
	// All candidates score identically; ranking must keep their
	// first-encountered order.
	chunks := []types.EvidenceChunk{
		evidence("first", "Book", 1, 1, 0),
		evidence("second", "Book", 2, 1, 0),
		evidence("third", "Book", 3, 1, 0),
	}
	em := &mockEmbedder{}
	ix := &mockIndex{chunks: chunks}
	r := newTestRetriever(&mockExpander{queries: []string{"q"}}, validatorFunc(acceptAll), em, ix, nil)

	got, err := r.Retrieve(context.Background(), "question", 5)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d chunks, want 3", len(got))
	}
	for i, want := range []string{"first", "second", "third"} {
		if got[i].Chunk.Content != want {
			t.Errorf("got[%d] = %q, want %q", i, got[i].Chunk.Content, want)
		}
	}
}

func TestRetrieveIdempotent(t *testing.T) {
	chunks := []types.EvidenceChunk{
		evidence("alpha", "Book", 1, 1, 0),
		evidence("beta", "Book", 2, 1, 1),
	}
	em := &mockEmbedder{}
	ix := &mockIndex{chunks: chunks}
	r := newTestRetriever(&mockExpander{queries: []string{"q1", "q2"}}, validatorFunc(acceptAll), em, ix, nil)

	first, err := r.Retrieve(context.Background(), "question", 5)
	if err != nil {
		t.Fatalf("first Retrieve: %v", err)
	}
	second, err := r.Retrieve(context.Background(), "question", 5)
	if err != nil {
		t.Fatalf("second Retrieve: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("result sizes differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Chunk.Content != second[i].Chunk.Content {
			t.Errorf("result[%d] differs: %q vs %q", i, first[i].Chunk.Content, second[i].Chunk.Content)
		}
		if first[i].RelevanceScore != second[i].RelevanceScore {
			t.Errorf("score[%d] differs: %v vs %v", i, first[i].RelevanceScore, second[i].RelevanceScore)
		}
	}
}

func TestRetrieveExpansionFallback(t *testing.T) {
	var buf bytes.Buffer
	em := &mockEmbedder{}
	ix := &mockIndex{chunks: []types.EvidenceChunk{evidence("passage", "Book", 1, 1, 0)}}
	r := newTestRetriever(&mockExpander{err: fmt.Errorf("expansion model down")}, validatorFunc(acceptAll), em, ix, &buf)

	got, err := r.Retrieve(context.Background(), "the original question", 5)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d chunks, want 1", len(got))
	}

	// The original question must have been used as the lookup query.
	found := false
	for _, c := range em.calls {
		if c == "the original question" {
			found = true
		}
	}
	if !found {
		t.Errorf("original question never embedded; calls: %v", em.calls)
	}
	if !strings.Contains(buf.String(), "query expansion failed") {
		t.Errorf("missing fallback warning, got %q", buf.String())
	}
}

func TestRetrieveEmptyExpansionFallsBack(t *testing.T) {
	em := &mockEmbedder{}
	ix := &mockIndex{chunks: []types.EvidenceChunk{evidence("passage", "Book", 1, 1, 0)}}
	r := newTestRetriever(&mockExpander{queries: nil}, validatorFunc(acceptAll), em, ix, nil)

	got, err := r.Retrieve(context.Background(), "question", 5)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d chunks, want 1", len(got))
	}
}

func TestRetrieveIndexUnavailable(t *testing.T) {
	em := &mockEmbedder{}
	ix := &mockIndex{err: fmt.Errorf("connection refused")}
	r := newTestRetriever(&mockExpander{queries: []string{"q"}}, validatorFunc(acceptAll), em, ix, nil)

	_, err := r.Retrieve(context.Background(), "question", 5)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var ue *UnavailableError
	if !errors.As(err, &ue) {
		t.Fatalf("err = %T (%v), want *UnavailableError", err, err)
	}
	if ue.Op != "lookup" {
		t.Errorf("Op = %q, want %q", ue.Op, "lookup")
	}
}

func TestRetrieveQueryEmbedderUnavailable(t *testing.T) {
	em := &mockEmbedder{errFor: map[string]bool{"q": true}}
	ix := &mockIndex{chunks: []types.EvidenceChunk{evidence("passage", "Book", 1, 1, 0)}}
	r := newTestRetriever(&mockExpander{queries: []string{"q"}}, validatorFunc(acceptAll), em, ix, nil)

	_, err := r.Retrieve(context.Background(), "question", 5)
	var ue *UnavailableError
	if !errors.As(err, &ue) {
		t.Fatalf("err = %T (%v), want *UnavailableError", err, err)
	}
}

func TestRetrieveScoringEmbedderUnavailable(t *testing.T) {
	// The chunk carries no stored embedding, forcing a re-embed that
	// fails after validation already accepted it.
	em := &mockEmbedder{errFor: map[string]bool{"orphan passage": true}}
	ix := &mockIndex{chunks: []types.EvidenceChunk{evidence("orphan passage", "Book", 1)}}
	r := newTestRetriever(&mockExpander{queries: []string{"q"}}, validatorFunc(acceptAll), em, ix, nil)

	_, err := r.Retrieve(context.Background(), "question", 5)
	var ue *UnavailableError
	if !errors.As(err, &ue) {
		t.Fatalf("err = %T (%v), want *UnavailableError", err, err)
	}
	if ue.Op != "scoring" {
		t.Errorf("Op = %q, want %q", ue.Op, "scoring")
	}
}

func TestRetrieveValidationErrorRejectsOnlyThatChunk(t *testing.T) {
	var buf bytes.Buffer
	chunks := []types.EvidenceChunk{
		evidence("good passage", "Book", 1, 1, 0),
		evidence("cursed passage", "Book", 2, 1, 0),
	}
	em := &mockEmbedder{}
	ix := &mockIndex{chunks: chunks}
	v := validatorFunc(func(_, chunkText string) (bool, error) {
		if chunkText == "cursed passage" {
			return false, fmt.Errorf("validation call timed out")
		}
		return true, nil
	})
	r := newTestRetriever(&mockExpander{queries: []string{"q"}}, v, em, ix, &buf)

	got, err := r.Retrieve(context.Background(), "question", 5)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 1 || got[0].Chunk.Content != "good passage" {
		t.Fatalf("got %+v, want only the good passage", got)
	}
	if !strings.Contains(buf.String(), "validation failed") {
		t.Errorf("missing fail-closed warning, got %q", buf.String())
	}
}

func TestRetrieveExcludesDegenerateVectors(t *testing.T) {
	var buf bytes.Buffer
	chunks := []types.EvidenceChunk{
		evidence("sound passage", "Book", 1, 1, 0),
		evidence("zero passage", "Book", 2, 0, 0),
	}
	em := &mockEmbedder{}
	ix := &mockIndex{chunks: chunks}
	r := newTestRetriever(&mockExpander{queries: []string{"q"}}, validatorFunc(acceptAll), em, ix, &buf)

	got, err := r.Retrieve(context.Background(), "question", 5)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 1 || got[0].Chunk.Content != "sound passage" {
		t.Fatalf("got %+v, want only the sound passage", got)
	}
	if !strings.Contains(buf.String(), "degenerate") {
		t.Errorf("missing exclusion warning, got %q", buf.String())
	}
}

func TestRetrieveAllRejected(t *testing.T) {
	em := &mockEmbedder{}
	ix := &mockIndex{chunks: []types.EvidenceChunk{evidence("passage", "Book", 1, 1, 0)}}
	v := validatorFunc(func(string, string) (bool, error) { return false, nil })
	r := newTestRetriever(&mockExpander{queries: []string{"q"}}, v, em, ix, nil)

	got, err := r.Retrieve(context.Background(), "question", 5)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d chunks, want 0", len(got))
	}
}

func TestRetrieveCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	em := &mockEmbedder{}
	ix := &mockIndex{chunks: []types.EvidenceChunk{evidence("passage", "Book", 1, 1, 0)}}
	r := newTestRetriever(&mockExpander{queries: []string{"q"}}, validatorFunc(acceptAll), em, ix, nil)

	if _, err := r.Retrieve(ctx, "question", 5); err == nil {
		t.Error("expected error for cancelled context")
	}
}
