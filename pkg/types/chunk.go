// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// SourceMeta records where an evidence chunk came from.
type SourceMeta struct {
	// Title is the source document title (usually the file name).
	Title string `json:"title" yaml:"title"`

	// Page is the 1-based page number within the source, or 0 when the
	// source has no page structure (plain text files).
	Page int `json:"page,omitempty" yaml:"page,omitempty"`
}

// EvidenceChunk is a bounded span of source text stored in the vector
// index. Chunks are immutable once indexed.
type EvidenceChunk struct {
	// Content is the chunk's text.
	Content string `json:"content" yaml:"content"`

	// Source records the chunk's provenance.
	Source SourceMeta `json:"source" yaml:"source"`

	// Embedding is the chunk's vector, when the index returns it.
	// May be nil for backends that do not ship vectors with results.
	Embedding []float64 `json:"embedding,omitempty" yaml:"embedding,omitempty"`
}

// Identity returns the dedup key for a chunk: content plus source. The
// same passage indexed from the same document counts once no matter how
// many queries retrieve it.
func (c EvidenceChunk) Identity() string {
	return fmt.Sprintf("%s\x00%s\x00%d", c.Content, c.Source.Title, c.Source.Page)
}

// ScoredChunk is an evidence chunk that passed relevance validation,
// paired with its ranking score. Scores only order accepted chunks; they
// never override the validator's accept/reject decision.
type ScoredChunk struct {
	Chunk EvidenceChunk `json:"chunk" yaml:"chunk"`

	// RelevanceScore is the cosine similarity between the question and
	// chunk embeddings, in [-1, 1].
	RelevanceScore float64 `json:"relevance_score" yaml:"relevance_score"`
}
