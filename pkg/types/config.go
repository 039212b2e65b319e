package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "essay-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// AIConfig holds shared settings for stages that call a text-generation API.
type AIConfig struct {
	// Backend selects the generation backend: claude or ollama.
	Backend string `json:"backend" yaml:"backend"`

	// Model is the model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Temperature controls sampling randomness (default 0.7 for prose
	// generation, 0 for classification calls).
	Temperature float64 `json:"temperature" yaml:"temperature"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// EmbeddingConfig holds settings for the embedding client. The model
// here must match the model the index was built with; the index
// collection name encodes it so a mismatch fails loudly instead of
// returning cross-space similarities.
type EmbeddingConfig struct {
	HTTPConfig `yaml:",inline"`

	// Backend selects the embedding backend: openai or ollama.
	Backend string `json:"backend" yaml:"backend"`

	// Model is the embedding model identifier (e.g. "text-embedding-3-small").
	Model string `json:"model" yaml:"model"`

	// APIKey authenticates against the embedding API (openai backend).
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL overrides the API endpoint (openai backend) or the Ollama
	// host (ollama backend). Empty uses the backend default.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
}

// IndexConfig holds settings for the vector index.
type IndexConfig struct {
	// Backend selects the index backend: sqlite or pgvector.
	Backend string `json:"backend" yaml:"backend"`

	// Path is the SQLite database path (sqlite backend).
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// DatabaseURL is the Postgres connection string (pgvector backend).
	DatabaseURL string `json:"database_url,omitempty" yaml:"database_url,omitempty"`

	// Dimension is the embedding dimensionality the index enforces.
	Dimension int `json:"dimension" yaml:"dimension"`
}

// RetrievalConfig holds settings for the retrieval pipeline.
type RetrievalConfig struct {
	// TopK is the number of nearest neighbours fetched per expanded
	// query (default 5).
	TopK int `json:"top_k" yaml:"top_k"`

	// MaxConcurrent bounds fan-out within one retrieval call: parallel
	// index lookups and parallel validation calls (default 3).
	MaxConcurrent int `json:"max_concurrent" yaml:"max_concurrent"`

	// CallTimeout bounds each external call made by the pipeline:
	// expansion, embedding, index query, validation (default 30s).
	CallTimeout time.Duration `json:"call_timeout" yaml:"call_timeout"`
}

// IngestConfig holds settings for corpus ingestion.
type IngestConfig struct {
	// ResourcesDir is the directory of source documents (.txt, .md, .pdf).
	ResourcesDir string `json:"resources_dir" yaml:"resources_dir"`

	// ChunkSize is the maximum chunk length in characters (default 1024).
	ChunkSize int `json:"chunk_size" yaml:"chunk_size"`

	// OverlapPct is the fraction of a chunk repeated at the start of the
	// next chunk, in [0, 1) (default 0.1).
	OverlapPct float64 `json:"overlap_pct" yaml:"overlap_pct"`

	// MaxConcurrent bounds parallel embedding calls (default 3).
	MaxConcurrent int `json:"max_concurrent" yaml:"max_concurrent"`
}

// EssayConfig holds settings for essay generation.
type EssayConfig struct {
	AIConfig `yaml:",inline"`

	// MaxConcurrent bounds how many sub-question pipelines run at once
	// (default 2). Each pipeline is independent: retrieval plus one
	// paragraph generation.
	MaxConcurrent int `json:"max_concurrent" yaml:"max_concurrent"`

	// OutputPath, when set, receives the essay artifact as YAML.
	OutputPath string `json:"output_path,omitempty" yaml:"output_path,omitempty"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Embedding EmbeddingConfig `json:"embedding" yaml:"embedding"`
	Index     IndexConfig     `json:"index" yaml:"index"`
	Retrieval RetrievalConfig `json:"retrieval" yaml:"retrieval"`
	Ingest    IngestConfig    `json:"ingest" yaml:"ingest"`
	Essay     EssayConfig     `json:"essay" yaml:"essay"`
}
