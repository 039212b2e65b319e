// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvector "github.com/pgvector/pgvector-go/pgx"

	"github.com/pdiddy/essay-engine/pkg/types"
)

// Pgvector is the Postgres index backend. Vectors live in a pgvector
// column; queries use the cosine-distance operator with an ivfflat index.
type Pgvector struct {
	pool       *pgxpool.Pool
	collection string
	dimension  int
}

// NewPgvector connects to Postgres, verifies the connection, and ensures
// the extension, collection table, and vector index exist.
func NewPgvector(ctx context.Context, cfg types.IndexConfig, collection string) (*Pgvector, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("pgvector index requires a database URL")
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("pgvector index requires a dimension")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	p := &Pgvector{pool: pool, collection: collection, dimension: cfg.Dimension}
	if err := p.createSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return p, nil
}

func (p *Pgvector) createSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("creating vector extension: %w", err)
	}

	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		content TEXT NOT NULL,
		title TEXT,
		page INTEGER,
		embedding vector(%d) NOT NULL
	)`, p.collection, p.dimension)
	if _, err := p.pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("creating collection table: %w", err)
	}

	idx := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_embedding_idx ON %s
		USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)`,
		p.collection, p.collection)
	if _, err := p.pool.Exec(ctx, idx); err != nil {
		return fmt.Errorf("creating vector index: %w", err)
	}

	return nil
}

// Close releases the connection pool.
func (p *Pgvector) Close() error {
	p.pool.Close()
	return nil
}

// Upsert stores a single entry, replacing any previous entry with the
// same ID.
func (p *Pgvector) Upsert(ctx context.Context, entry Entry) error {
	if err := p.checkDimension(entry); err != nil {
		return err
	}

	stmt := fmt.Sprintf(`INSERT INTO %s (id, content, title, page, embedding)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			title = EXCLUDED.title,
			page = EXCLUDED.page,
			embedding = EXCLUDED.embedding`, p.collection)

	if _, err := p.pool.Exec(ctx, stmt,
		entry.ID, entry.Text, entry.Title, entry.Page, toVector(entry.Vector)); err != nil {
		return fmt.Errorf("upserting entry %s: %w", entry.ID, err)
	}
	return nil
}

// UpsertBatch stores entries in a single transaction.
func (p *Pgvector) UpsertBatch(ctx context.Context, entries []Entry) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	stmt := fmt.Sprintf(`INSERT INTO %s (id, content, title, page, embedding)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			title = EXCLUDED.title,
			page = EXCLUDED.page,
			embedding = EXCLUDED.embedding`, p.collection)

	for _, entry := range entries {
		if err := p.checkDimension(entry); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, stmt,
			entry.ID, entry.Text, entry.Title, entry.Page, toVector(entry.Vector)); err != nil {
			return fmt.Errorf("upserting entry %s: %w", entry.ID, err)
		}
	}

	return tx.Commit(ctx)
}

func (p *Pgvector) checkDimension(entry Entry) error {
	if len(entry.Vector) != p.dimension {
		return fmt.Errorf("entry %s has dimension %d, index expects %d",
			entry.ID, len(entry.Vector), p.dimension)
	}
	return nil
}

// Query returns the k chunks nearest vector by cosine distance, most
// similar first. Returned chunks carry their stored embeddings.
func (p *Pgvector) Query(ctx context.Context, vector []float64, k int) ([]types.EvidenceChunk, error) {
	if k <= 0 {
		k = 5
	}

	stmt := fmt.Sprintf(`SELECT content, title, page, embedding
		FROM %s
		ORDER BY embedding <=> $1
		LIMIT $2`, p.collection)

	rows, err := p.pool.Query(ctx, stmt, toVector(vector), k)
	if err != nil {
		return nil, fmt.Errorf("querying collection %s: %w", p.collection, err)
	}
	defer rows.Close()

	var chunks []types.EvidenceChunk
	for rows.Next() {
		var (
			content, title string
			page           int
			emb            pgvector.Vector
		)
		if err := rows.Scan(&content, &title, &page, &emb); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		chunks = append(chunks, types.EvidenceChunk{
			Content:   content,
			Source:    types.SourceMeta{Title: title, Page: page},
			Embedding: fromVector(emb),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	return chunks, nil
}

// toVector converts to pgvector's float32 representation.
func toVector(v []float64) pgvector.Vector {
	f := make([]float32, len(v))
	for i, x := range v {
		f[i] = float32(x)
	}
	return pgvector.NewVector(f)
}

func fromVector(v pgvector.Vector) []float64 {
	s := v.Slice()
	f := make([]float64, len(s))
	for i, x := range s {
		f[i] = float64(x)
	}
	return f
}
