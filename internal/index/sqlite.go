// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/essay-engine/pkg/types"
)

// SQLite is the local index backend: embeddings persisted in a SQLite
// table, nearest-neighbour queries answered by a brute-force cosine scan.
// Adequate for the corpus sizes a single essay draws on.
type SQLite struct {
	db         *sql.DB
	collection string
	dimension  int
}

// NewSQLite opens or creates the index database at cfg.Path and ensures
// the collection table exists.
func NewSQLite(cfg types.IndexConfig, collection string) (*SQLite, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite index requires a path")
	}

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating index directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening index database: %w", err)
	}

	s := &SQLite{db: db, collection: collection, dimension: cfg.Dimension}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

func (s *SQLite) createSchema() error {
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		content TEXT NOT NULL,
		title TEXT,
		page INTEGER,
		embedding TEXT NOT NULL
	)`, s.collection)
	if _, err := s.db.Exec(stmt); err != nil {
		return fmt.Errorf("executing schema statement: %w", err)
	}
	return nil
}

// Close releases the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Upsert stores a single entry, replacing any previous entry with the
// same ID.
func (s *SQLite) Upsert(ctx context.Context, entry Entry) error {
	if err := s.checkDimension(entry); err != nil {
		return err
	}

	vec, err := json.Marshal(entry.Vector)
	if err != nil {
		return fmt.Errorf("encoding vector: %w", err)
	}

	stmt := fmt.Sprintf(`INSERT INTO %s (id, content, title, page, embedding)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content = excluded.content,
			title = excluded.title,
			page = excluded.page,
			embedding = excluded.embedding`, s.collection)

	if _, err := s.db.ExecContext(ctx, stmt,
		entry.ID, entry.Text, entry.Title, entry.Page, string(vec)); err != nil {
		return fmt.Errorf("upserting entry %s: %w", entry.ID, err)
	}
	return nil
}

// UpsertBatch stores entries in a single transaction.
func (s *SQLite) UpsertBatch(ctx context.Context, entries []Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt := fmt.Sprintf(`INSERT INTO %s (id, content, title, page, embedding)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content = excluded.content,
			title = excluded.title,
			page = excluded.page,
			embedding = excluded.embedding`, s.collection)

	for _, entry := range entries {
		if err := s.checkDimension(entry); err != nil {
			return err
		}
		vec, err := json.Marshal(entry.Vector)
		if err != nil {
			return fmt.Errorf("encoding vector for %s: %w", entry.ID, err)
		}
		if _, err := tx.ExecContext(ctx, stmt,
			entry.ID, entry.Text, entry.Title, entry.Page, string(vec)); err != nil {
			return fmt.Errorf("upserting entry %s: %w", entry.ID, err)
		}
	}

	return tx.Commit()
}

func (s *SQLite) checkDimension(entry Entry) error {
	if len(entry.Vector) == 0 {
		return fmt.Errorf("entry %s has an empty vector", entry.ID)
	}
	if s.dimension > 0 && len(entry.Vector) != s.dimension {
		return fmt.Errorf("entry %s has dimension %d, index expects %d",
			entry.ID, len(entry.Vector), s.dimension)
	}
	return nil
}

// Query scans the collection and returns the k chunks most similar to
// vector by cosine similarity, most similar first. Returned chunks carry
// their stored embeddings.
func (s *SQLite) Query(ctx context.Context, vector []float64, k int) ([]types.EvidenceChunk, error) {
	if k <= 0 {
		k = 5
	}

	stmt := fmt.Sprintf(`SELECT content, title, page, embedding FROM %s`, s.collection)
	rows, err := s.db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("querying collection %s: %w", s.collection, err)
	}
	defer rows.Close()

	type scored struct {
		chunk types.EvidenceChunk
		sim   float64
	}
	var candidates []scored

	for rows.Next() {
		var (
			content, title string
			page           int
			vecJSON        string
		)
		if err := rows.Scan(&content, &title, &page, &vecJSON); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		var emb []float64
		if err := json.Unmarshal([]byte(vecJSON), &emb); err != nil {
			return nil, fmt.Errorf("decoding stored vector: %w", err)
		}

		candidates = append(candidates, scored{
			chunk: types.EvidenceChunk{
				Content:   content,
				Source:    types.SourceMeta{Title: title, Page: page},
				Embedding: emb,
			},
			sim: cosine(vector, emb),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].sim > candidates[j].sim
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}

	chunks := make([]types.EvidenceChunk, len(candidates))
	for i, c := range candidates {
		chunks[i] = c.chunk
	}
	return chunks, nil
}

// cosine returns dot(a,b)/(‖a‖·‖b‖), or 0 for zero-norm inputs. The
// ranking here is the index's own ordering; the retrieval scorer applies
// its stricter degenerate-vector contract separately.
func cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
