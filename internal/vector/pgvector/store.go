// Package pgvector implements vector.Store on Postgres with the pgvector
// extension.
package pgvector

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgv "github.com/pgvector/pgvector-go"

	"github.com/JakeFAU/docs-translator/internal/vector"
)

// Querier is the subset of pgxpool.Pool the store needs.
type Querier interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Config sizes the index.
type Config struct {
	Table      string
	Dimensions int
	BatchSize  int
}

func (c Config) withDefaults() Config {
	if c.Table == "" {
		c.Table = "paragraph_vectors"
	}
	if c.Dimensions <= 0 {
		c.Dimensions = vector.DefaultDimensions
	}
	if c.BatchSize <= 0 {
		c.BatchSize = vector.DefaultBatchSize
	}
	return c
}

// Store keeps one row per embedded paragraph.
type Store struct {
	db  Querier
	cfg Config
}

var _ vector.Store = (*Store)(nil)

// New wraps a pool whose connections have the vector types registered.
func New(db Querier, cfg Config) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &Store{db: db, cfg: cfg.withDefaults()}, nil
}

// EnsureSchema implements vector.Store.
func (s *Store) EnsureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`
CREATE EXTENSION IF NOT EXISTS vector;
CREATE TABLE IF NOT EXISTS %[1]s (
	id              TEXT PRIMARY KEY,
	project_id      TEXT NOT NULL,
	resource_id     TEXT NOT NULL,
	paragraph_index INTEGER NOT NULL,
	embedding       vector(%[2]d) NOT NULL,
	original_text   TEXT NOT NULL,
	language        TEXT NOT NULL,
	timestamp       TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS %[1]s_resource_idx ON %[1]s (project_id, resource_id);
CREATE INDEX IF NOT EXISTS %[1]s_embedding_idx ON %[1]s USING hnsw (embedding vector_cosine_ops);`,
		s.cfg.Table, s.cfg.Dimensions)
	if _, err := s.db.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create vector schema: %w", err)
	}
	return nil
}

// Upsert implements vector.Store. Each batch commits in its own
// transaction; a failed batch leaves earlier batches in place.
func (s *Store) Upsert(ctx context.Context, points []vector.Point) error {
	if err := vector.CheckDimensions(points, s.cfg.Dimensions); err != nil {
		return err
	}
	for i, batch := range vector.Batches(points, s.cfg.BatchSize) {
		if err := s.upsertBatch(ctx, batch); err != nil {
			return fmt.Errorf("upsert batch %d: %w", i, err)
		}
	}
	return nil
}

func (s *Store) upsertBatch(ctx context.Context, points []vector.Point) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := fmt.Sprintf(`
INSERT INTO %s (id, project_id, resource_id, paragraph_index, embedding, original_text, language, timestamp)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE SET
	embedding = EXCLUDED.embedding,
	original_text = EXCLUDED.original_text,
	language = EXCLUDED.language,
	timestamp = EXCLUDED.timestamp`, s.cfg.Table)
	for _, p := range points {
		if _, err := tx.Exec(ctx, query,
			p.ID, p.ProjectID, p.ResourceID, p.ParagraphIndex,
			pgv.NewVector(p.Vector), p.OriginalText, p.Language, p.Timestamp,
		); err != nil {
			return fmt.Errorf("insert point %s: %w", p.ID, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// DeleteByResource implements vector.Store.
func (s *Store) DeleteByResource(ctx context.Context, projectID, resourceID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE project_id = $1 AND resource_id = $2`, s.cfg.Table)
	if _, err := s.db.Exec(ctx, query, projectID, resourceID); err != nil {
		return fmt.Errorf("delete vectors for %s: %w", resourceID, err)
	}
	return nil
}

// Search implements vector.Store using cosine distance.
func (s *Store) Search(ctx context.Context, q []float32, projectID string, topK int) ([]vector.SearchResult, error) {
	if len(q) != s.cfg.Dimensions {
		return nil, fmt.Errorf("query has %d dimensions, want %d", len(q), s.cfg.Dimensions)
	}
	if topK <= 0 {
		topK = vector.DefaultTopK
	}
	query := fmt.Sprintf(`
SELECT id, project_id, resource_id, paragraph_index, original_text, language, timestamp,
	1 - (embedding <=> $1) AS score
FROM %s
WHERE project_id = $2
ORDER BY embedding <=> $1
LIMIT $3`, s.cfg.Table)
	rows, err := s.db.Query(ctx, query, pgv.NewVector(q), projectID, topK)
	if err != nil {
		return nil, fmt.Errorf("search vectors: %w", err)
	}
	defer rows.Close()

	var out []vector.SearchResult
	for rows.Next() {
		var r vector.SearchResult
		if err := rows.Scan(&r.ID, &r.ProjectID, &r.ResourceID, &r.ParagraphIndex,
			&r.OriginalText, &r.Language, &r.Timestamp, &r.Score); err != nil {
			return nil, fmt.Errorf("scan search result: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
