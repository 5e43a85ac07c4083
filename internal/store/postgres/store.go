// Package postgres implements store.Store on Postgres via pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JakeFAU/docs-translator/internal/store"
)

// Querier is the subset of pgxpool.Pool the store needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists projects, file trees and translations.
type Store struct {
	db Querier
}

var _ store.Store = (*Store)(nil)

// New wraps an open pool.
func New(db Querier) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &Store{db: db}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS projects (
	id        TEXT PRIMARY KEY,
	value     TEXT NOT NULL UNIQUE,
	timestamp TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS file_trees (
	id          TEXT PRIMARY KEY,
	project_id  TEXT NOT NULL REFERENCES projects(id),
	resource_id TEXT NOT NULL,
	domain      TEXT NOT NULL,
	name        TEXT NOT NULL,
	type        TEXT NOT NULL CHECK (type IN ('file', 'folder')),
	path        TEXT NOT NULL,
	parent      TEXT,
	sort_order  INTEGER NOT NULL DEFAULT 0,
	timestamp   TIMESTAMPTZ NOT NULL,
	UNIQUE (project_id, resource_id)
);
CREATE TABLE IF NOT EXISTS translations (
	id            TEXT PRIMARY KEY,
	resource_id   TEXT NOT NULL,
	title         TEXT NOT NULL,
	summary       TEXT NOT NULL,
	description   TEXT,
	text          TEXT NOT NULL,
	original_text TEXT NOT NULL,
	language      TEXT NOT NULL,
	keywords      TEXT,
	timestamp     TIMESTAMPTZ NOT NULL,
	UNIQUE (resource_id, language)
);`

// EnsureSchema implements store.Store.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// GetOrCreateProject implements store.Store. The no-op update makes
// RETURNING yield the existing row on conflict.
func (s *Store) GetOrCreateProject(ctx context.Context, candidate store.Project) (store.Project, error) {
	const query = `
INSERT INTO projects (id, value, timestamp)
VALUES ($1, $2, $3)
ON CONFLICT (value) DO UPDATE SET value = EXCLUDED.value
RETURNING id, value, timestamp`
	var p store.Project
	err := s.db.QueryRow(ctx, query, candidate.ID, candidate.Value, candidate.Timestamp).
		Scan(&p.ID, &p.Value, &p.Timestamp)
	if err != nil {
		return store.Project{}, fmt.Errorf("get or create project: %w", err)
	}
	return p, nil
}

// GetProject implements store.Store.
func (s *Store) GetProject(ctx context.Context, id string) (store.Project, error) {
	var p store.Project
	err := s.db.QueryRow(ctx, `SELECT id, value, timestamp FROM projects WHERE id = $1`, id).
		Scan(&p.ID, &p.Value, &p.Timestamp)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.Project{}, store.ErrNotFound
	}
	if err != nil {
		return store.Project{}, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

// ListProjects implements store.Store.
func (s *Store) ListProjects(ctx context.Context) ([]store.Project, error) {
	rows, err := s.db.Query(ctx, `SELECT id, value, timestamp FROM projects ORDER BY timestamp DESC`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var out []store.Project
	for rows.Next() {
		var p store.Project
		if err := rows.Scan(&p.ID, &p.Value, &p.Timestamp); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return out, nil
}

// UpsertFileTree implements store.Store.
func (s *Store) UpsertFileTree(ctx context.Context, e store.FileTreeEntry) error {
	const query = `
INSERT INTO file_trees (id, project_id, resource_id, domain, name, type, path, parent, sort_order, timestamp)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (project_id, resource_id) DO UPDATE SET
	domain = EXCLUDED.domain,
	name = EXCLUDED.name,
	type = EXCLUDED.type,
	path = EXCLUDED.path,
	parent = EXCLUDED.parent,
	sort_order = EXCLUDED.sort_order,
	timestamp = EXCLUDED.timestamp`
	_, err := s.db.Exec(ctx, query,
		e.ID, e.ProjectID, e.ResourceID, e.Domain, e.Name, e.Type, e.Path, e.Parent, e.SortOrder, e.Timestamp)
	if err != nil {
		return fmt.Errorf("upsert file tree %s: %w", e.ResourceID, err)
	}
	return nil
}

// ListFileTrees implements store.Store.
func (s *Store) ListFileTrees(ctx context.Context, projectID string) ([]store.FileTreeEntry, error) {
	const query = `
SELECT id, project_id, resource_id, domain, name, type, path, COALESCE(parent, ''), sort_order, timestamp
FROM file_trees
WHERE project_id = $1
ORDER BY sort_order, resource_id`
	rows, err := s.db.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list file trees: %w", err)
	}
	defer rows.Close()

	var out []store.FileTreeEntry
	for rows.Next() {
		var (
			e      store.FileTreeEntry
			parent string
		)
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.ResourceID, &e.Domain, &e.Name, &e.Type,
			&e.Path, &parent, &e.SortOrder, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan file tree: %w", err)
		}
		if parent != "" {
			e.Parent = &parent
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate file trees: %w", err)
	}
	return out, nil
}

// UpsertTranslation implements store.Store.
func (s *Store) UpsertTranslation(ctx context.Context, e store.TranslationEntry) error {
	const query = `
INSERT INTO translations (id, resource_id, title, summary, description, text, original_text, language, keywords, timestamp)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (resource_id, language) DO UPDATE SET
	title = EXCLUDED.title,
	summary = EXCLUDED.summary,
	description = EXCLUDED.description,
	text = EXCLUDED.text,
	original_text = EXCLUDED.original_text,
	keywords = EXCLUDED.keywords,
	timestamp = EXCLUDED.timestamp`
	_, err := s.db.Exec(ctx, query,
		e.ID, e.ResourceID, e.Title, e.Summary, e.Description, e.Text, e.OriginalText, e.Language, e.Keywords, e.Timestamp)
	if err != nil {
		return fmt.Errorf("upsert translation %s: %w", e.ResourceID, err)
	}
	return nil
}

// GetTranslation implements store.Store.
func (s *Store) GetTranslation(ctx context.Context, resourceID, language string) (store.TranslationEntry, error) {
	const query = `
SELECT id, resource_id, title, summary, COALESCE(description, ''), text, original_text, language, COALESCE(keywords, ''), timestamp
FROM translations
WHERE resource_id = $1 AND language = $2`
	var e store.TranslationEntry
	err := s.db.QueryRow(ctx, query, resourceID, language).Scan(
		&e.ID, &e.ResourceID, &e.Title, &e.Summary, &e.Description, &e.Text,
		&e.OriginalText, &e.Language, &e.Keywords, &e.Timestamp)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.TranslationEntry{}, store.ErrNotFound
	}
	if err != nil {
		return store.TranslationEntry{}, fmt.Errorf("get translation: %w", err)
	}
	return e, nil
}
