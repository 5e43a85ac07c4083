package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound signals that the requested record does not exist.
var ErrNotFound = errors.New("record not found")

// FileType values for FileTreeEntry.Type.
const (
	TypeFile   = "file"
	TypeFolder = "folder"
)

// Project groups every page crawled from one root URL.
type Project struct {
	ID        string    `json:"id"`
	Value     string    `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// FileTreeEntry is one page in a project's navigation tree.
type FileTreeEntry struct {
	ID         string `json:"id"`
	ProjectID  string `json:"project_id"`
	ResourceID string `json:"resource_id"`
	Domain     string `json:"domain"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Path       string `json:"path"`
	// Parent is the directory of Path, nil for top-level pages.
	Parent    *string   `json:"parent"`
	SortOrder int       `json:"sort_order"`
	Timestamp time.Time `json:"timestamp"`
}

// TranslationEntry holds the enrichment of one page in one language.
type TranslationEntry struct {
	ID           string    `json:"id"`
	ResourceID   string    `json:"resource_id"`
	Title        string    `json:"title"`
	Summary      string    `json:"summary"`
	Description  string    `json:"description"`
	Text         string    `json:"text"`
	OriginalText string    `json:"original_text"`
	Language     string    `json:"language"`
	Keywords     string    `json:"keywords"`
	Timestamp    time.Time `json:"timestamp"`
}

// Store persists pipeline records. Upserts are keyed so that concurrent
// writers for different pages never conflict.
type Store interface {
	// EnsureSchema creates the tables when they are missing.
	EnsureSchema(ctx context.Context) error
	// GetOrCreateProject returns the project whose Value matches candidate,
	// inserting candidate when none exists.
	GetOrCreateProject(ctx context.Context, candidate Project) (Project, error)
	// GetProject loads one project by ID or returns ErrNotFound.
	GetProject(ctx context.Context, id string) (Project, error)
	// ListProjects returns all projects, newest first.
	ListProjects(ctx context.Context) ([]Project, error)
	// UpsertFileTree inserts or replaces the row for (ProjectID, ResourceID).
	UpsertFileTree(ctx context.Context, entry FileTreeEntry) error
	// ListFileTrees returns a project's rows ordered by SortOrder.
	ListFileTrees(ctx context.Context, projectID string) ([]FileTreeEntry, error)
	// UpsertTranslation inserts or replaces the row for (ResourceID, Language).
	UpsertTranslation(ctx context.Context, entry TranslationEntry) error
	// GetTranslation loads one translation or returns ErrNotFound.
	GetTranslation(ctx context.Context, resourceID, language string) (TranslationEntry, error)
}
