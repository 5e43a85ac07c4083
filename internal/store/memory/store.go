// Package memory implements store.Store in process memory for tests and dry
// runs.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/JakeFAU/docs-translator/internal/store"
)

type fileKey struct{ project, resource string }

type translationKey struct{ resource, language string }

// Store keeps records in maps guarded by a mutex.
type Store struct {
	mu           sync.RWMutex
	projects     map[string]store.Project
	fileTrees    map[fileKey]store.FileTreeEntry
	translations map[translationKey]store.TranslationEntry
}

var _ store.Store = (*Store)(nil)

// New returns an empty Store.
func New() *Store {
	return &Store{
		projects:     make(map[string]store.Project),
		fileTrees:    make(map[fileKey]store.FileTreeEntry),
		translations: make(map[translationKey]store.TranslationEntry),
	}
}

// EnsureSchema implements store.Store.
func (s *Store) EnsureSchema(context.Context) error { return nil }

// GetOrCreateProject implements store.Store.
func (s *Store) GetOrCreateProject(_ context.Context, candidate store.Project) (store.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.projects {
		if p.Value == candidate.Value {
			return p, nil
		}
	}
	s.projects[candidate.ID] = candidate
	return candidate, nil
}

// GetProject implements store.Store.
func (s *Store) GetProject(_ context.Context, id string) (store.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return store.Project{}, store.ErrNotFound
	}
	return p, nil
}

// ListProjects implements store.Store.
func (s *Store) ListProjects(context.Context) ([]store.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID < out[j].ID
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

// UpsertFileTree implements store.Store. The first ID written for a key is
// kept, mirroring the conflict update in Postgres.
func (s *Store) UpsertFileTree(_ context.Context, e store.FileTreeEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := fileKey{e.ProjectID, e.ResourceID}
	if prev, ok := s.fileTrees[key]; ok {
		e.ID = prev.ID
	}
	s.fileTrees[key] = e
	return nil
}

// ListFileTrees implements store.Store.
func (s *Store) ListFileTrees(_ context.Context, projectID string) ([]store.FileTreeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []store.FileTreeEntry
	for k, e := range s.fileTrees {
		if k.project == projectID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].ResourceID < out[j].ResourceID
	})
	return out, nil
}

// UpsertTranslation implements store.Store.
func (s *Store) UpsertTranslation(_ context.Context, e store.TranslationEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := translationKey{e.ResourceID, e.Language}
	if prev, ok := s.translations[key]; ok {
		e.ID = prev.ID
	}
	s.translations[key] = e
	return nil
}

// GetTranslation implements store.Store.
func (s *Store) GetTranslation(_ context.Context, resourceID, language string) (store.TranslationEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.translations[translationKey{resourceID, language}]
	if !ok {
		return store.TranslationEntry{}, store.ErrNotFound
	}
	return e, nil
}
