// Package memory implements vector.Store with brute-force cosine search.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/JakeFAU/docs-translator/internal/vector"
)

// Store holds points in memory.
type Store struct {
	mu     sync.RWMutex
	points map[string]vector.Point
}

var _ vector.Store = (*Store)(nil)

// New returns an empty Store.
func New() *Store {
	return &Store{points: make(map[string]vector.Point)}
}

// EnsureSchema implements vector.Store.
func (s *Store) EnsureSchema(context.Context) error { return nil }

// Upsert implements vector.Store.
func (s *Store) Upsert(_ context.Context, points []vector.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range points {
		p.Vector = append([]float32(nil), p.Vector...)
		s.points[p.ID] = p
	}
	return nil
}

// DeleteByResource implements vector.Store.
func (s *Store) DeleteByResource(_ context.Context, projectID, resourceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.points {
		if p.ProjectID == projectID && p.ResourceID == resourceID {
			delete(s.points, id)
		}
	}
	return nil
}

// Search implements vector.Store.
func (s *Store) Search(_ context.Context, query []float32, projectID string, topK int) ([]vector.SearchResult, error) {
	if topK <= 0 {
		topK = vector.DefaultTopK
	}
	s.mu.RLock()
	var out []vector.SearchResult
	for _, p := range s.points {
		if p.ProjectID != projectID {
			continue
		}
		out = append(out, vector.SearchResult{Point: p, Score: vector.CosineSimilarity(query, p.Vector)})
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

// Points returns every point of one page ordered by paragraph index.
func (s *Store) Points(projectID, resourceID string) []vector.Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []vector.Point
	for _, p := range s.points {
		if p.ProjectID == projectID && p.ResourceID == resourceID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ParagraphIndex < out[j].ParagraphIndex })
	return out
}
