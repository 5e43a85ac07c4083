// Package vector defines the paragraph embedding index searched by the API.
package vector

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Defaults shared by the implementations.
const (
	DefaultDimensions = 768
	DefaultBatchSize  = 50
	DefaultTopK       = 5
)

// Point is one embedded paragraph of a page.
type Point struct {
	ID             string    `json:"id"`
	ProjectID      string    `json:"project_id"`
	ResourceID     string    `json:"resource_id"`
	ParagraphIndex int       `json:"paragraph_index"`
	Vector         []float32 `json:"-"`
	OriginalText   string    `json:"original_text"`
	Language       string    `json:"language"`
	Timestamp      time.Time `json:"timestamp"`
}

// SearchResult is a Point ranked by cosine similarity to a query.
type SearchResult struct {
	Point
	Score float64 `json:"score"`
}

// Store indexes paragraph embeddings.
type Store interface {
	EnsureSchema(ctx context.Context) error
	// Upsert writes points in batches, replacing points with the same ID.
	Upsert(ctx context.Context, points []Point) error
	// DeleteByResource removes every point of one page in one project.
	DeleteByResource(ctx context.Context, projectID, resourceID string) error
	// Search returns up to topK points of projectID, most similar first.
	Search(ctx context.Context, query []float32, projectID string, topK int) ([]SearchResult, error)
}

// CheckDimensions returns an error when any point's vector length differs
// from dims.
func CheckDimensions(points []Point, dims int) error {
	for _, p := range points {
		if len(p.Vector) != dims {
			return fmt.Errorf("point %s has %d dimensions, want %d", p.ID, len(p.Vector), dims)
		}
	}
	return nil
}

// CosineSimilarity returns the cosine of the angle between a and b, or 0
// when the lengths differ or either vector is zero.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Batches splits points into consecutive slices of at most size.
func Batches(points []Point, size int) [][]Point {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var out [][]Point
	for start := 0; start < len(points); start += size {
		end := min(start+size, len(points))
		out = append(out, points[start:end])
	}
	return out
}
