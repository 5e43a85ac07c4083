package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/docs-translator/internal/vector"
)

func TestSearchRanksByCosine(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	require.NoError(t, s.Upsert(ctx, []vector.Point{
		{ID: "a", ProjectID: "p", ResourceID: "u1", Vector: []float32{1, 0}},
		{ID: "b", ProjectID: "p", ResourceID: "u1", ParagraphIndex: 1, Vector: []float32{0.7, 0.7}},
		{ID: "c", ProjectID: "p", ResourceID: "u2", Vector: []float32{0, 1}},
		{ID: "d", ProjectID: "other", ResourceID: "u1", Vector: []float32{1, 0}},
	}))

	got, err := s.Search(ctx, []float32{1, 0.1}, "p", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
	assert.Greater(t, got[0].Score, got[1].Score)

	all, err := s.Search(ctx, []float32{1, 0}, "p", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestDeleteByResourceScopesToProject(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	require.NoError(t, s.Upsert(ctx, []vector.Point{
		{ID: "a", ProjectID: "p", ResourceID: "u1"},
		{ID: "b", ProjectID: "p", ResourceID: "u2"},
		{ID: "c", ProjectID: "q", ResourceID: "u1"},
	}))
	require.NoError(t, s.DeleteByResource(ctx, "p", "u1"))

	assert.Empty(t, s.Points("p", "u1"))
	assert.Len(t, s.Points("p", "u2"), 1)
	assert.Len(t, s.Points("q", "u1"), 1)
}
