package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/docs-translator/internal/ai"
)

var now = time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)

func TestNewFileTreeEntry(t *testing.T) {
	t.Parallel()

	e, err := NewFileTreeEntry("id-1", "proj", "https://docs.example.com/guide/install", "Install", 4, now)
	require.NoError(t, err)
	assert.Equal(t, "docs.example.com", e.Domain)
	assert.Equal(t, "/guide/install", e.Path)
	require.NotNil(t, e.Parent)
	assert.Equal(t, "/guide", *e.Parent)
	assert.Equal(t, TypeFile, e.Type)
	assert.Equal(t, "Install", e.Name)
	assert.Equal(t, 4, e.SortOrder)
	assert.Equal(t, "https://docs.example.com/guide/install", e.ResourceID)
}

func TestNewFileTreeEntryTopLevelAndFallbackName(t *testing.T) {
	t.Parallel()

	e, err := NewFileTreeEntry("id", "proj", "https://docs.example.com/intro", "  ", 0, now)
	require.NoError(t, err)
	assert.Nil(t, e.Parent)
	assert.Equal(t, "intro", e.Name)

	root, err := NewFileTreeEntry("id", "proj", "https://docs.example.com", "", 0, now)
	require.NoError(t, err)
	assert.Equal(t, "/", root.Path)
	assert.Nil(t, root.Parent)
	assert.Equal(t, "docs.example.com", root.Name)

	_, err = NewFileTreeEntry("id", "proj", "://bad", "", 0, now)
	require.Error(t, err)
}

func TestNewTranslationEntry(t *testing.T) {
	t.Parallel()

	e := NewTranslationEntry("id", "https://d.example.com/a",
		ai.TranslationResult{TranslatedText: "翻訳"},
		ai.SummarizationResult{Summary: "要約", Title: "題", Description: "説明", Keywords: []string{"go", "docs"}},
		"# original", "ja", now)
	assert.Equal(t, "翻訳", e.Text)
	assert.Equal(t, "要約", e.Summary)
	assert.Equal(t, "題", e.Title)
	assert.Equal(t, "go,docs", e.Keywords)
	assert.Equal(t, "# original", e.OriginalText)
	assert.Equal(t, "ja", e.Language)
	assert.Equal(t, now, e.Timestamp)
}

func TestNewProject(t *testing.T) {
	t.Parallel()

	p := NewProject("pid", "https://docs.example.com", now.In(time.FixedZone("X", 3600)))
	assert.Equal(t, time.UTC, p.Timestamp.Location())
	assert.Equal(t, "https://docs.example.com", p.Value)
}
