package store

import (
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/JakeFAU/docs-translator/internal/ai"
)

// NewProject builds a Project for a crawl root.
func NewProject(id, value string, now time.Time) Project {
	return Project{ID: id, Value: value, Timestamp: now.UTC()}
}

// NewFileTreeEntry builds the file-tree row of a crawled page. name falls
// back to the last path segment, then to the host.
func NewFileTreeEntry(id, projectID, rawURL, name string, sortOrder int, now time.Time) (FileTreeEntry, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return FileTreeEntry{}, fmt.Errorf("parse resource url: %w", err)
	}
	p := u.Path
	if p == "" {
		p = "/"
	}
	var parent *string
	if dir := path.Dir(p); dir != "/" && dir != "." {
		parent = &dir
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = path.Base(p)
	}
	if name == "" || name == "/" || name == "." {
		name = u.Hostname()
	}
	return FileTreeEntry{
		ID:         id,
		ProjectID:  projectID,
		ResourceID: rawURL,
		Domain:     u.Hostname(),
		Name:       name,
		Type:       TypeFile,
		Path:       p,
		Parent:     parent,
		SortOrder:  sortOrder,
		Timestamp:  now.UTC(),
	}, nil
}

// NewTranslationEntry combines a page's summary and translation into one
// row. Keywords are stored comma-joined.
func NewTranslationEntry(
	id, rawURL string,
	translation ai.TranslationResult,
	summary ai.SummarizationResult,
	originalText, language string,
	now time.Time,
) TranslationEntry {
	return TranslationEntry{
		ID:           id,
		ResourceID:   rawURL,
		Title:        summary.Title,
		Summary:      summary.Summary,
		Description:  summary.Description,
		Text:         translation.TranslatedText,
		OriginalText: originalText,
		Language:     language,
		Keywords:     strings.Join(summary.Keywords, ","),
		Timestamp:    now.UTC(),
	}
}
