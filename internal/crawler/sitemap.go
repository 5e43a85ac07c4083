package crawler

import (
	"context"
	"encoding/json"
	"fmt"
)

// SaveSitemap writes the entries as indented JSON to <domain>/sitemap.json
// and returns the blob URI.
func SaveSitemap(ctx context.Context, store BlobStore, rootURL string, entries []SitemapEntry) (string, error) {
	key, err := SitemapPath(rootURL)
	if err != nil {
		return "", fmt.Errorf("sitemap path: %w", err)
	}
	if entries == nil {
		entries = []SitemapEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal sitemap: %w", err)
	}
	uri, err := store.PutObject(ctx, key, "application/json", data)
	if err != nil {
		return "", fmt.Errorf("write sitemap: %w", err)
	}
	return uri, nil
}

// LoadSitemap reads a sitemap previously written by SaveSitemap.
func LoadSitemap(ctx context.Context, store BlobStore, rootURL string) ([]SitemapEntry, error) {
	key, err := SitemapPath(rootURL)
	if err != nil {
		return nil, fmt.Errorf("sitemap path: %w", err)
	}
	data, err := store.GetObject(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read sitemap: %w", err)
	}
	var entries []SitemapEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode sitemap: %w", err)
	}
	return entries, nil
}
