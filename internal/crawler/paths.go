package crawler

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// Artifact kinds stored next to the cached HTML.
const (
	KindHTML        = "html"
	KindMarkdown    = "markdown"
	KindTranslation = "translation"
	KindSummary     = "summary"
)

// HTMLPath returns the cache location of a page relative to the output root:
// <domain>/html/<url-path>/<basename or index>.html. The mapping depends only
// on the host and path, so re-fetching a URL overwrites the same blob.
func HTMLPath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	name := baseName(u.Path)
	if name == "" {
		name = "index"
	}
	return path.Join(u.Hostname(), KindHTML, u.Path, name+".html"), nil
}

// ArtifactPath returns the location of a derived artifact (markdown,
// translation or summary): <domain>/<kind>/<parent dir>/<name>.<ext>.
func ArtifactPath(rawURL, kind, ext string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	parent := baseName(path.Dir(u.Path))
	name := strings.Replace(baseName(u.Path), ".html", "", 1)
	if name == "" {
		name = "index"
	}
	return path.Join(u.Hostname(), kind, parent, name+"."+ext), nil
}

// SitemapPath returns the location of the serialized sitemap for a root URL.
func SitemapPath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	return path.Join(u.Hostname(), "sitemap.json"), nil
}

// baseName mirrors POSIX basename but yields "" for the root and empty paths.
func baseName(p string) string {
	p = strings.TrimRight(p, "/")
	if p == "" || p == "." {
		return ""
	}
	return path.Base(p)
}
