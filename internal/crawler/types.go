package crawler

import "errors"

// ErrFetchFailed marks a page that could not be retrieved (network error or
// non-2xx status). It never aborts a crawl; the affected branch is skipped.
var ErrFetchFailed = errors.New("fetch failed")

// SitemapEntry is one URL discovered during a crawl.
type SitemapEntry struct {
	// URL is the normalized absolute URL.
	URL string `json:"url"`
	// Title is the link text, or the page <title> for crawled pages.
	Title string `json:"title"`
	// Fetch reports whether the page is eligible for content processing.
	// Entries with Fetch=false were seen as links at the depth limit.
	Fetch bool `json:"fetch"`
}

// Options describes a single crawl invocation.
type Options struct {
	// MaxDepth bounds the traversal; the root page sits at depth 1.
	MaxDepth int
	// AllowDomains lists extra hosts (or URLs whose host is used) that may be
	// followed in addition to the root host.
	AllowDomains []string
	// ForceFetch bypasses the page cache and overwrites cached HTML.
	ForceFetch bool
}

// FetchableEntries returns the entries whose Fetch flag is set, preserving order.
func FetchableEntries(entries []SitemapEntry) []SitemapEntry {
	out := make([]SitemapEntry, 0, len(entries))
	for _, e := range entries {
		if e.Fetch {
			out = append(out, e)
		}
	}
	return out
}
