package crawler

import (
	"fmt"
	"net/url"
	"strings"
)

// NormalizeURL canonicalizes a URL for deduplication: everything from the
// first '#' is dropped and one trailing slash is removed.
func NormalizeURL(rawURL string) string {
	if i := strings.IndexByte(rawURL, '#'); i >= 0 {
		rawURL = rawURL[:i]
	}
	return strings.TrimSuffix(rawURL, "/")
}

// ResolveURL resolves href against the page it was found on and returns the
// absolute URL.
func ResolveURL(base *url.URL, href string) (*url.URL, error) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return nil, fmt.Errorf("parse href: %w", err)
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", abs.Scheme)
	}
	return abs, nil
}

// RootURL strips one trailing slash from a user-supplied crawl root and
// validates it.
func RootURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSuffix(strings.TrimSpace(raw), "/")
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse root url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("root url must be http(s): %q", raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("root url has no host: %q", raw)
	}
	return u, nil
}
