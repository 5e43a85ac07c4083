package crawler

import (
	"net/url"
	"strings"
)

// LinkFilter decides which discovered links stay in the sitemap.
type LinkFilter struct {
	allowed map[string]struct{}
}

// NewLinkFilter builds a filter from an allow-list. Entries may be bare hosts
// ("docs.example.com") or URLs, in which case only the host is kept.
func NewLinkFilter(allowDomains []string) *LinkFilter {
	f := &LinkFilter{allowed: make(map[string]struct{}, len(allowDomains))}
	for _, raw := range allowDomains {
		if host := hostOf(raw); host != "" {
			f.allowed[host] = struct{}{}
		}
	}
	return f
}

// IsAllowed reports whether candidate shares the base host or matches an
// allow-listed host.
func (f *LinkFilter) IsAllowed(candidate, base *url.URL) bool {
	if candidate == nil || base == nil {
		return false
	}
	host := strings.ToLower(candidate.Host)
	if host == strings.ToLower(base.Host) {
		return true
	}
	if f == nil {
		return false
	}
	_, ok := f.allowed[host]
	return ok
}

// ShouldFetch reports whether a link found on a page at currentDepth is
// eligible for fetching. The flag is fixed at discovery time.
func ShouldFetch(currentDepth, maxDepth int) bool {
	return currentDepth < maxDepth
}

func hostOf(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}
