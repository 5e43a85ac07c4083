package crawler

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

type sortGroup struct {
	key     string
	entries []SitemapEntry
}

// SortByDirectory orders entries for presentation. Entries under rootURL are
// grouped by their first sub-directory (pages directly under the root form
// their own group) and groups are ordered by first appearance. Entries outside
// the root follow in their original order. The sort is stable and applying it
// to its own output is a no-op.
func SortByDirectory(entries []SitemapEntry, rootURL string) ([]SitemapEntry, error) {
	root, err := url.Parse(rootURL)
	if err != nil {
		return nil, fmt.Errorf("parse root url: %w", err)
	}
	basePath := root.Path
	if !strings.HasSuffix(basePath, "/") {
		basePath += "/"
	}
	origin := root.Scheme + "://" + root.Host

	var (
		groups  []*sortGroup
		byKey   = make(map[string]*sortGroup)
		outside []SitemapEntry
	)
	for i, entry := range entries {
		u, err := url.Parse(entry.URL)
		if err != nil || u.Scheme+"://"+u.Host != origin || !underBase(pathOrRoot(u.Path), basePath) {
			outside = append(outside, entry)
			continue
		}
		key := groupKey(strings.TrimPrefix(pathOrRoot(u.Path), basePath), i)
		g, ok := byKey[key]
		if !ok {
			g = &sortGroup{key: key}
			byKey[key] = g
			groups = append(groups, g)
		}
		g.entries = append(g.entries, entry)
	}

	out := make([]SitemapEntry, 0, len(entries))
	for _, g := range groups {
		out = append(out, g.entries...)
	}
	return append(out, outside...), nil
}

func groupKey(relative string, index int) string {
	var segments []string
	for _, s := range strings.Split(relative, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	if len(segments) >= 2 {
		return "group_" + segments[0]
	}
	return "direct_" + strconv.Itoa(index)
}

// underBase accepts the root page itself as well as anything below it.
func underBase(p, basePath string) bool {
	return p == strings.TrimSuffix(basePath, "/") || strings.HasPrefix(p, basePath)
}

// pathOrRoot treats an empty path as "/", as browsers do.
func pathOrRoot(p string) string {
	if p == "" {
		return "/"
	}
	return p
}
