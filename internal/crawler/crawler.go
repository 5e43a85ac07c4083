package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/JakeFAU/docs-translator/internal/metrics"
)

// Crawler walks a documentation site depth-first per branch and records every
// allowed link it sees.
type Crawler struct {
	pages  PageSource
	logger *zap.Logger
}

// New builds a Crawler that reads pages through the supplied source.
func New(pages PageSource, logger *zap.Logger) *Crawler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Crawler{pages: pages, logger: logger}
}

// crawlState is the accumulator shared by every recursive visit of one crawl.
type crawlState struct {
	seen    map[string]struct{}
	entries []SitemapEntry
}

func newCrawlState() *crawlState {
	return &crawlState{seen: make(map[string]struct{})}
}

// add records the entry unless its URL was already seen and reports whether
// it was inserted.
func (s *crawlState) add(entry SitemapEntry) bool {
	if _, ok := s.seen[entry.URL]; ok {
		return false
	}
	s.seen[entry.URL] = struct{}{}
	s.entries = append(s.entries, entry)
	return true
}

// Crawl discovers pages reachable from rootURL within opts.MaxDepth. The root
// page is always fetched and listed first. Pages that fail to load contribute
// nothing; only an unparsable root URL is returned as an error. Entries with
// Fetch=false are kept in the result as terminal leaves.
func (c *Crawler) Crawl(ctx context.Context, rootURL string, opts Options) ([]SitemapEntry, error) {
	if _, err := url.Parse(rootURL); err != nil {
		return nil, fmt.Errorf("parse root url: %w", err)
	}
	st := newCrawlState()
	filter := NewLinkFilter(opts.AllowDomains)
	c.visit(ctx, rootURL, 1, opts, filter, st)
	c.logger.Info("crawl finished",
		zap.String("root", rootURL),
		zap.Int("entries", len(st.entries)),
		zap.Int("max_depth", opts.MaxDepth),
	)
	return st.entries, nil
}

func (c *Crawler) visit(
	ctx context.Context,
	pageURL string,
	depth int,
	opts Options,
	filter *LinkFilter,
	st *crawlState,
) {
	if ctx.Err() != nil {
		return
	}
	logger := c.logger.With(zap.String("url", pageURL), zap.Int("depth", depth))
	logger.Debug("crawling page")

	body, err := c.pages.Get(ctx, pageURL, opts.ForceFetch)
	if err != nil {
		if errors.Is(err, ErrFetchFailed) {
			logger.Warn("failed to fetch page", zap.Error(err))
			metrics.ObserveCrawlPage(pageURL, "fetch_failed")
		} else {
			logger.Error("page cache error", zap.Error(err))
			metrics.ObserveCrawlPage(pageURL, "cache_error")
		}
		return
	}
	if depth > opts.MaxDepth {
		logger.Debug("maximum depth reached", zap.Int("max_depth", opts.MaxDepth))
		return
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		logger.Warn("invalid page url", zap.Error(err))
		return
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		logger.Warn("failed to parse page", zap.Error(err))
		metrics.ObserveCrawlPage(pageURL, "parse_failed")
		return
	}
	metrics.ObserveCrawlPage(pageURL, "ok")

	st.add(SitemapEntry{
		URL:   NormalizeURL(pageURL),
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
		Fetch: true,
	})

	fetch := ShouldFetch(depth, opts.MaxDepth)
	var children []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if strings.TrimSpace(href) == "" {
			return
		}
		abs, err := ResolveURL(base, href)
		if err != nil {
			logger.Debug("skipping link", zap.String("href", href), zap.Error(err))
			return
		}
		if !filter.IsAllowed(abs, base) {
			return
		}
		entry := SitemapEntry{
			URL:   NormalizeURL(abs.String()),
			Title: linkTitle(sel),
			Fetch: fetch,
		}
		if st.add(entry) && entry.Fetch {
			children = append(children, entry.URL)
		}
	})

	logger.Debug("links recorded", zap.Int("children", len(children)))
	for _, child := range children {
		c.visit(ctx, child, depth+1, opts, filter, st)
	}
}

func linkTitle(sel *goquery.Selection) string {
	if text := strings.Join(strings.Fields(sel.Text()), " "); text != "" {
		return text
	}
	title, _ := sel.Attr("title")
	return strings.TrimSpace(title)
}
