// Package crawler discovers documentation pages, caches their HTML and orders
// the resulting sitemap for processing.
//
// A crawl starts at a root URL at depth 1. Each page is read through a
// PageCache, its anchors are resolved and filtered by host, and every new
// link is recorded once in a shared seen-set. Links found on a page whose
// depth is below the limit are marked fetchable and crawled in turn; the rest
// are kept as leaves. SortByDirectory then clusters the sitemap by first-level
// directory for presentation.
package crawler
