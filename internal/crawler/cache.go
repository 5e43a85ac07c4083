package crawler

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// PageCache serves page HTML from a blob store and falls back to the network.
type PageCache struct {
	store   BlobStore
	fetcher Fetcher
	logger  *zap.Logger
}

// NewPageCache wires a blob store and fetcher into a PageCache.
func NewPageCache(store BlobStore, fetcher Fetcher, logger *zap.Logger) *PageCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PageCache{store: store, fetcher: fetcher, logger: logger}
}

// Get returns the HTML for rawURL. Unless forceFetch is set, a cached blob is
// returned as-is; otherwise the page is fetched and written to the cache
// before being returned. Fetch failures wrap ErrFetchFailed; any other error
// comes from cache I/O.
func (c *PageCache) Get(ctx context.Context, rawURL string, forceFetch bool) ([]byte, error) {
	key, err := HTMLPath(rawURL)
	if err != nil {
		return nil, fmt.Errorf("cache path: %w", err)
	}

	if !forceFetch {
		ok, err := c.store.Exists(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("check cache: %w", err)
		}
		if ok {
			c.logger.Debug("html served from cache", zap.String("url", rawURL), zap.String("path", key))
			body, err := c.store.GetObject(ctx, key)
			if err != nil {
				return nil, fmt.Errorf("read cache: %w", err)
			}
			return body, nil
		}
	} else {
		c.logger.Info("force fetch requested; bypassing cache", zap.String("url", rawURL))
	}

	body, err := c.fetcher.FetchHTML(ctx, rawURL)
	if err != nil {
		if !errors.Is(err, ErrFetchFailed) {
			err = fmt.Errorf("%w: %w", ErrFetchFailed, err)
		}
		return nil, err
	}
	if _, err := c.store.PutObject(ctx, key, "text/html; charset=utf-8", body); err != nil {
		return nil, fmt.Errorf("write cache: %w", err)
	}
	return body, nil
}
