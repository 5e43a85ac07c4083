package crawler

import (
	"context"
	"time"
)

// BlobStore reads and writes raw artifacts addressed by a relative path.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data []byte) (string, error)
	GetObject(ctx context.Context, path string) ([]byte, error)
	Exists(ctx context.Context, path string) (bool, error)
}

// Fetcher retrieves the raw HTML of a page. Ordinary HTTP failures are
// reported as errors wrapping ErrFetchFailed.
type Fetcher interface {
	FetchHTML(ctx context.Context, rawURL string) ([]byte, error)
}

// PageSource returns page HTML, either from the cache or the network.
type PageSource interface {
	Get(ctx context.Context, rawURL string, forceFetch bool) ([]byte, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
