// Package auto fetches pages over plain HTTP and re-fetches them with a
// headless browser when the static HTML looks client-rendered.
package auto

import (
	"context"

	"go.uber.org/zap"

	"github.com/JakeFAU/docs-translator/internal/crawler"
)

// Fetcher promotes pages from Static to Renderer when the Detector asks for
// it.
type Fetcher struct {
	static   crawler.Fetcher
	renderer crawler.Fetcher
	detector *Detector
	logger   *zap.Logger
}

var _ crawler.Fetcher = (*Fetcher)(nil)

// New creates a Fetcher. A nil detector uses the default thresholds.
func New(static, renderer crawler.Fetcher, detector *Detector, logger *zap.Logger) *Fetcher {
	if detector == nil {
		detector = NewDetector(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{static: static, renderer: renderer, detector: detector, logger: logger}
}

// FetchHTML returns the static HTML unless it needs rendering. A failed
// render falls back to the static body.
func (f *Fetcher) FetchHTML(ctx context.Context, rawURL string) ([]byte, error) {
	body, err := f.static.FetchHTML(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if !f.detector.NeedsRender(body) {
		return body, nil
	}
	f.logger.Debug("promoting page to headless render", zap.String("url", rawURL))
	rendered, rerr := f.renderer.FetchHTML(ctx, rawURL)
	if rerr != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		f.logger.Warn("headless render failed, keeping static html",
			zap.String("url", rawURL), zap.Error(rerr))
		return body, nil
	}
	return rendered, nil
}
