// Package ratelimit serializes calls to a quota-limited external service.
//
// A single Limiter is shared by every caller in the process: at most one call
// runs at a time and consecutive calls start at least MinInterval apart.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/JakeFAU/docs-translator/internal/metrics"
)

// DefaultMinInterval keeps callers under 15 requests per minute.
const DefaultMinInterval = 4 * time.Second

// Scheduler runs fn subject to a throttling policy.
type Scheduler interface {
	Schedule(ctx context.Context, fn func(ctx context.Context) error) error
}

// Config holds rate limiter configuration.
type Config struct {
	// MinInterval is the minimum spacing between call starts. Zero disables
	// spacing but still allows only one call in flight.
	MinInterval time.Duration
}

// Limiter allows one in-flight call and spaces call starts by MinInterval.
type Limiter struct {
	slot    chan struct{}
	limiter *rate.Limiter
}

// New creates a Limiter.
func New(cfg Config) *Limiter {
	limit := rate.Inf
	if cfg.MinInterval > 0 {
		limit = rate.Every(cfg.MinInterval)
	}
	return &Limiter{
		slot:    make(chan struct{}, 1),
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Schedule blocks until fn may start, runs it and returns its error. Waiting
// is abandoned if ctx is done.
func (l *Limiter) Schedule(ctx context.Context, fn func(ctx context.Context) error) error {
	start := time.Now()
	select {
	case l.slot <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("rate limit slot wait: %w", ctx.Err())
	}
	defer func() { <-l.slot }()

	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	if waited := time.Since(start); waited > time.Millisecond {
		metrics.ObserveRateLimitWait(waited)
	}
	return fn(ctx)
}

// Noop runs every call immediately. It is meant for tests and offline runs.
type Noop struct{}

// Schedule runs fn directly.
func (Noop) Schedule(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Do schedules fn on s and returns its result.
func Do[T any](ctx context.Context, s Scheduler, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := s.Schedule(ctx, func(ctx context.Context) error {
		var err error
		out, err = fn(ctx)
		return err
	})
	return out, err
}
