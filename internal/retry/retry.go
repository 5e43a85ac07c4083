// Package retry re-runs fallible operations with exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Default policy values: three retries starting at one second.
const (
	DefaultMaxRetries     = 3
	DefaultInitialBackoff = time.Second
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Policy describes how often and how patiently an operation is retried.
// Total attempts are MaxRetries+1 and the wait doubles after every failure
// without jitter.
type Policy struct {
	MaxRetries     int
	InitialBackoff time.Duration
	// MaxBackoff caps a single wait. Zero leaves the growth uncapped.
	MaxBackoff time.Duration
	// Sleep replaces the real timer in tests.
	Sleep SleepFunc
	// OnRetry is called before each wait with the attempt number (1-based)
	// that just failed.
	OnRetry func(attempt int, wait time.Duration, err error)
}

// DefaultPolicy returns the standard policy.
func DefaultPolicy() Policy {
	return Policy{MaxRetries: DefaultMaxRetries, InitialBackoff: DefaultInitialBackoff}
}

// Backoff returns the wait after the given failed attempt (1-based).
func (p Policy) Backoff(attempt int) time.Duration {
	wait := p.InitialBackoff
	for i := 1; i < attempt; i++ {
		wait *= 2
		if p.MaxBackoff > 0 && wait >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	if p.MaxBackoff > 0 && wait > p.MaxBackoff {
		return p.MaxBackoff
	}
	return wait
}

// Do runs fn until it succeeds or the retries are exhausted, returning the
// last error. Context cancellation is never retried.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	var zero T
	for attempt := 1; ; attempt++ {
		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}
		if attempt > p.MaxRetries || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return zero, err
		}
		wait := p.Backoff(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, wait, err)
		}
		if serr := sleep(ctx, wait); serr != nil {
			return zero, fmt.Errorf("retry wait: %w (last error: %v)", serr, err)
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
