package ai

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/docs-translator/internal/metrics"
	"github.com/JakeFAU/docs-translator/internal/policy/ratelimit"
	"github.com/JakeFAU/docs-translator/internal/retry"
)

// Operation names used in logs and metrics.
const (
	OpSummarize = "summarize"
	OpTranslate = "translate"
	OpEmbed     = "embed"
)

// Guarded decorates a Service so that every attempt goes through the shared
// scheduler and failed attempts are retried by the policy.
type Guarded struct {
	next      Service
	scheduler ratelimit.Scheduler
	policy    retry.Policy
	logger    *zap.Logger
}

var _ Service = (*Guarded)(nil)

// NewGuarded wraps next. A nil scheduler runs calls unthrottled.
func NewGuarded(next Service, scheduler ratelimit.Scheduler, policy retry.Policy, logger *zap.Logger) *Guarded {
	if scheduler == nil {
		scheduler = ratelimit.Noop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guarded{next: next, scheduler: scheduler, policy: policy, logger: logger}
}

// Summarize implements Service.
func (g *Guarded) Summarize(ctx context.Context, text, lang string) (SummarizationResult, error) {
	return guard(ctx, g, OpSummarize, func(ctx context.Context) (SummarizationResult, error) {
		return g.next.Summarize(ctx, text, lang)
	})
}

// Translate implements Service.
func (g *Guarded) Translate(ctx context.Context, text, lang string) (TranslationResult, error) {
	return guard(ctx, g, OpTranslate, func(ctx context.Context) (TranslationResult, error) {
		return g.next.Translate(ctx, text, lang)
	})
}

// Embed implements Service.
func (g *Guarded) Embed(ctx context.Context, text string) ([]float32, error) {
	return guard(ctx, g, OpEmbed, func(ctx context.Context) ([]float32, error) {
		return g.next.Embed(ctx, text)
	})
}

func guard[T any](ctx context.Context, g *Guarded, op string, call func(context.Context) (T, error)) (T, error) {
	policy := g.policy
	policy.OnRetry = func(attempt int, wait time.Duration, err error) {
		metrics.ObserveAIRetry(op)
		g.logger.Warn("ai call failed, retrying",
			zap.String("operation", op),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)
	}
	out, err := retry.Do(ctx, policy, func(ctx context.Context) (T, error) {
		return ratelimit.Do(ctx, g.scheduler, call)
	})
	if err != nil {
		metrics.ObserveAICall(op, "error")
		return out, err
	}
	metrics.ObserveAICall(op, "ok")
	return out, nil
}
