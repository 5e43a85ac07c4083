// Package app initializes and holds long-lived application services, acting
// as the dependency container for the CLI commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	gcpubsub "cloud.google.com/go/pubsub"
	gcstorage "cloud.google.com/go/storage"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/JakeFAU/docs-translator/internal/ai"
	"github.com/JakeFAU/docs-translator/internal/ai/gemini"
	"github.com/JakeFAU/docs-translator/internal/ai/ollama"
	"github.com/JakeFAU/docs-translator/internal/api"
	"github.com/JakeFAU/docs-translator/internal/chunk"
	"github.com/JakeFAU/docs-translator/internal/clock/system"
	"github.com/JakeFAU/docs-translator/internal/config"
	"github.com/JakeFAU/docs-translator/internal/crawler"
	"github.com/JakeFAU/docs-translator/internal/database"
	"github.com/JakeFAU/docs-translator/internal/fetcher/auto"
	collyfetcher "github.com/JakeFAU/docs-translator/internal/fetcher/colly"
	headlessfetcher "github.com/JakeFAU/docs-translator/internal/fetcher/headless"
	"github.com/JakeFAU/docs-translator/internal/id/uuid"
	"github.com/JakeFAU/docs-translator/internal/markdown"
	"github.com/JakeFAU/docs-translator/internal/metrics"
	"github.com/JakeFAU/docs-translator/internal/pipeline"
	"github.com/JakeFAU/docs-translator/internal/policy/ratelimit"
	"github.com/JakeFAU/docs-translator/internal/progress"
	"github.com/JakeFAU/docs-translator/internal/progress/sinks"
	pubsubpublisher "github.com/JakeFAU/docs-translator/internal/publisher/pubsub"
	"github.com/JakeFAU/docs-translator/internal/retry"
	"github.com/JakeFAU/docs-translator/internal/storage/gcs"
	"github.com/JakeFAU/docs-translator/internal/storage/local"
	memoryblob "github.com/JakeFAU/docs-translator/internal/storage/memory"
	"github.com/JakeFAU/docs-translator/internal/store"
	memorystore "github.com/JakeFAU/docs-translator/internal/store/memory"
	"github.com/JakeFAU/docs-translator/internal/store/postgres"
	"github.com/JakeFAU/docs-translator/internal/vector"
	memoryvector "github.com/JakeFAU/docs-translator/internal/vector/memory"
	"github.com/JakeFAU/docs-translator/internal/vector/pgvector"
)

// App holds the shared services built from one Config.
type App struct {
	cfg      config.Config
	logger   *zap.Logger
	blobs    crawler.BlobStore
	store    store.Store
	vectors  vector.Store
	ai       ai.Service
	progress *progress.Hub
	pool     *pgxpool.Pool

	fetcherOnce sync.Once
	fetcher     crawler.Fetcher
	fetcherErr  error

	closers []func(context.Context) error
}

// Option overrides a service before New builds the defaults.
type Option func(*App)

// WithAI supplies the raw AI service. It is still wrapped with the shared
// rate limiter and retry policy.
func WithAI(svc ai.Service) Option {
	return func(a *App) { a.ai = svc }
}

// WithFetcher supplies the page fetcher.
func WithFetcher(f crawler.Fetcher) Option {
	return func(a *App) { a.fetcher = f }
}

// New builds every service. It fails fast when a critical dependency cannot
// be reached; anything already opened is closed again.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()
	a := &App{cfg: cfg, logger: logger}
	for _, opt := range opts {
		opt(a)
	}

	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"storage", a.initBlobs},
		{"database", a.initStores},
		{"ai", a.initAI},
		{"progress", a.initProgress},
	}
	for _, step := range steps {
		if err := step.fn(ctx); err != nil {
			a.Close(context.WithoutCancel(ctx))
			return nil, fmt.Errorf("init %s: %w", step.name, err)
		}
	}
	logger.Info("application services initialized",
		zap.String("storage", cfg.Storage.Backend),
		zap.String("db", cfg.DB.Driver),
		zap.String("vector", cfg.Vector.Provider),
		zap.String("ai", cfg.AI.Provider),
	)
	return a, nil
}

func (a *App) initBlobs(ctx context.Context) error {
	switch a.cfg.Storage.Backend {
	case "memory":
		a.blobs = memoryblob.NewBlobStore()
	case "gcs":
		client, err := gcstorage.NewClient(ctx)
		if err != nil {
			return fmt.Errorf("create gcs client: %w", err)
		}
		a.onClose(func(context.Context) error { return client.Close() })
		blobs, err := gcs.New(client, gcs.Config{Bucket: a.cfg.Storage.GCSBucket, Prefix: a.cfg.Storage.Prefix})
		if err != nil {
			return err
		}
		a.blobs = blobs
	default:
		blobs, err := local.New(local.Config{BaseDir: a.cfg.Output.Dir})
		if err != nil {
			return err
		}
		a.blobs = blobs
	}
	return nil
}

func (a *App) initStores(ctx context.Context) error {
	needPool := a.cfg.DB.Driver == "postgres" || a.cfg.Vector.Provider == "pgvector"
	if needPool {
		pool, err := database.NewPool(ctx, database.Config{
			DSN:             a.cfg.DB.DSN,
			MaxConns:        a.cfg.DB.MaxConns,
			MinConns:        a.cfg.DB.MinConns,
			MaxConnLifetime: time.Duration(a.cfg.DB.MaxConnLifetimeMinute) * time.Minute,
			Vector:          a.cfg.Vector.Provider == "pgvector",
		})
		if err != nil {
			return err
		}
		a.pool = pool
		a.onClose(func(context.Context) error { pool.Close(); return nil })
	}

	if a.cfg.DB.Driver == "postgres" {
		st, err := postgres.New(a.pool)
		if err != nil {
			return err
		}
		a.store = st
	} else {
		a.store = memorystore.New()
	}
	if err := a.store.EnsureSchema(ctx); err != nil {
		return err
	}

	if a.cfg.Vector.Provider == "pgvector" {
		vs, err := pgvector.New(a.pool, pgvector.Config{
			Table:      a.cfg.Vector.Table,
			Dimensions: a.cfg.Vector.Dimensions,
			BatchSize:  a.cfg.Vector.BatchSize,
		})
		if err != nil {
			return err
		}
		a.vectors = vs
	} else {
		a.vectors = memoryvector.New()
	}
	return a.vectors.EnsureSchema(ctx)
}

func (a *App) initAI(ctx context.Context) error {
	raw := a.ai
	if raw == nil {
		var err error
		switch a.cfg.AI.Provider {
		case "ollama":
			raw, err = ollama.New(ollama.Config{
				Host:           a.cfg.AI.OllamaHost,
				Model:          a.cfg.AI.Model,
				EmbeddingModel: a.cfg.AI.EmbeddingModel,
				Temperature:    a.cfg.AI.Temperature,
			})
		default:
			raw, err = gemini.New(ctx, gemini.Config{
				APIKey:         a.cfg.AI.APIKey,
				Model:          a.cfg.AI.Model,
				EmbeddingModel: a.cfg.AI.EmbeddingModel,
				Dimensions:     a.cfg.Vector.Dimensions,
			})
		}
		if err != nil {
			return err
		}
	}
	initial, maxBackoff := a.cfg.RetryPolicyDurations()
	policy := retry.Policy{
		MaxRetries:     a.cfg.Retry.MaxRetries,
		InitialBackoff: initial,
		MaxBackoff:     maxBackoff,
	}
	limiter := ratelimit.New(ratelimit.Config{MinInterval: a.cfg.RateLimitInterval()})
	a.ai = ai.NewGuarded(raw, limiter, policy, a.logger.Named("ai"))
	return nil
}

func (a *App) initProgress(ctx context.Context) error {
	progressSinks := []progress.Sink{sinks.NewLogSink(a.logger.Named("progress"))}
	if a.cfg.PubSub.Enabled {
		client, err := gcpubsub.NewClient(ctx, a.cfg.PubSub.ProjectID)
		if err != nil {
			return fmt.Errorf("create pubsub client: %w", err)
		}
		pub := pubsubpublisher.New(client, map[string]string{"source": "docs-translator"})
		a.onClose(func(context.Context) error {
			pub.Close()
			return client.Close()
		})
		var opts []sinks.PublishOption
		if a.cfg.PubSub.PageEvents {
			opts = append(opts, sinks.PageEvents())
		}
		sink, err := sinks.NewPublishSink(pub, a.cfg.PubSub.TopicName, opts...)
		if err != nil {
			return err
		}
		progressSinks = append(progressSinks, sink)
	}
	a.progress = progress.NewHub(progress.Config{Logger: a.logger.Named("progress")}, progressSinks...)
	// The hub must drain before the publisher it feeds is closed.
	hub := a.progress
	a.onClose(hub.Close)
	return nil
}

// Logger returns the shared logger.
func (a *App) Logger() *zap.Logger { return a.logger }

// Config returns the configuration the App was built from.
func (a *App) Config() config.Config { return a.cfg }

// Blobs returns the artifact store.
func (a *App) Blobs() crawler.BlobStore { return a.blobs }

// Store returns the relational store.
func (a *App) Store() store.Store { return a.store }

// Vectors returns the paragraph index.
func (a *App) Vectors() vector.Store { return a.vectors }

// AI returns the rate-limited, retrying AI service.
func (a *App) AI() ai.Service { return a.ai }

// Fetcher returns the configured page fetcher, building it on first use so
// that commands which never fetch do not start a browser.
func (a *App) Fetcher() (crawler.Fetcher, error) {
	a.fetcherOnce.Do(func() {
		if a.fetcher != nil {
			return
		}
		static := collyfetcher.New(collyfetcher.Config{
			UserAgent:     a.cfg.Fetcher.UserAgent,
			RespectRobots: a.cfg.Fetcher.RespectRobots,
			Timeout:       a.cfg.FetchTimeout(),
			MaxBodySize:   a.cfg.Fetcher.MaxBodyBytes,
		}, a.logger.Named("fetcher"))
		if a.cfg.Fetcher.Mode == "http" || a.cfg.Fetcher.Mode == "" {
			a.fetcher = static
			return
		}
		browser, err := headlessfetcher.NewChromedp(headlessfetcher.Config{
			MaxParallel:       a.cfg.Headless.MaxParallel,
			UserAgent:         a.cfg.Fetcher.UserAgent,
			NavigationTimeout: time.Duration(a.cfg.Headless.NavTimeoutSec) * time.Second,
			SettleDelay:       time.Duration(a.cfg.Headless.SettleDelayMs) * time.Millisecond,
		}, a.logger.Named("headless"))
		if err != nil {
			a.fetcherErr = fmt.Errorf("init headless fetcher: %w", err)
			return
		}
		a.onClose(func(context.Context) error { browser.Close(); return nil })
		if a.cfg.Fetcher.Mode == "auto" {
			a.fetcher = auto.New(static, browser, nil, a.logger.Named("fetcher"))
			return
		}
		a.fetcher = browser
	})
	return a.fetcher, a.fetcherErr
}

// Crawler builds a crawler reading through the page cache.
func (a *App) Crawler() (*crawler.Crawler, error) {
	fetcher, err := a.Fetcher()
	if err != nil {
		return nil, err
	}
	cache := crawler.NewPageCache(a.blobs, fetcher, a.logger.Named("cache"))
	return crawler.New(cache, a.logger.Named("crawler")), nil
}

// Pipeline builds the page processing orchestrator.
func (a *App) Pipeline() (*pipeline.Orchestrator, error) {
	return pipeline.New(pipeline.Deps{
		Blobs:     a.blobs,
		Converter: markdown.NewConverter(),
		AI:        a.ai,
		Store:     a.store,
		Vectors:   a.vectors,
		IDs:       uuid.New(),
		Clock:     system.New(),
		Progress:  a.progress,
	}, pipeline.Config{
		Concurrency: a.cfg.Pipeline.Concurrency,
		Splitter:    chunk.Splitter{MinSize: a.cfg.Pipeline.ChunkMinSize, MaxSize: a.cfg.Pipeline.ChunkMaxSize},
	}, a.logger.Named("pipeline"))
}

// APIServer builds the HTTP API over the stores.
func (a *App) APIServer() *api.Server {
	opts := api.Options{
		APIKey:          a.cfg.Server.APIKey,
		RequestTimeout:  time.Duration(a.cfg.Server.RequestTimeoutSeconds) * time.Second,
		DefaultLanguage: a.cfg.Pipeline.Language,
	}
	if a.pool != nil {
		opts.ReadyChecks = append(opts.ReadyChecks, a.pool.Ping)
	}
	return api.NewServer(a.store, a.vectors, a.ai, opts, a.logger.Named("api"))
}

func (a *App) onClose(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}

// Close releases services in reverse order of creation.
func (a *App) Close(ctx context.Context) {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if err := errors.Join(errs...); err != nil {
		a.logger.Warn("error closing application services", zap.Error(err))
	}
}
