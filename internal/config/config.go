// Package config loads and validates docs-translator configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/docs-translator/internal/language"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Output    OutputConfig    `mapstructure:"output"`
	Crawler   CrawlerConfig   `mapstructure:"crawler"`
	Fetcher   FetcherConfig   `mapstructure:"fetcher"`
	Headless  HeadlessConfig  `mapstructure:"headless"`
	AI        AIConfig        `mapstructure:"ai"`
	Retry     RetryConfig     `mapstructure:"retry"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	DB        DBConfig        `mapstructure:"db"`
	Vector    VectorConfig    `mapstructure:"vector"`
	Storage   StorageConfig   `mapstructure:"storage"`
	PubSub    PubSubConfig    `mapstructure:"pubsub"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Server    ServerConfig    `mapstructure:"server"`
}

// OutputConfig locates the local artifact tree.
type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

// CrawlerConfig holds crawl defaults that CLI flags override.
type CrawlerConfig struct {
	MaxDepth     int      `mapstructure:"max_depth"`
	AllowDomains []string `mapstructure:"allow_domains"`
}

// FetcherConfig configures page retrieval.
type FetcherConfig struct {
	// Mode is "http" (colly), "headless" (chromedp) or "auto", which renders
	// only pages whose static HTML looks client-rendered.
	Mode           string `mapstructure:"mode"`
	UserAgent      string `mapstructure:"user_agent"`
	RespectRobots  bool   `mapstructure:"respect_robots"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	MaxBodyBytes   int    `mapstructure:"max_body_bytes"`
}

// HeadlessConfig configures the chromedp fetcher.
type HeadlessConfig struct {
	MaxParallel   int `mapstructure:"max_parallel"`
	NavTimeoutSec int `mapstructure:"nav_timeout_seconds"`
	SettleDelayMs int `mapstructure:"settle_delay_ms"`
}

// AIConfig selects and configures the generative backend.
type AIConfig struct {
	// Provider is "gemini" or "ollama".
	Provider       string  `mapstructure:"provider"`
	APIKey         string  `mapstructure:"api_key"`
	Model          string  `mapstructure:"model"`
	EmbeddingModel string  `mapstructure:"embedding_model"`
	OllamaHost     string  `mapstructure:"ollama_host"`
	Temperature    float64 `mapstructure:"temperature"`
}

// RetryConfig configures AI call retries.
type RetryConfig struct {
	MaxRetries       int `mapstructure:"max_retries"`
	InitialBackoffMs int `mapstructure:"initial_backoff_ms"`
	// MaxBackoffMs caps one wait; zero leaves growth uncapped.
	MaxBackoffMs int `mapstructure:"max_backoff_ms"`
}

// RateLimitConfig spaces AI calls.
type RateLimitConfig struct {
	IntervalMs int `mapstructure:"interval_ms"`
}

// PipelineConfig configures page processing.
type PipelineConfig struct {
	Language     string `mapstructure:"language"`
	Concurrency  int    `mapstructure:"concurrency"`
	ChunkMinSize int    `mapstructure:"chunk_min_size"`
	ChunkMaxSize int    `mapstructure:"chunk_max_size"`
}

// DBConfig controls the relational store.
type DBConfig struct {
	// Driver is "postgres" or "memory".
	Driver                string `mapstructure:"driver"`
	DSN                   string `mapstructure:"dsn"`
	MaxConns              int32  `mapstructure:"max_conns"`
	MinConns              int32  `mapstructure:"min_conns"`
	MaxConnLifetimeMinute int    `mapstructure:"max_conn_lifetime_minutes"`
}

// VectorConfig controls the paragraph index.
type VectorConfig struct {
	// Provider is "pgvector" or "memory".
	Provider   string `mapstructure:"provider"`
	Table      string `mapstructure:"table"`
	Dimensions int    `mapstructure:"dimensions"`
	BatchSize  int    `mapstructure:"batch_size"`
}

// StorageConfig selects where HTML and derived artifacts live.
type StorageConfig struct {
	// Backend is "local", "gcs" or "memory".
	Backend   string `mapstructure:"backend"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// PubSubConfig holds progress notification settings.
type PubSubConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	ProjectID  string `mapstructure:"project_id"`
	TopicName  string `mapstructure:"topic_name"`
	PageEvents bool   `mapstructure:"page_events"`
}

// LoggingConfig toggles zap development features and the log file.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	File        string `mapstructure:"file"`
	MaxSizeMB   int    `mapstructure:"max_size_mb"`
	MaxBackups  int    `mapstructure:"max_backups"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Port                  int    `mapstructure:"port"`
	APIKey                string `mapstructure:"api_key"`
	RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DOCS_TRANSLATOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("ai.api_key", "DOCS_TRANSLATOR_AI_API_KEY", "GEMINI_API_KEY"); err != nil {
		return Config{}, fmt.Errorf("bind env: %w", err)
	}

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("output.dir", "output")
	v.SetDefault("crawler.max_depth", 3)
	v.SetDefault("crawler.allow_domains", []string{})
	v.SetDefault("fetcher.mode", "http")
	v.SetDefault("fetcher.user_agent", "docs-translator/0.1")
	v.SetDefault("fetcher.respect_robots", true)
	v.SetDefault("fetcher.timeout_seconds", 30)
	v.SetDefault("fetcher.max_body_bytes", 10<<20)
	v.SetDefault("headless.max_parallel", 1)
	v.SetDefault("headless.nav_timeout_seconds", 30)
	v.SetDefault("headless.settle_delay_ms", 500)
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.model", "")
	v.SetDefault("ai.embedding_model", "")
	v.SetDefault("ai.ollama_host", "")
	v.SetDefault("ai.temperature", 0.2)
	v.SetDefault("retry.max_retries", 3)
	v.SetDefault("retry.initial_backoff_ms", 1000)
	v.SetDefault("retry.max_backoff_ms", 0)
	v.SetDefault("rate_limit.interval_ms", 4000)
	v.SetDefault("pipeline.language", language.Default)
	v.SetDefault("pipeline.concurrency", 0)
	v.SetDefault("pipeline.chunk_min_size", 200)
	v.SetDefault("pipeline.chunk_max_size", 500)
	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.max_conns", 10)
	v.SetDefault("db.min_conns", 0)
	v.SetDefault("db.max_conn_lifetime_minutes", 30)
	v.SetDefault("vector.provider", "pgvector")
	v.SetDefault("vector.table", "paragraph_vectors")
	v.SetDefault("vector.dimensions", 768)
	v.SetDefault("vector.batch_size", 50)
	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.gcs_bucket", "")
	v.SetDefault("storage.prefix", "")
	v.SetDefault("pubsub.enabled", false)
	v.SetDefault("pubsub.project_id", "")
	v.SetDefault("pubsub.topic_name", "docs-translator-progress")
	v.SetDefault("pubsub.page_events", false)
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.file", "logs/app.log")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.api_key", "")
	v.SetDefault("server.request_timeout_seconds", 60)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Crawler.MaxDepth < 0 {
		return fmt.Errorf("crawler.max_depth must be >= 0")
	}
	if !oneOf(c.Fetcher.Mode, "http", "headless", "auto") {
		return fmt.Errorf("fetcher.mode must be http, headless or auto, got %q", c.Fetcher.Mode)
	}
	if c.Fetcher.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetcher.timeout_seconds must be > 0")
	}
	if c.Fetcher.Mode != "http" && c.Headless.MaxParallel <= 0 {
		return fmt.Errorf("headless.max_parallel must be > 0 when fetcher.mode is %s", c.Fetcher.Mode)
	}
	if !oneOf(c.AI.Provider, "gemini", "ollama") {
		return fmt.Errorf("ai.provider must be gemini or ollama, got %q", c.AI.Provider)
	}
	if c.Retry.MaxRetries < 0 || c.Retry.InitialBackoffMs < 0 || c.Retry.MaxBackoffMs < 0 {
		return fmt.Errorf("retry values must be >= 0")
	}
	if c.RateLimit.IntervalMs < 0 {
		return fmt.Errorf("rate_limit.interval_ms must be >= 0")
	}
	if _, err := language.Validate(c.Pipeline.Language); err != nil {
		return fmt.Errorf("pipeline.language: %w", err)
	}
	if c.Pipeline.Concurrency < 0 {
		return fmt.Errorf("pipeline.concurrency must be >= 0")
	}
	if c.Pipeline.ChunkMinSize <= 0 || c.Pipeline.ChunkMaxSize < c.Pipeline.ChunkMinSize {
		return fmt.Errorf("pipeline chunk sizes must satisfy 0 < min <= max")
	}
	if !oneOf(c.DB.Driver, "postgres", "memory") {
		return fmt.Errorf("db.driver must be postgres or memory, got %q", c.DB.Driver)
	}
	if c.DB.Driver == "postgres" && c.DB.DSN == "" {
		return fmt.Errorf("db.dsn is required when db.driver is postgres")
	}
	if !oneOf(c.Vector.Provider, "pgvector", "memory") {
		return fmt.Errorf("vector.provider must be pgvector or memory, got %q", c.Vector.Provider)
	}
	if c.Vector.Provider == "pgvector" && c.DB.DSN == "" {
		return fmt.Errorf("db.dsn is required when vector.provider is pgvector")
	}
	if c.Vector.Dimensions <= 0 {
		return fmt.Errorf("vector.dimensions must be > 0")
	}
	switch c.Storage.Backend {
	case "local":
		if c.Output.Dir == "" {
			return fmt.Errorf("output.dir is required for local storage")
		}
	case "gcs":
		if c.Storage.GCSBucket == "" {
			return fmt.Errorf("storage.gcs_bucket is required for gcs storage")
		}
	case "memory":
	default:
		return fmt.Errorf("storage.backend must be local, gcs or memory, got %q", c.Storage.Backend)
	}
	if c.PubSub.Enabled && (c.PubSub.ProjectID == "" || c.PubSub.TopicName == "") {
		return fmt.Errorf("pubsub.project_id and pubsub.topic_name are required when pubsub is enabled")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	return nil
}

// RetryPolicyDurations converts the retry settings to durations.
func (c Config) RetryPolicyDurations() (initial, maxBackoff time.Duration) {
	return time.Duration(c.Retry.InitialBackoffMs) * time.Millisecond,
		time.Duration(c.Retry.MaxBackoffMs) * time.Millisecond
}

// RateLimitInterval returns the minimum spacing between AI calls.
func (c Config) RateLimitInterval() time.Duration {
	return time.Duration(c.RateLimit.IntervalMs) * time.Millisecond
}

// FetchTimeout returns the per-page fetch timeout.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetcher.TimeoutSeconds) * time.Second
}

func oneOf(v string, options ...string) bool {
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
}
