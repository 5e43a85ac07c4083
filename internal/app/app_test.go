package app_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/docs-translator/internal/ai"
	"github.com/JakeFAU/docs-translator/internal/app"
	"github.com/JakeFAU/docs-translator/internal/config"
	"github.com/JakeFAU/docs-translator/internal/crawler"
	"github.com/JakeFAU/docs-translator/internal/pipeline"
)

type stubAI struct{}

func (stubAI) Summarize(_ context.Context, text, _ string) (ai.SummarizationResult, error) {
	return ai.SummarizationResult{Summary: "summary: " + firstLine(text), Title: firstLine(text)}, nil
}

func (stubAI) Translate(_ context.Context, text, _ string) (ai.TranslationResult, error) {
	return ai.TranslationResult{TranslatedText: "翻訳: " + firstLine(text)}, nil
}

func (stubAI) Embed(context.Context, string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

type siteFetcher map[string]string

func (s siteFetcher) FetchHTML(_ context.Context, rawURL string) ([]byte, error) {
	body, ok := s[rawURL]
	if !ok {
		return nil, fmt.Errorf("%w: %s", crawler.ErrFetchFailed, rawURL)
	}
	return []byte(body), nil
}

func memoryConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Output:    config.OutputConfig{Dir: t.TempDir()},
		Crawler:   config.CrawlerConfig{MaxDepth: 2},
		Fetcher:   config.FetcherConfig{Mode: "http", UserAgent: "test", TimeoutSeconds: 5},
		AI:        config.AIConfig{Provider: "ollama", OllamaHost: "http://127.0.0.1:11434"},
		Retry:     config.RetryConfig{MaxRetries: 0, InitialBackoffMs: 1},
		RateLimit: config.RateLimitConfig{IntervalMs: 1},
		Pipeline:  config.PipelineConfig{Language: "ja", Concurrency: 2, ChunkMinSize: 200, ChunkMaxSize: 500},
		DB:        config.DBConfig{Driver: "memory"},
		Vector:    config.VectorConfig{Provider: "memory", Dimensions: 3},
		Storage:   config.StorageConfig{Backend: "local"},
		Server:    config.ServerConfig{Port: 8080, RequestTimeoutSeconds: 5},
	}
}

func TestNewWithMemoryBackends(t *testing.T) {
	t.Parallel()

	a, err := app.New(context.Background(), memoryConfig(t), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { a.Close(context.Background()) })

	assert.NotNil(t, a.Blobs())
	assert.NotNil(t, a.Store())
	assert.NotNil(t, a.Vectors())
	assert.NotNil(t, a.AI())
	assert.NotNil(t, a.APIServer().Handler())

	f1, err := a.Fetcher()
	require.NoError(t, err)
	f2, err := a.Fetcher()
	require.NoError(t, err)
	assert.Same(t, f1, f2)
}

func TestNewFailsWithoutGeminiKey(t *testing.T) {
	t.Parallel()

	cfg := memoryConfig(t)
	cfg.AI = config.AIConfig{Provider: "gemini"}
	_, err := app.New(context.Background(), cfg, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "init ai")
}

func TestCrawlThenProcess(t *testing.T) {
	t.Parallel()

	site := siteFetcher{
		"https://docs.example.com/docs": `<html><head><title>Docs</title></head><body>
			<h1>Docs</h1><p>Welcome.</p>
			<a href="/docs/install">Install</a>
			<a href="https://other.example.org/">Elsewhere</a>
		</body></html>`,
		"https://docs.example.com/docs/install": `<html><head><title>Install</title></head><body>
			<h1>Install</h1><p>Run the installer.</p>
			<a href="/docs/install/linux">Linux</a>
		</body></html>`,
	}

	ctx := context.Background()
	a, err := app.New(ctx, memoryConfig(t), zap.NewNop(), app.WithAI(stubAI{}), app.WithFetcher(site))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close(context.Background()) })

	c, err := a.Crawler()
	require.NoError(t, err)
	const root = "https://docs.example.com/docs"
	entries, err := c.Crawl(ctx, root, crawler.Options{MaxDepth: 2})
	require.NoError(t, err)
	sorted, err := crawler.SortByDirectory(entries, root)
	require.NoError(t, err)
	_, err = crawler.SaveSitemap(ctx, a.Blobs(), root, sorted)
	require.NoError(t, err)

	orch, err := a.Pipeline()
	require.NoError(t, err)
	report, err := orch.Run(ctx, pipeline.RunRequest{RootURL: root, Language: "ja", Mode: pipeline.ModeBoth})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Processed)
	assert.Equal(t, 1, report.Skipped)
	assert.Zero(t, report.Failed)

	files, err := a.Store().ListFileTrees(ctx, report.ProjectID)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "/docs", files[0].Path)
	assert.Equal(t, "/docs/install", files[1].Path)

	tr, err := a.Store().GetTranslation(ctx, "https://docs.example.com/docs/install", "ja")
	require.NoError(t, err)
	assert.Contains(t, tr.Text, "翻訳")
}
