package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/docs-translator/internal/ai"
	"github.com/JakeFAU/docs-translator/internal/clock/system"
	"github.com/JakeFAU/docs-translator/internal/crawler"
	"github.com/JakeFAU/docs-translator/internal/id/uuid"
	"github.com/JakeFAU/docs-translator/internal/progress"
	"github.com/JakeFAU/docs-translator/internal/storage/memory"
	"github.com/JakeFAU/docs-translator/internal/store"
	storemem "github.com/JakeFAU/docs-translator/internal/store/memory"
	vectormem "github.com/JakeFAU/docs-translator/internal/vector/memory"
)

const root = "https://docs.example.com"

var now = time.Date(2025, 5, 2, 10, 0, 0, 0, time.UTC)

type mockAI struct {
	mock.Mock
}

func (m *mockAI) Summarize(ctx context.Context, text, lang string) (ai.SummarizationResult, error) {
	args := m.Called(ctx, text, lang)
	return args.Get(0).(ai.SummarizationResult), args.Error(1)
}

func (m *mockAI) Translate(ctx context.Context, text, lang string) (ai.TranslationResult, error) {
	args := m.Called(ctx, text, lang)
	return args.Get(0).(ai.TranslationResult), args.Error(1)
}

func (m *mockAI) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	return args.Get(0).([]float32), args.Error(1)
}

// plainConverter returns the HTML bytes unchanged.
type plainConverter struct{}

func (plainConverter) Convert(html []byte, _ string) (string, error) { return string(html), nil }

type recordingEmitter struct {
	mu     sync.Mutex
	events []progress.Event
}

func (r *recordingEmitter) Emit(evt progress.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recordingEmitter) kinds() map[progress.Kind]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[progress.Kind]int{}
	for _, e := range r.events {
		out[e.Kind]++
	}
	return out
}

type fixture struct {
	blobs    *memory.BlobStore
	store    *storemem.Store
	vectors  *vectormem.Store
	ai       *mockAI
	events   *recordingEmitter
	pipeline *Orchestrator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		blobs:   memory.NewBlobStore(),
		store:   storemem.New(),
		vectors: vectormem.New(),
		ai:      &mockAI{},
		events:  &recordingEmitter{},
	}
	o, err := New(Deps{
		Blobs:     f.blobs,
		Converter: plainConverter{},
		AI:        f.ai,
		Store:     f.store,
		Vectors:   f.vectors,
		IDs:       uuid.New(),
		Clock:     system.Fixed{At: now},
		Progress:  f.events,
	}, Config{}, nil)
	require.NoError(t, err)
	f.pipeline = o
	return f
}

func (f *fixture) cache(t *testing.T, rawURL, body string) {
	t.Helper()
	key, err := crawler.HTMLPath(rawURL)
	require.NoError(t, err)
	_, err = f.blobs.PutObject(context.Background(), key, "text/html", []byte(body))
	require.NoError(t, err)
}

func (f *fixture) artifact(t *testing.T, rawURL, kind string) (string, bool) {
	t.Helper()
	key, err := crawler.ArtifactPath(rawURL, kind, "md")
	require.NoError(t, err)
	data, err := f.blobs.GetObject(context.Background(), key)
	if err != nil {
		return "", false
	}
	return string(data), true
}

func (f *fixture) stubAI() {
	f.ai.On("Summarize", mock.Anything, mock.Anything, "ja").
		Return(ai.SummarizationResult{Summary: "summary", Title: "Title", Keywords: []string{"go", "docs"}}, nil)
	f.ai.On("Translate", mock.Anything, mock.Anything, "ja").
		Return(ai.TranslationResult{TranslatedText: "翻訳"}, nil)
	f.ai.On("Embed", mock.Anything, mock.Anything).Return([]float32{1, 0}, nil)
}

func sitemap() []crawler.SitemapEntry {
	return []crawler.SitemapEntry{
		{URL: root + "/guide/one", Title: "One", Fetch: true},
		{URL: root + "/guide/two", Title: "Two", Fetch: true},
		{URL: root + "/guide/three", Title: "Three", Fetch: true},
	}
}

func projectID(t *testing.T, s *storemem.Store) string {
	t.Helper()
	projects, err := s.ListProjects(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 1)
	return projects[0].ID
}

func TestRunIsolatesAIFailureToOnePage(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.cache(t, root+"/guide/one", "Page One")
	f.cache(t, root+"/guide/two", "Page Two")
	f.cache(t, root+"/guide/three", "Page Three")
	f.ai.On("Summarize", mock.Anything, "Page Two", "ja").
		Return(ai.SummarizationResult{}, errors.New("quota exceeded"))
	f.stubAI()

	report, err := f.pipeline.Run(context.Background(), RunRequest{RootURL: root, Entries: sitemap(), Language: "ja"})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Processed)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, root+"/guide/two", report.Failures[0].URL)
	assert.Equal(t, StageSummarize, report.Failures[0].Stage)

	ctx := context.Background()
	pid := projectID(t, f.store)
	assert.Equal(t, pid, report.ProjectID)
	for _, u := range []string{root + "/guide/one", root + "/guide/three"} {
		tr, err := f.store.GetTranslation(ctx, u, "ja")
		require.NoError(t, err, u)
		assert.Equal(t, "翻訳", tr.Text)
		assert.Equal(t, "go,docs", tr.Keywords)
		assert.Len(t, f.vectors.Points(pid, u), 1)
		sum, ok := f.artifact(t, u, crawler.KindSummary)
		require.True(t, ok)
		assert.Equal(t, "summary", sum)
	}

	_, err = f.store.GetTranslation(ctx, root+"/guide/two", "ja")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Empty(t, f.vectors.Points(pid, root+"/guide/two"))
	_, ok := f.artifact(t, root+"/guide/two", crawler.KindSummary)
	assert.False(t, ok)
	tr, ok := f.artifact(t, root+"/guide/two", crawler.KindTranslation)
	assert.True(t, ok)
	assert.Equal(t, "翻訳", tr)

	rows, err := f.store.ListFileTrees(ctx, pid)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for i, row := range rows {
		assert.Equal(t, i, row.SortOrder)
	}

	kinds := f.events.kinds()
	assert.Equal(t, 1, kinds[progress.KindRunStart])
	assert.Equal(t, 2, kinds[progress.KindPageDone])
	assert.Equal(t, 1, kinds[progress.KindPageFailed])
	assert.Equal(t, 1, kinds[progress.KindRunDone])
}

func TestRunMissingCacheFailsOnlyThatPage(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.cache(t, root+"/guide/one", "Page One")
	f.cache(t, root+"/guide/three", "Page Three")
	f.stubAI()

	report, err := f.pipeline.Run(context.Background(), RunRequest{RootURL: root, Entries: sitemap(), Language: "ja"})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Processed)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, StageReadHTML, report.Failures[0].Stage)

	_, ok := f.artifact(t, root+"/guide/two", crawler.KindMarkdown)
	assert.False(t, ok)
	md, ok := f.artifact(t, root+"/guide/one", crawler.KindMarkdown)
	assert.True(t, ok)
	assert.Equal(t, "Page One", md)
}

func TestRunSummaryOnlySkipsTranslationAndVectors(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.cache(t, root+"/guide/one", "Page One")
	f.stubAI()

	report, err := f.pipeline.Run(context.Background(), RunRequest{
		RootURL:  root,
		Entries:  sitemap()[:1],
		Language: "ja",
		Mode:     ModeSummaryOnly,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Processed)
	assert.Zero(t, report.Failed)

	f.ai.AssertNotCalled(t, "Translate", mock.Anything, mock.Anything, mock.Anything)
	f.ai.AssertNotCalled(t, "Embed", mock.Anything, mock.Anything)
	_, err = f.store.GetTranslation(context.Background(), root+"/guide/one", "ja")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, ok := f.artifact(t, root+"/guide/one", crawler.KindSummary)
	assert.True(t, ok)

	rows, err := f.store.ListFileTrees(context.Background(), report.ProjectID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestRunTranslateOnlySkipsSummary(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.cache(t, root+"/guide/one", "Page One")
	f.stubAI()

	report, err := f.pipeline.Run(context.Background(), RunRequest{
		RootURL:  root,
		Entries:  sitemap()[:1],
		Language: "ja",
		Mode:     ModeTranslateOnly,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Processed)
	f.ai.AssertNotCalled(t, "Summarize", mock.Anything, mock.Anything, mock.Anything)
	_, ok := f.artifact(t, root+"/guide/one", crawler.KindTranslation)
	assert.True(t, ok)
}

func TestRunSkipsLinkOnlyEntriesAndNumbersFetchablePages(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.cache(t, root+"/a", "A")
	f.cache(t, root+"/c", "C")
	f.stubAI()

	entries := []crawler.SitemapEntry{
		{URL: root + "/a", Title: "A", Fetch: true},
		{URL: root + "/b", Title: "B", Fetch: false},
		{URL: root + "/c", Title: "C", Fetch: true},
	}
	report, err := f.pipeline.Run(context.Background(), RunRequest{RootURL: root, Entries: entries, Language: "ja"})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Processed)
	assert.Equal(t, 1, report.Skipped)

	rows, err := f.store.ListFileTrees(context.Background(), report.ProjectID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, root+"/a", rows[0].ResourceID)
	assert.Equal(t, root+"/c", rows[1].ResourceID)
	assert.Equal(t, 1, rows[1].SortOrder)
	assert.Equal(t, 1, f.events.kinds()[progress.KindPageSkipped])
}

func TestRunLoadsSitemapWhenEntriesAreNil(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.cache(t, root+"/guide/one", "Page One")
	f.stubAI()
	_, err := crawler.SaveSitemap(context.Background(), f.blobs, root, sitemap()[:1])
	require.NoError(t, err)

	report, err := f.pipeline.Run(context.Background(), RunRequest{RootURL: root, Language: "ja"})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Processed)
}

func TestRunReusesProjectAndReplacesVectors(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.cache(t, root+"/guide/one", "Page One")
	f.stubAI()
	req := RunRequest{RootURL: root, Entries: sitemap()[:1], Language: "ja"}

	first, err := f.pipeline.Run(context.Background(), req)
	require.NoError(t, err)
	second, err := f.pipeline.Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.ProjectID, second.ProjectID)
	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Len(t, f.vectors.Points(first.ProjectID, root+"/guide/one"), 1)
}

func TestRunEmbedFailureKeepsTranslationRow(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.cache(t, root+"/guide/one", "Page One")
	f.ai.On("Embed", mock.Anything, mock.Anything).Return([]float32(nil), errors.New("embedding offline"))
	f.stubAI()

	report, err := f.pipeline.Run(context.Background(), RunRequest{RootURL: root, Entries: sitemap()[:1], Language: "ja"})
	require.NoError(t, err)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, StageEmbed, report.Failures[0].Stage)
	_, err = f.store.GetTranslation(context.Background(), root+"/guide/one", "ja")
	assert.NoError(t, err)
}

func TestRunConcurrencyLimit(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	for _, e := range sitemap() {
		f.cache(t, e.URL, e.Title)
	}
	f.stubAI()
	f.pipeline.cfg.Concurrency = 1

	report, err := f.pipeline.Run(context.Background(), RunRequest{RootURL: root, Entries: sitemap(), Language: "ja"})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Processed)
}

func TestRunProjectFailureIsFatal(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.pipeline.Run(context.Background(), RunRequest{RootURL: "://bad", Entries: nil, Language: "ja"})
	require.Error(t, err)
}

func TestNewRequiresDependencies(t *testing.T) {
	t.Parallel()

	_, err := New(Deps{}, Config{}, nil)
	require.Error(t, err)
}

func TestModeFromFlags(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ModeBoth, ModeFromFlags(false, false))
	assert.Equal(t, ModeBoth, ModeFromFlags(true, true))
	assert.Equal(t, ModeSummaryOnly, ModeFromFlags(true, false))
	assert.Equal(t, ModeTranslateOnly, ModeFromFlags(false, true))
	assert.Equal(t, "summary-only", ModeSummaryOnly.String())
}

func TestStageError(t *testing.T) {
	t.Parallel()

	base := errors.New("boom")
	err := stageErr(StageConvert, "https://x", base)
	assert.ErrorIs(t, err, base)
	assert.Equal(t, StageConvert, StageOf(err))
	assert.Equal(t, StageSummarize, StageOf(errors.Join(stageErr(StageSummarize, "u", base), stageErr(StageTranslate, "u", base))))
	assert.Empty(t, StageOf(base))
}
