// Package pipeline turns crawled pages into Markdown, AI summaries and
// translations, relational rows and paragraph embeddings.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/docs-translator/internal/ai"
	"github.com/JakeFAU/docs-translator/internal/chunk"
	"github.com/JakeFAU/docs-translator/internal/crawler"
	"github.com/JakeFAU/docs-translator/internal/metrics"
	"github.com/JakeFAU/docs-translator/internal/progress"
	"github.com/JakeFAU/docs-translator/internal/store"
	"github.com/JakeFAU/docs-translator/internal/vector"
)

// Converter renders page HTML as Markdown.
type Converter interface {
	Convert(html []byte, pageURL string) (string, error)
}

// IDGenerator issues record IDs and project IDs.
type IDGenerator interface {
	NewID() (string, error)
	NewProjectID() (string, error)
}

// Config tunes the orchestrator.
type Config struct {
	// Concurrency caps in-flight pages. Zero runs every page at once.
	Concurrency int
	Splitter    chunk.Splitter
}

// Deps are the collaborators of an Orchestrator. Progress may be nil.
type Deps struct {
	Blobs     crawler.BlobStore
	Converter Converter
	AI        ai.Service
	Store     store.Store
	Vectors   vector.Store
	IDs       IDGenerator
	Clock     crawler.Clock
	Progress  progress.Emitter
}

// Orchestrator processes every fetchable sitemap entry concurrently and
// isolates failures to the page that caused them.
type Orchestrator struct {
	deps   Deps
	cfg    Config
	logger *zap.Logger
}

// New validates deps and returns an Orchestrator.
func New(deps Deps, cfg Config, logger *zap.Logger) (*Orchestrator, error) {
	switch {
	case deps.Blobs == nil:
		return nil, errors.New("blob store is required")
	case deps.Converter == nil:
		return nil, errors.New("converter is required")
	case deps.AI == nil:
		return nil, errors.New("ai service is required")
	case deps.Store == nil:
		return nil, errors.New("store is required")
	case deps.Vectors == nil:
		return nil, errors.New("vector store is required")
	case deps.IDs == nil:
		return nil, errors.New("id generator is required")
	case deps.Clock == nil:
		return nil, errors.New("clock is required")
	}
	if deps.Progress == nil {
		deps.Progress = progress.Discard{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Splitter.MaxSize == 0 {
		cfg.Splitter = chunk.Splitter{MinSize: chunk.DefaultMinSize, MaxSize: chunk.DefaultMaxSize}
	}
	return &Orchestrator{deps: deps, cfg: cfg, logger: logger}, nil
}

// Run processes req and returns once every page task has settled. Page
// failures are reported, not returned; the error is reserved for failures
// that prevent the run from starting and for cancellation.
func (o *Orchestrator) Run(ctx context.Context, req RunRequest) (Report, error) {
	entries := req.Entries
	if entries == nil {
		loaded, err := crawler.LoadSitemap(ctx, o.deps.Blobs, req.RootURL)
		if err != nil {
			return Report{}, err
		}
		entries = loaded
	}
	project, err := o.project(ctx, req.RootURL)
	if err != nil {
		return Report{}, err
	}
	runID, err := o.deps.IDs.NewID()
	if err != nil {
		return Report{}, fmt.Errorf("generate run id: %w", err)
	}

	pages := crawler.FetchableEntries(entries)
	report := Report{RunID: runID, ProjectID: project.ID, Skipped: len(entries) - len(pages)}
	logger := o.logger.With(zap.String("run_id", runID), zap.String("project_id", project.ID))
	logger.Info("pipeline run starting",
		zap.String("root", req.RootURL),
		zap.Int("pages", len(pages)),
		zap.Int("skipped", report.Skipped),
		zap.String("language", req.Language),
		zap.Stringer("mode", req.Mode),
	)
	o.emit(progress.Event{RunID: runID, Kind: progress.KindRunStart, Pages: len(pages), Note: req.RootURL})
	for _, e := range entries {
		if !e.Fetch {
			o.emit(progress.Event{RunID: runID, Kind: progress.KindPageSkipped, URL: e.URL, Note: "link only"})
		}
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	if o.cfg.Concurrency > 0 {
		g.SetLimit(o.cfg.Concurrency)
	}
	for i, entry := range pages {
		task := pageTask{runID: runID, project: project, entry: entry, sortOrder: i, language: req.Language, mode: req.Mode}
		g.Go(func() error {
			err := o.runPage(ctx, logger, task)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed++
				report.Failures = append(report.Failures, PageFailure{URL: entry.URL, Stage: StageOf(err), Err: err})
				return nil
			}
			report.Processed++
			return nil
		})
	}
	_ = g.Wait()

	o.emit(progress.Event{RunID: runID, Kind: progress.KindRunDone, Processed: report.Processed, Failed: report.Failed})
	logger.Info("pipeline run finished",
		zap.Int("processed", report.Processed),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped),
	)
	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

func (o *Orchestrator) project(ctx context.Context, rootURL string) (store.Project, error) {
	id, err := o.deps.IDs.NewProjectID()
	if err != nil {
		return store.Project{}, fmt.Errorf("generate project id: %w", err)
	}
	project, err := o.deps.Store.GetOrCreateProject(ctx, store.NewProject(id, rootURL, o.deps.Clock.Now()))
	if err != nil {
		return store.Project{}, fmt.Errorf("get or create project: %w", err)
	}
	return project, nil
}

type pageTask struct {
	runID     string
	project   store.Project
	entry     crawler.SitemapEntry
	sortOrder int
	language  string
	mode      Mode
}

func (o *Orchestrator) runPage(ctx context.Context, logger *zap.Logger, task pageTask) error {
	metrics.IncActivePages()
	defer metrics.DecActivePages()
	start := time.Now()
	logger = logger.With(zap.String("url", task.entry.URL))

	err := o.processPage(ctx, logger, task)
	dur := time.Since(start)
	if err != nil {
		stage := StageOf(err)
		metrics.ObservePipelinePage(stage, "error", dur)
		logger.Error("page processing failed", zap.String("stage", stage), zap.Error(err))
		o.emit(progress.Event{RunID: task.runID, Kind: progress.KindPageFailed, URL: task.entry.URL, Stage: stage, Dur: dur, Note: err.Error()})
		return err
	}
	metrics.ObservePipelinePage(StageDone, "ok", dur)
	logger.Debug("page processed", zap.Duration("duration", dur))
	o.emit(progress.Event{RunID: task.runID, Kind: progress.KindPageDone, URL: task.entry.URL, Dur: dur})
	return nil
}

// processPage runs the steps for one page. A failed AI call does not stop
// the artifacts that are already available from being stored, but the
// translation row and vectors need both results.
func (o *Orchestrator) processPage(ctx context.Context, logger *zap.Logger, task pageTask) error {
	rawURL := task.entry.URL
	markdown, err := o.markdown(ctx, rawURL)
	if err != nil {
		return err
	}

	var (
		summary     *ai.SummarizationResult
		translation *ai.TranslationResult
		aiErr       error
	)
	if task.mode.summarize() {
		res, err := o.deps.AI.Summarize(ctx, markdown, task.language)
		if err == nil && res.Summary == "" {
			err = ai.ErrEmptyResult
		}
		if err != nil {
			aiErr = stageErr(StageSummarize, rawURL, err)
		} else {
			summary = &res
		}
	}
	if task.mode.translate() {
		res, err := o.deps.AI.Translate(ctx, markdown, task.language)
		if err == nil && res.TranslatedText == "" {
			err = ai.ErrEmptyResult
		}
		if err != nil {
			aiErr = errors.Join(aiErr, stageErr(StageTranslate, rawURL, err))
		} else {
			translation = &res
		}
	}

	if err := o.storeTexts(ctx, rawURL, summary, translation); err != nil {
		return err
	}
	if err := o.upsertFileTree(ctx, task); err != nil {
		return err
	}
	if aiErr != nil {
		return aiErr
	}
	if summary == nil || translation == nil {
		logger.Debug("skipping translation record and vectors", zap.Stringer("mode", task.mode))
		return nil
	}

	now := o.deps.Clock.Now()
	id, err := o.deps.IDs.NewID()
	if err != nil {
		return stageErr(StageTranslationRecord, rawURL, err)
	}
	entry := store.NewTranslationEntry(id, rawURL, *translation, *summary, markdown, task.language, now)
	if err := o.deps.Store.UpsertTranslation(ctx, entry); err != nil {
		return stageErr(StageTranslationRecord, rawURL, err)
	}
	return o.index(ctx, task, markdown)
}

func (o *Orchestrator) markdown(ctx context.Context, rawURL string) (string, error) {
	key, err := crawler.HTMLPath(rawURL)
	if err != nil {
		return "", stageErr(StageReadHTML, rawURL, err)
	}
	html, err := o.deps.Blobs.GetObject(ctx, key)
	if err != nil {
		return "", stageErr(StageReadHTML, rawURL, err)
	}
	markdown, err := o.deps.Converter.Convert(html, rawURL)
	if err != nil {
		return "", stageErr(StageConvert, rawURL, err)
	}
	if err := o.putArtifact(ctx, rawURL, crawler.KindMarkdown, markdown); err != nil {
		return "", stageErr(StageStoreMarkdown, rawURL, err)
	}
	return markdown, nil
}

func (o *Orchestrator) storeTexts(ctx context.Context, rawURL string, summary *ai.SummarizationResult, translation *ai.TranslationResult) error {
	if translation != nil {
		if err := o.putArtifact(ctx, rawURL, crawler.KindTranslation, translation.TranslatedText); err != nil {
			return stageErr(StageStoreArtifacts, rawURL, err)
		}
	}
	if summary != nil {
		if err := o.putArtifact(ctx, rawURL, crawler.KindSummary, summary.Summary); err != nil {
			return stageErr(StageStoreArtifacts, rawURL, err)
		}
	}
	return nil
}

func (o *Orchestrator) putArtifact(ctx context.Context, rawURL, kind, text string) error {
	key, err := crawler.ArtifactPath(rawURL, kind, "md")
	if err != nil {
		return err
	}
	_, err = o.deps.Blobs.PutObject(ctx, key, "text/markdown; charset=utf-8", []byte(text))
	return err
}

func (o *Orchestrator) upsertFileTree(ctx context.Context, task pageTask) error {
	id, err := o.deps.IDs.NewID()
	if err != nil {
		return stageErr(StageFileTree, task.entry.URL, err)
	}
	row, err := store.NewFileTreeEntry(id, task.project.ID, task.entry.URL, task.entry.Title, task.sortOrder, o.deps.Clock.Now())
	if err != nil {
		return stageErr(StageFileTree, task.entry.URL, err)
	}
	if err := o.deps.Store.UpsertFileTree(ctx, row); err != nil {
		return stageErr(StageFileTree, task.entry.URL, err)
	}
	return nil
}

// index embeds every paragraph chunk and replaces the page's vectors.
func (o *Orchestrator) index(ctx context.Context, task pageTask, markdown string) error {
	rawURL := task.entry.URL
	chunks := o.cfg.Splitter.Split(markdown)
	now := o.deps.Clock.Now()
	points := make([]vector.Point, 0, len(chunks))
	for i, text := range chunks {
		emb, err := o.deps.AI.Embed(ctx, text)
		if err != nil {
			return stageErr(StageEmbed, rawURL, fmt.Errorf("paragraph %d: %w", i, err))
		}
		id, err := o.deps.IDs.NewID()
		if err != nil {
			return stageErr(StageEmbed, rawURL, err)
		}
		points = append(points, vector.Point{
			ID:             id,
			ProjectID:      task.project.ID,
			ResourceID:     rawURL,
			ParagraphIndex: i,
			Vector:         emb,
			OriginalText:   text,
			Language:       task.language,
			Timestamp:      now,
		})
	}
	if err := o.deps.Vectors.DeleteByResource(ctx, task.project.ID, rawURL); err != nil {
		return stageErr(StageVectors, rawURL, err)
	}
	if len(points) == 0 {
		return nil
	}
	if err := o.deps.Vectors.Upsert(ctx, points); err != nil {
		return stageErr(StageVectors, rawURL, err)
	}
	return nil
}

func (o *Orchestrator) emit(evt progress.Event) {
	if evt.TS.IsZero() {
		evt.TS = o.deps.Clock.Now()
	}
	o.deps.Progress.Emit(evt)
}
