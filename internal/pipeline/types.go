package pipeline

import (
	"errors"
	"fmt"

	"github.com/JakeFAU/docs-translator/internal/crawler"
)

// Mode selects which AI calls run for every page.
type Mode int

// Supported modes.
const (
	ModeBoth Mode = iota
	ModeSummaryOnly
	ModeTranslateOnly
)

// ModeFromFlags maps the CLI switches to a Mode. Setting both switches runs
// both calls.
func ModeFromFlags(summaryOnly, translateOnly bool) Mode {
	switch {
	case summaryOnly && !translateOnly:
		return ModeSummaryOnly
	case translateOnly && !summaryOnly:
		return ModeTranslateOnly
	default:
		return ModeBoth
	}
}

func (m Mode) summarize() bool { return m != ModeTranslateOnly }
func (m Mode) translate() bool { return m != ModeSummaryOnly }

func (m Mode) String() string {
	switch m {
	case ModeSummaryOnly:
		return "summary-only"
	case ModeTranslateOnly:
		return "translate-only"
	default:
		return "both"
	}
}

// Stage names reported in logs, metrics and failures.
const (
	StageReadHTML          = "read_html"
	StageConvert           = "convert"
	StageStoreMarkdown     = "store_markdown"
	StageSummarize         = "summarize"
	StageTranslate         = "translate"
	StageStoreArtifacts    = "store_artifacts"
	StageFileTree          = "file_tree"
	StageTranslationRecord = "translation_record"
	StageEmbed             = "embed"
	StageVectors           = "vectors"
	StageDone              = "done"
)

// StageError ties a page failure to the step that produced it.
type StageError struct {
	Stage string
	URL   string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.URL, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func stageErr(stage, rawURL string, err error) error {
	return &StageError{Stage: stage, URL: rawURL, Err: err}
}

// StageOf returns the stage recorded in err, or "" when err carries none.
func StageOf(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}

// RunRequest describes one pipeline run over a sorted sitemap.
type RunRequest struct {
	// RootURL is the crawl root; it names the project.
	RootURL string
	// Entries is the sorted sitemap. When nil it is loaded from the blob
	// store's sitemap.json for RootURL.
	Entries  []crawler.SitemapEntry
	Language string
	Mode     Mode
}

// PageFailure records one page that did not complete.
type PageFailure struct {
	URL   string `json:"url"`
	Stage string `json:"stage"`
	Err   error  `json:"-"`
}

// Report summarizes a run. Processed counts pages that finished every step
// their mode requires; Skipped counts link-only entries.
type Report struct {
	RunID     string        `json:"run_id"`
	ProjectID string        `json:"project_id"`
	Processed int           `json:"processed"`
	Failed    int           `json:"failed"`
	Skipped   int           `json:"skipped"`
	Failures  []PageFailure `json:"failures,omitempty"`
}
