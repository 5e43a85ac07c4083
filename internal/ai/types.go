// Package ai defines the generative service used to summarize, translate and
// embed documentation pages, plus the guard that throttles and retries it.
package ai

import (
	"context"
	"errors"
)

// ErrEmptyResult is returned when a provider answers without the field the
// caller needs.
var ErrEmptyResult = errors.New("empty ai result")

// Claim is a statement extracted from a page.
type Claim struct {
	Text      string `json:"text"`
	Source    string `json:"source,omitempty"`
	Evidence  string `json:"evidence"`
	Certainty string `json:"certainty"`
}

// ClaimValidation assesses a Claim.
type ClaimValidation struct {
	Claim       string   `json:"claim"`
	Relevance   string   `json:"relevance"`
	Insights    []string `json:"insights"`
	Suggestions []string `json:"suggestions"`
}

// SummarizationResult is the structured answer to a summarize request.
type SummarizationResult struct {
	Noises          []string          `json:"noises"`
	Claims          []Claim           `json:"claims"`
	ClaimValidation []ClaimValidation `json:"claimValidation"`
	Summary         string            `json:"summary"`
	Title           string            `json:"title"`
	Keywords        []string          `json:"keywords"`
	Description     string            `json:"description"`
}

// Term pairs a source term with its translation.
type Term struct {
	Term        string `json:"term"`
	Translation string `json:"translation"`
}

// TranslationResult is the structured answer to a translate request.
type TranslationResult struct {
	Claims           []string `json:"claims"`
	Terminology      []Term   `json:"terminology"`
	TranslationStyle string   `json:"translationStyle"`
	TranslatedText   string   `json:"translatedText"`
}

// Service is a generative backend. Every method may fail transiently.
type Service interface {
	Summarize(ctx context.Context, text, language string) (SummarizationResult, error)
	Translate(ctx context.Context, text, language string) (TranslationResult, error)
	Embed(ctx context.Context, text string) ([]float32, error)
}
