// Package gemini implements ai.Service on the Google Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/JakeFAU/docs-translator/internal/ai"
)

// Default model names.
const (
	DefaultModel          = "gemini-2.0-flash"
	DefaultEmbeddingModel = "text-embedding-004"
)

// Config configures the Gemini client.
type Config struct {
	APIKey         string
	Model          string
	EmbeddingModel string
	// Dimensions requests a specific embedding size. Zero keeps the model
	// default.
	Dimensions int
}

type modelsAPI interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// Client talks to Gemini.
type Client struct {
	models modelsAPI
	cfg    Config
}

var _ ai.Service = (*Client)(nil)

// New creates a Client for the Gemini developer API.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return newWithModels(client.Models, cfg), nil
}

func newWithModels(models modelsAPI, cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = DefaultEmbeddingModel
	}
	return &Client{models: models, cfg: cfg}
}

// Summarize implements ai.Service.
func (c *Client) Summarize(ctx context.Context, text, lang string) (ai.SummarizationResult, error) {
	raw, err := c.generateJSON(ctx, ai.SummarizePrompt(text, lang))
	if err != nil {
		return ai.SummarizationResult{}, fmt.Errorf("gemini summarize: %w", err)
	}
	return ai.DecodeSummary(raw)
}

// Translate implements ai.Service.
func (c *Client) Translate(ctx context.Context, text, lang string) (ai.TranslationResult, error) {
	raw, err := c.generateJSON(ctx, ai.TranslatePrompt(text, lang))
	if err != nil {
		return ai.TranslationResult{}, fmt.Errorf("gemini translate: %w", err)
	}
	return ai.DecodeTranslation(raw)
}

// Embed implements ai.Service.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	var cfg *genai.EmbedContentConfig
	if c.cfg.Dimensions > 0 {
		cfg = &genai.EmbedContentConfig{OutputDimensionality: genai.Ptr(int32(c.cfg.Dimensions))}
	}
	resp, err := c.models.EmbedContent(ctx, c.cfg.EmbeddingModel, genai.Text(text), cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini embed: %w", err)
	}
	if resp == nil || len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("gemini embed: %w", ai.ErrEmptyResult)
	}
	return resp.Embeddings[0].Values, nil
}

func (c *Client) generateJSON(ctx context.Context, prompt string) (string, error) {
	resp, err := c.models.GenerateContent(ctx, c.cfg.Model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", err
	}
	if resp == nil {
		return "", ai.ErrEmptyResult
	}
	text := resp.Text()
	if text == "" {
		return "", ai.ErrEmptyResult
	}
	return text, nil
}
