// Package ollama implements ai.Service on a local Ollama server.
package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/JakeFAU/docs-translator/internal/ai"
)

// Default model names.
const (
	DefaultModel          = "llama3.1"
	DefaultEmbeddingModel = "nomic-embed-text"
)

// Config configures the Ollama client.
type Config struct {
	// Host overrides OLLAMA_HOST when set.
	Host           string
	Model          string
	EmbeddingModel string
	Temperature    float64
}

type chatAPI interface {
	Chat(ctx context.Context, req *api.ChatRequest, fn api.ChatResponseFunc) error
	Embed(ctx context.Context, req *api.EmbedRequest) (*api.EmbedResponse, error)
}

// Client talks to Ollama.
type Client struct {
	api chatAPI
	cfg Config
}

var _ ai.Service = (*Client)(nil)

// New creates a Client from cfg, falling back to the environment for the
// server address.
func New(cfg Config) (*Client, error) {
	var (
		client *api.Client
		err    error
	)
	if cfg.Host != "" {
		base, perr := url.Parse(cfg.Host)
		if perr != nil {
			return nil, fmt.Errorf("parse ollama host: %w", perr)
		}
		client = api.NewClient(base, http.DefaultClient)
	} else {
		client, err = api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("could not create ollama client: %w", err)
		}
	}
	return newWithAPI(client, cfg), nil
}

func newWithAPI(a chatAPI, cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = DefaultEmbeddingModel
	}
	return &Client{api: a, cfg: cfg}
}

// Summarize implements ai.Service.
func (c *Client) Summarize(ctx context.Context, text, lang string) (ai.SummarizationResult, error) {
	raw, err := c.chat(ctx, ai.SummarizePrompt(text, lang))
	if err != nil {
		return ai.SummarizationResult{}, fmt.Errorf("ollama summarize: %w", err)
	}
	return ai.DecodeSummary(raw)
}

// Translate implements ai.Service.
func (c *Client) Translate(ctx context.Context, text, lang string) (ai.TranslationResult, error) {
	raw, err := c.chat(ctx, ai.TranslatePrompt(text, lang))
	if err != nil {
		return ai.TranslationResult{}, fmt.Errorf("ollama translate: %w", err)
	}
	return ai.DecodeTranslation(raw)
}

// Embed implements ai.Service.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.api.Embed(ctx, &api.EmbedRequest{Model: c.cfg.EmbeddingModel, Input: text})
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	if resp == nil || len(resp.Embeddings) == 0 || len(resp.Embeddings[0]) == 0 {
		return nil, fmt.Errorf("ollama embed: %w", ai.ErrEmptyResult)
	}
	return resp.Embeddings[0], nil
}

func (c *Client) chat(ctx context.Context, prompt string) (string, error) {
	stream := false
	req := &api.ChatRequest{
		Model:    c.cfg.Model,
		Messages: []api.Message{{Role: "user", Content: prompt}},
		Stream:   &stream,
		Format:   json.RawMessage(`"json"`),
		Options: map[string]interface{}{
			"temperature": c.cfg.Temperature,
		},
	}
	var sb strings.Builder
	err := c.api.Chat(ctx, req, func(res api.ChatResponse) error {
		sb.WriteString(res.Message.Content)
		return nil
	})
	if err != nil {
		return "", err
	}
	if sb.Len() == 0 {
		return "", ai.ErrEmptyResult
	}
	return sb.String(), nil
}
