// Package gemini adapts the Google Gen AI SDK to the imagegen.Generator
// interface.
package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"google.golang.org/genai"

	"gemini-mcp-server/internal/imagegen"
)

// ErrNoAPIKey is returned by Generate when no API key was configured.
var ErrNoAPIKey = errors.New("GEMINI_API_KEY is not set")

// contentGenerator is the subset of *genai.Models used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Generator calls a Gemini model that answers with text and image parts.
// The underlying genai client is created on first use and shared by every
// later call.
type Generator struct {
	apiKey  string
	model   string
	baseURL string
	logger  *slog.Logger

	once    sync.Once
	models  contentGenerator
	initErr error
}

// Option configures a Generator.
type Option func(*Generator)

// WithBaseURL overrides the Gemini API endpoint.
func WithBaseURL(url string) Option {
	return func(g *Generator) { g.baseURL = url }
}

// WithLogger sets the logger used for client lifecycle messages.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) { g.logger = logger }
}

// NewGenerator returns a Generator for model authenticated with apiKey.
// No network or credential check happens until the first Generate call.
func NewGenerator(apiKey, model string, opts ...Option) *Generator {
	g := &Generator{
		apiKey: apiKey,
		model:  model,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Name implements imagegen.Generator.
func (g *Generator) Name() string { return "gemini" }

// Model returns the configured model identifier.
func (g *Generator) Model() string { return g.model }

func (g *Generator) ensureClient(ctx context.Context) error {
	g.once.Do(func() {
		if g.apiKey == "" {
			g.initErr = ErrNoAPIKey
			return
		}
		cfg := &genai.ClientConfig{
			APIKey:  g.apiKey,
			Backend: genai.BackendGeminiAPI,
		}
		if g.baseURL != "" {
			cfg.HTTPOptions.BaseURL = g.baseURL
		}
		client, err := genai.NewClient(ctx, cfg)
		if err != nil {
			g.initErr = fmt.Errorf("create genai client: %w", err)
			return
		}
		g.logger.Debug("Created Gemini client", "model", g.model)
		g.models = client.Models
	})
	return g.initErr
}

// Generate implements imagegen.Generator. It requests both text and image
// modalities and returns the parts of the first candidate.
func (g *Generator) Generate(ctx context.Context, prompt string) (*imagegen.Response, error) {
	if err := g.ensureClient(ctx); err != nil {
		return nil, err
	}

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{string(genai.ModalityText), string(genai.ModalityImage)},
	}

	g.logger.Debug("Calling GenerateContent", "model", g.model)
	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		return nil, err
	}
	return toResponse(resp), nil
}

// toResponse keeps only the first candidate, like the SDK's Text() helper.
// Blob bytes are re-encoded to base64 so callers see the transport encoding.
func toResponse(resp *genai.GenerateContentResponse) *imagegen.Response {
	out := &imagegen.Response{}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return out
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil {
			out.Parts = append(out.Parts, imagegen.Part{}) // keeps part indexes aligned
			continue
		}
		p := imagegen.Part{Text: part.Text}
		if part.InlineData != nil {
			p.InlineData = &imagegen.Blob{
				MIMEType: part.InlineData.MIMEType,
				Data:     base64.StdEncoding.EncodeToString(part.InlineData.Data),
			}
		}
		out.Parts = append(out.Parts, p)
	}
	return out
}
