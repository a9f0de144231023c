// Package gemini implements models.AIProvider over the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/kiranshivaraju/divelog/pkg/models"
)

var errNoCandidates = errors.New("gemini generate content: no candidates returned")

type Provider struct {
	cli   *genai.Client
	model string
}

// NewProvider creates a Gemini API client. baseURL overrides the API host and
// is empty outside tests.
func NewProvider(ctx context.Context, apiKey, model, baseURL string) (*Provider, error) {
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	cli, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Provider{cli: cli, model: model}, nil
}

func (p *Provider) Name() string  { return "gemini" }
func (p *Provider) Model() string { return p.model }

func (p *Provider) Generate(ctx context.Context, req models.GenerateRequest) (string, error) {
	temperature := req.Temperature
	seed := int32(req.Seed)
	cfg := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		Seed:            &seed,
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if req.JSONMode {
		cfg.ResponseMIMEType = "application/json"
	}
	if req.System != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}

	resp, err := p.cli.Models.GenerateContent(ctx, p.model,
		[]*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: req.Prompt}}}},
		cfg,
	)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errNoCandidates
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	return b.String(), nil
}

var _ models.AIProvider = (*Provider)(nil)
