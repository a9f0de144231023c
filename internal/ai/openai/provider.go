// Package openai talks to the OpenAI chat completions API and to the
// OpenAI-compatible endpoints served by Ollama and vLLM.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kiranshivaraju/divelog/pkg/models"
)

// Provider implements models.AIProvider over go-openai.
type Provider struct {
	client *openai.Client
	name   string
	model  string
}

// NewProvider returns a provider for api.openai.com, or for baseURL when set.
func NewProvider(apiKey, model, baseURL string) *Provider {
	return newProvider("openai", apiKey, model, baseURL)
}

// NewCompatibleProvider returns a provider for a self-hosted OpenAI-compatible
// server. name is reported by Name (e.g. "ollama", "vllm").
func NewCompatibleProvider(name, baseURL, model string) *Provider {
	// Ollama and vLLM ignore the key but go-openai always sends one.
	return newProvider(name, name, model, baseURL)
}

func newProvider(name, apiKey, model, baseURL string) *Provider {
	cfg := openai.DefaultConfig(apiKey)
	if base := normalizeBaseURL(baseURL); base != "" {
		cfg.BaseURL = base
	}
	return &Provider{
		client: openai.NewClientWithConfig(cfg),
		name:   name,
		model:  model,
	}
}

func (p *Provider) Name() string  { return p.name }
func (p *Provider) Model() string { return p.model }

// Generate sends a single chat completion. JSON mode and the seed are
// forwarded so repeated prompts stay reproducible where the server honours them.
func (p *Provider) Generate(ctx context.Context, req models.GenerateRequest) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	seed := req.Seed
	creq := openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Seed:        &seed,
	}
	if req.JSONMode {
		creq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, creq)
	if err != nil {
		return "", fmt.Errorf("%s chat completion: %w", p.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New(p.name + " chat completion: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// normalizeBaseURL makes sure the URL ends in /v1, which is where every
// supported server mounts the chat completions route.
func normalizeBaseURL(raw string) string {
	base := strings.TrimSpace(raw)
	if base == "" {
		return ""
	}
	parsed, err := url.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return strings.TrimRight(base, "/")
	}
	path := strings.TrimRight(parsed.Path, "/")
	if !strings.HasSuffix(path, "/v1") {
		path += "/v1"
	}
	parsed.Path = path
	return strings.TrimRight(parsed.String(), "/")
}

var _ models.AIProvider = (*Provider)(nil)
