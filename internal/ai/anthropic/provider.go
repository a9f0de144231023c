package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/kiranshivaraju/divelog/pkg/models"
)

// jsonOnly is appended to the system prompt. The Messages API has no JSON
// response mode, so the contract is restated instead.
const jsonOnly = "Respond with a single JSON object and nothing else."

// Provider implements models.AIProvider using the Anthropic Messages API.
type Provider struct {
	client anthropic.Client
	model  string
}

// NewProvider builds a client with SDK retries disabled; the pipeline makes a
// single attempt per request.
func NewProvider(apiKey, model string, opts ...option.RequestOption) *Provider {
	all := append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}, opts...)
	return &Provider{
		client: anthropic.NewClient(all...),
		model:  model,
	}
}

func (p *Provider) Name() string  { return "anthropic" }
func (p *Provider) Model() string { return p.model }

func (p *Provider) Generate(ctx context.Context, req models.GenerateRequest) (string, error) {
	system := req.System
	if req.JSONMode {
		system = strings.TrimSpace(system + "\n" + jsonOnly)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(req.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
		Temperature: anthropic.Float(float64(req.Temperature)),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}

	if len(msg.Content) == 0 {
		return "", errors.New("anthropic messages: empty content")
	}
	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String(), nil
}

var _ models.AIProvider = (*Provider)(nil)
