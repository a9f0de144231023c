package ai

import (
	"context"
	"fmt"

	"github.com/kiranshivaraju/divelog/internal/ai/anthropic"
	"github.com/kiranshivaraju/divelog/internal/ai/gemini"
	"github.com/kiranshivaraju/divelog/internal/ai/openai"
	"github.com/kiranshivaraju/divelog/internal/config"
	"github.com/kiranshivaraju/divelog/pkg/models"
)

// NewProvider constructs the appropriate AI provider based on config.
// Called once at server startup.
func NewProvider(ctx context.Context, cfg config.AIConfig) (models.AIProvider, error) {
	switch cfg.Provider {
	case "ollama":
		return openai.NewCompatibleProvider("ollama", cfg.Ollama.BaseURL, cfg.Ollama.Model), nil
	case "vllm":
		return openai.NewCompatibleProvider("vllm", cfg.VLLM.BaseURL, cfg.VLLM.Model), nil
	case "openai":
		return openai.NewProvider(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL), nil
	case "anthropic":
		return anthropic.NewProvider(cfg.Anthropic.APIKey, cfg.Anthropic.Model), nil
	case "gemini":
		return gemini.NewProvider(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, "")
	default:
		return nil, fmt.Errorf("unknown AI provider %q: must be one of ollama, vllm, openai, anthropic, gemini", cfg.Provider)
	}
}
