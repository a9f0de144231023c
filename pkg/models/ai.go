// Package models contains shared data models used across the divelog codebase.
package models

import "context"

// AIProvider is the interface every LLM integration implements.
// Providers are untrusted text-in/text-out services; callers validate the output.
type AIProvider interface {
	// Generate sends a prompt and returns the raw model text.
	Generate(ctx context.Context, req GenerateRequest) (string, error)
	// Name returns the provider identifier (e.g., "openai", "anthropic").
	Name() string
	// Model returns the model identifier requests are sent to.
	Model() string
}

// GenerateRequest is a single completion request.
// Temperature, Seed and MaxTokens are fixed per deployment so identical
// prompts get reproducible answers where the provider supports it.
type GenerateRequest struct {
	System      string
	Prompt      string
	Temperature float32
	Seed        int
	MaxTokens   int
	JSONMode    bool
}
