// Package llm provides the language-model backends used for persona
// generation, the persona's conversational replies, and expected-item
// extraction from transcripts.
package llm

import (
	"context"
	"fmt"
	"strings"

	"callcheck/internal/config"
)

// Client defines the interface for LLM providers.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// New builds a Client for the configured provider.
func New(cfg config.LLMConfig) (Client, error) {
	switch cfg.Provider {
	case "ollama":
		return NewOllamaClient(cfg), nil
	case "gemini":
		return NewGeminiClient(cfg)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// stripFences removes a surrounding markdown code fence from a model
// response. Models frequently wrap JSON output in ```json blocks even when
// told not to.
func stripFences(response string) string {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	return strings.TrimSpace(response)
}
