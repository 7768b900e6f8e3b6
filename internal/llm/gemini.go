package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"callcheck/internal/config"
)

// GeminiClient implements Client on the Google GenAI SDK.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini client from the LLM config.
func NewGeminiClient(cfg config.LLMConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GeminiClient{
		client: client,
		model:  model,
	}, nil
}

// Complete sends a prompt and returns the completion.
func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem sends a prompt with a system instruction.
func (c *GeminiClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	var genCfg *genai.GenerateContentConfig
	if systemPrompt != "" {
		genCfg = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		}
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(userPrompt), genCfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate failed: %w", err)
	}

	return strings.TrimSpace(result.Text()), nil
}
