package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiCompleter implements Completer using the Gemini API.
type GeminiCompleter struct {
	client *genai.Client
	model  string
}

// NewGeminiCompleter creates a Gemini-backed completer. model falls back to
// gemini-1.5-flash when empty.
func NewGeminiCompleter(ctx context.Context, apiKey, model string) (*GeminiCompleter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = "gemini-1.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &GeminiCompleter{client: client, model: model}, nil
}

// Complete sends the prompt and returns the model's text response, trimmed.
func (g *GeminiCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", fmt.Errorf("empty response from model %s", g.model)
	}
	return text, nil
}

// Model returns the configured model name.
func (g *GeminiCompleter) Model() string {
	return g.model
}
