package generation

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiProvider implements Provider against Google's Gemini API.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a Gemini-backed provider.
func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiProvider{client: client, model: model}, nil
}

// IsAvailable returns whether the provider was configured with a client.
func (p *GeminiProvider) IsAvailable() bool {
	return p.client != nil
}

// Complete sends the system and user prompts and returns the model's text.
func (p *GeminiProvider) Complete(ctx context.Context, systemPrompt, userPrompt string, options CompletionOptions) (string, error) {
	temp := float32(options.Temperature)
	config := &genai.GenerateContentConfig{
		Temperature:       &temp,
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
	}
	if options.MaxTokens > 0 {
		config.MaxOutputTokens = int32(options.MaxTokens)
	}
	if options.Format == "json" {
		config.ResponseMIMEType = "application/json"
	}

	result, err := p.client.Models.GenerateContent(ctx, p.model,
		genai.Text(userPrompt), config)
	if err != nil {
		return "", fmt.Errorf("gemini completion: %w", err)
	}

	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("gemini completion: empty response")
	}
	return text, nil
}
