// Package generation turns a free-text prompt into a validated flow
// specification: model invocation under a fixed instruction contract,
// response parsing, schema validation, and retry with backoff.
package generation

import (
	"context"
)

// Provider defines the interface for text-generation model providers
// (OpenAI, Gemini, etc.). The pipeline only depends on it returning text
// eventually or failing.
type Provider interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, options CompletionOptions) (string, error)
	IsAvailable() bool
}

// CompletionOptions configures model completion requests
type CompletionOptions struct {
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	Format      string  `json:"format"` // "json" or "text"
}
