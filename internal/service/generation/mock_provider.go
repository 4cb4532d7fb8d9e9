package generation

import (
	"context"
	"fmt"
)

// MockProvider provides a canned implementation for testing and local
// development. Responses are returned in order; the last one repeats.
type MockProvider struct {
	available bool
	responses []mockResponse
	calls     int
}

type mockResponse struct {
	text string
	err  error
}

// NewMockProvider creates a mock provider with no scripted responses. With
// nothing scripted it returns a small valid flow.
func NewMockProvider() *MockProvider {
	return &MockProvider{available: true}
}

// Respond scripts a successful response.
func (m *MockProvider) Respond(text string) *MockProvider {
	m.responses = append(m.responses, mockResponse{text: text})
	return m
}

// Fail scripts a failed attempt.
func (m *MockProvider) Fail(err error) *MockProvider {
	m.responses = append(m.responses, mockResponse{err: err})
	return m
}

// Calls returns how many completions were requested.
func (m *MockProvider) Calls() int {
	return m.calls
}

// SetAvailable controls whether the mock provider is available.
func (m *MockProvider) SetAvailable(available bool) {
	m.available = available
}

// IsAvailable returns whether the mock provider is available.
func (m *MockProvider) IsAvailable() bool {
	return m.available
}

// Complete returns the next scripted response.
func (m *MockProvider) Complete(ctx context.Context, systemPrompt, userPrompt string, options CompletionOptions) (string, error) {
	if !m.available {
		return "", fmt.Errorf("mock provider is not available")
	}
	m.calls++

	if len(m.responses) == 0 {
		return defaultMockFlow, nil
	}

	idx := m.calls - 1
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	r := m.responses[idx]
	return r.text, r.err
}

// defaultMockFlow is a minimal valid generation result used when nothing is
// scripted, handy for running the service without a model key.
const defaultMockFlow = `{
  "title": "A Little Surprise",
  "theme": "sunset",
  "nodes": [
    {"type": "hero", "content": {"headline": "Something special is waiting", "body": "Tap through to find out."}},
    {"type": "choice", "content": {"question": "Ready?", "options": [{"id": "yes", "label": "Yes!"}, {"id": "very", "label": "So ready"}]}},
    {"type": "media", "content": {"image": {"url": "search:sunset celebration", "alt": "A warm sunset"}}},
    {"type": "text-input", "content": {"question": "Take a guess..."}},
    {"type": "reveal", "content": {"headline": "Surprise!", "body": "We are going on a trip."}},
    {"type": "outro", "content": {"headline": "See you there", "sharePrompt": "Share your reaction"}}
  ]
}`
