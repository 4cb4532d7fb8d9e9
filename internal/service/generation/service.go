package generation

import (
	"context"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"giftflow-backend/internal/domain/flow"
	apperrors "giftflow-backend/internal/errors"
)

const (
	minPromptLength = 10
	maxPromptLength = 2000
)

// Config tunes the pipeline's retry schedule. The defaults implement the
// 3-attempt, 1s/2s backoff policy; tests shrink the delays.
type Config struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	Temperature    float64
	MaxTokens      int
}

// DefaultConfig returns the production retry schedule.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialBackoff: time.Second,
		Temperature:    0.8,
		MaxTokens:      4000,
	}
}

// Service is the generation pipeline. It validates the prompt, invokes the
// model through a circuit breaker, parses and validates the response, and
// retries with exponential backoff on any attempt failure.
type Service struct {
	provider Provider
	config   Config
	breaker  *gobreaker.CircuitBreaker
	logger   *zap.Logger
}

// NewService creates a generation pipeline around the given provider.
func NewService(provider Provider, config Config, logger *zap.Logger) *Service {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "model-provider",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.8
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Service{
		provider: provider,
		config:   config,
		breaker:  breaker,
		logger:   logger.Named("generation"),
	}
}

// IsAvailable returns true if the underlying provider is usable.
func (s *Service) IsAvailable() bool {
	return s.provider != nil && s.provider.IsAvailable()
}

// Generate produces a validated flow specification from free-text input.
// The prompt must be 10-2000 characters after trimming; that is checked
// before any external call. Up to 3 upstream attempts are made, with 1s and
// 2s pauses between them; any attempt failure (network, parse, validation)
// consumes a retry. Exhaustion surfaces a single GenerationFailed error
// carrying the attempt count and last cause.
func (s *Service) Generate(ctx context.Context, prompt string) (*flow.FlowSpec, error) {
	prompt = strings.TrimSpace(prompt)
	if n := utf8.RuneCountInString(prompt); n < minPromptLength || n > maxPromptLength {
		return nil, apperrors.NewInvalidInput("prompt must be between 10 and 2000 characters")
	}

	var lastErr error
	for attempt := 1; attempt <= s.config.MaxAttempts; attempt++ {
		spec, err := s.attempt(ctx, prompt)
		if err == nil {
			s.logger.Info("flow generated",
				zap.Int("attempt", attempt),
				zap.Int("nodes", len(spec.Nodes)),
				zap.String("theme", string(spec.Theme)),
			)
			return spec, nil
		}

		lastErr = err
		s.logger.Warn("generation attempt failed",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)

		if attempt == s.config.MaxAttempts {
			break
		}

		// 1s, 2s, 4s... doubling between attempts.
		delay := s.config.InitialBackoff << (attempt - 1)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, apperrors.NewGenerationFailed("generation cancelled", attempt, ctx.Err())
		}
	}

	return nil, apperrors.NewGenerationFailed("flow generation failed", s.config.MaxAttempts, lastErr)
}

// attempt performs one full request-parse-validate cycle.
func (s *Service) attempt(ctx context.Context, prompt string) (*flow.FlowSpec, error) {
	raw, err := s.breaker.Execute(func() (any, error) {
		return s.provider.Complete(ctx, systemPrompt, prompt, CompletionOptions{
			Temperature: s.config.Temperature,
			MaxTokens:   s.config.MaxTokens,
			Format:      "json",
		})
	})
	if err != nil {
		return nil, err
	}

	return parseResponse(raw.(string))
}

// parseResponse parses model output into a validated flow specification.
// Accidental code-fence wrapping is stripped defensively; parse and
// validation failures are both retryable since the model may have violated
// its contract.
func parseResponse(response string) (*flow.FlowSpec, error) {
	response = stripCodeFence(response)

	var spec flow.FlowSpec
	if err := json.Unmarshal([]byte(response), &spec); err != nil {
		return nil, apperrors.NewInvalidInput("model returned malformed JSON: " + err.Error())
	}

	if err := flow.ValidateGenerated(&spec); err != nil {
		return nil, err
	}
	return &spec, nil
}

// stripCodeFence removes markdown code-fence wrapping the model sometimes
// adds despite the output contract.
func stripCodeFence(response string) string {
	response = strings.TrimSpace(response)
	if strings.HasPrefix(response, "```") {
		response = strings.TrimPrefix(response, "```json")
		response = strings.TrimPrefix(response, "```")
		response = strings.TrimSuffix(response, "```")
		response = strings.TrimSpace(response)
	}
	return response
}
