// Package config loads application configuration from the environment, with
// an optional YAML overrides file that can be hot reloaded in development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment is the deployment environment the service runs in.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// Config is the full application configuration.
type Config struct {
	Environment Environment

	Server     Server
	Supabase   Supabase
	Generation Generation
	Media      Media
	Storage    Storage
	Tracing    Tracing
	LogLevel   string
}

// Server holds the HTTP listener settings.
type Server struct {
	Port            int
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// Supabase holds the row store and auth connection settings.
type Supabase struct {
	URL        string
	ServiceKey string
}

// Generation selects the LLM provider and its retry behavior. The non-secret
// fields can be overridden at runtime through the overrides file.
type Generation struct {
	Provider       string // "openai", "gemini", or "mock"
	OpenAIKey      string
	OpenAIModel    string
	GeminiKey      string
	GeminiModel    string
	MaxAttempts    int
	InitialBackoff time.Duration
	Temperature    float64
	MaxTokens      int
}

// Media holds the photo search provider settings.
type Media struct {
	UnsplashAccessKey string
}

// Storage holds the upload bucket settings.
type Storage struct {
	Bucket string
}

// Tracing holds the OTLP exporter settings. An empty endpoint disables
// tracing.
type Tracing struct {
	Endpoint    string
	ServiceName string
}

// Load reads configuration from environment variables.
func Load() *Config {
	env := Environment(getEnv("ENVIRONMENT", string(Development)))

	return &Config{
		Environment: env,
		Server: Server{
			Port:            getEnvInt("SERVER_PORT", 8080),
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 120*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			AllowedOrigins:  splitList(getEnv("ALLOWED_ORIGINS", "*")),
		},
		Supabase: Supabase{
			URL:        os.Getenv("SUPABASE_URL"),
			ServiceKey: os.Getenv("SUPABASE_SERVICE_KEY"),
		},
		Generation: Generation{
			Provider:       getEnv("GENERATION_PROVIDER", "openai"),
			OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
			OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			GeminiKey:      os.Getenv("GEMINI_API_KEY"),
			GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			MaxAttempts:    getEnvInt("GENERATION_MAX_ATTEMPTS", 3),
			InitialBackoff: getEnvDuration("GENERATION_INITIAL_BACKOFF", time.Second),
			Temperature:    getEnvFloat("GENERATION_TEMPERATURE", 0.8),
			MaxTokens:      getEnvInt("GENERATION_MAX_TOKENS", 4000),
		},
		Media: Media{
			UnsplashAccessKey: os.Getenv("UNSPLASH_ACCESS_KEY"),
		},
		Storage: Storage{
			Bucket: getEnv("STORAGE_BUCKET", "gift-assets"),
		},
		Tracing: Tracing{
			Endpoint:    os.Getenv("OTLP_ENDPOINT"),
			ServiceName: getEnv("SERVICE_NAME", "giftflow-backend"),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate rejects configurations that cannot run. Secrets are only
// mandatory outside development, where the mock provider and an in-memory
// workflow are acceptable.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Generation.MaxAttempts < 1 {
		return fmt.Errorf("generation max attempts must be at least 1")
	}

	switch c.Generation.Provider {
	case "openai", "gemini", "mock":
	default:
		return fmt.Errorf("unknown generation provider %q", c.Generation.Provider)
	}

	if c.Environment == Production {
		if c.Supabase.URL == "" || c.Supabase.ServiceKey == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_KEY are required in production")
		}
		if c.Generation.Provider == "openai" && c.Generation.OpenAIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
		if c.Generation.Provider == "gemini" && c.Generation.GeminiKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for the gemini provider")
		}
		if c.Generation.Provider == "mock" {
			return fmt.Errorf("mock generation provider is not allowed in production")
		}
	}
	return nil
}

// IsDevelopment reports whether the service runs in development.
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
