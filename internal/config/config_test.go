package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("Should apply defaults with an empty environment", func(t *testing.T) {
		cfg := Load()

		assert.Equal(t, Development, cfg.Environment)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, "openai", cfg.Generation.Provider)
		assert.Equal(t, 3, cfg.Generation.MaxAttempts)
		assert.Equal(t, time.Second, cfg.Generation.InitialBackoff)
		assert.Equal(t, "gift-assets", cfg.Storage.Bucket)
	})

	t.Run("Should read overrides from the environment", func(t *testing.T) {
		t.Setenv("SERVER_PORT", "9000")
		t.Setenv("GENERATION_PROVIDER", "mock")
		t.Setenv("GENERATION_INITIAL_BACKOFF", "250ms")
		t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

		cfg := Load()
		assert.Equal(t, 9000, cfg.Server.Port)
		assert.Equal(t, "mock", cfg.Generation.Provider)
		assert.Equal(t, 250*time.Millisecond, cfg.Generation.InitialBackoff)
		assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.AllowedOrigins)
	})

	t.Run("Should ignore malformed numeric values", func(t *testing.T) {
		t.Setenv("SERVER_PORT", "not-a-port")
		cfg := Load()
		assert.Equal(t, 8080, cfg.Server.Port)
	})
}

func TestValidate(t *testing.T) {
	t.Run("Should accept development defaults", func(t *testing.T) {
		cfg := Load()
		assert.NoError(t, cfg.Validate())
	})

	t.Run("Should reject an unknown provider", func(t *testing.T) {
		cfg := Load()
		cfg.Generation.Provider = "oracle"
		assert.Error(t, cfg.Validate())
	})

	t.Run("Should require secrets in production", func(t *testing.T) {
		cfg := Load()
		cfg.Environment = Production
		assert.Error(t, cfg.Validate())
	})

	t.Run("Should forbid the mock provider in production", func(t *testing.T) {
		cfg := Load()
		cfg.Environment = Production
		cfg.Supabase.URL = "https://example.supabase.co"
		cfg.Supabase.ServiceKey = "key"
		cfg.Generation.Provider = "mock"
		assert.Error(t, cfg.Validate())
	})
}

func TestWatcherOverrides(t *testing.T) {
	t.Run("Should overlay the overrides file on generation settings", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "generation.yaml")
		require.NoError(t, os.WriteFile(path, []byte("provider: mock\nmaxAttempts: 5\ntemperature: 0.2\ninitialBackoff: 250ms\n"), 0o644))

		cfg := Load()
		cfg.Environment = Staging // no watch loop, single apply

		w, err := NewWatcher(cfg, path, nil)
		require.NoError(t, err)
		defer w.Stop()

		gen := w.Generation()
		assert.Equal(t, "mock", gen.Provider)
		assert.Equal(t, 5, gen.MaxAttempts)
		assert.InDelta(t, 0.2, float64(gen.Temperature), 0.001)
		assert.Equal(t, 250*time.Millisecond, gen.InitialBackoff)
		// Untouched fields keep their configured values.
		assert.Equal(t, cfg.Generation.MaxTokens, gen.MaxTokens)
	})

	t.Run("Should tolerate a missing overrides file", func(t *testing.T) {
		cfg := Load()
		cfg.Environment = Staging

		w, err := NewWatcher(cfg, filepath.Join(t.TempDir(), "absent.yaml"), nil)
		require.NoError(t, err)
		defer w.Stop()
		assert.Equal(t, cfg.Generation.Provider, w.Generation().Provider)
	})

	t.Run("Should reject a malformed backoff override", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "generation.yaml")
		require.NoError(t, os.WriteFile(path, []byte("initialBackoff: fast\n"), 0o644))

		cfg := Load()
		cfg.Environment = Staging

		_, err := NewWatcher(cfg, path, nil)
		require.Error(t, err)
	})

	t.Run("Should ignore non-positive attempt overrides", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "generation.yaml")
		require.NoError(t, os.WriteFile(path, []byte("maxAttempts: 0\n"), 0o644))

		cfg := Load()
		cfg.Environment = Staging

		w, err := NewWatcher(cfg, path, nil)
		require.NoError(t, err)
		defer w.Stop()
		assert.Equal(t, cfg.Generation.MaxAttempts, w.Generation().MaxAttempts)
	})
}
