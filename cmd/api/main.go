package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	postgrest "github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"
	"go.uber.org/zap"

	"giftflow-backend/internal/config"
	"giftflow-backend/internal/interfaces/http/rest"
	"giftflow-backend/internal/observability"
	postgrestrepo "giftflow-backend/internal/repository/postgrest"
	"giftflow-backend/internal/service/assets"
	"giftflow-backend/internal/service/flows"
	"giftflow-backend/internal/service/generation"
	"giftflow-backend/internal/service/media"
	"giftflow-backend/internal/service/sessions"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Runtime overrides for generation settings; hot reloaded in development.
	watcher, err := config.NewWatcher(cfg, os.Getenv("GENERATION_OVERRIDES_FILE"), logger)
	if err != nil {
		logger.Fatal("Failed to set up config watcher", zap.Error(err))
	}
	defer watcher.Stop()
	genCfg := watcher.Generation()

	supabaseClient, err := supabase.NewClient(cfg.Supabase.URL, cfg.Supabase.ServiceKey, nil)
	if err != nil {
		logger.Fatal("Failed to create supabase client", zap.Error(err))
	}
	db := postgrest.NewClient(cfg.Supabase.URL+"/rest/v1", "", map[string]string{
		"apikey":        cfg.Supabase.ServiceKey,
		"Authorization": "Bearer " + cfg.Supabase.ServiceKey,
	})
	repos := postgrestrepo.New(db)

	metrics := observability.NewCollector("giftflow")

	if cfg.Tracing.Endpoint != "" {
		tp, err := observability.InitTracing(cfg.Tracing.ServiceName, string(cfg.Environment), cfg.Tracing.Endpoint)
		if err != nil {
			logger.Warn("Tracing disabled", zap.Error(err))
		} else {
			defer tp.Shutdown(context.Background())
		}
	}

	provider, err := newProvider(ctx, genCfg)
	if err != nil {
		logger.Fatal("Failed to create generation provider", zap.Error(err))
	}
	generator := generation.NewService(provider, generation.Config{
		MaxAttempts:    genCfg.MaxAttempts,
		InitialBackoff: genCfg.InitialBackoff,
		Temperature:    genCfg.Temperature,
		MaxTokens:      genCfg.MaxTokens,
	}, logger)

	var photoProvider media.Provider
	if cfg.Media.UnsplashAccessKey != "" {
		photoProvider = media.NewUnsplashProvider(cfg.Media.UnsplashAccessKey)
	}
	resolver := media.NewResolver(photoProvider, metrics, logger)

	flowService := flows.NewService(
		repos.Projects, repos.Nodes, repos.Sessions,
		generator, resolver, metrics, logger,
	)
	sessionService := sessions.NewService(repos.Projects, repos.Nodes, repos.Sessions, metrics, logger)
	assetService := assets.NewService(supabaseClient.Storage, cfg.Storage.Bucket, repos.Assets, logger)

	router := rest.NewRouter(
		flowService, sessionService, assetService,
		supabaseClient, metrics, cfg.Server.AllowedOrigins, logger,
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("Starting server",
			zap.String("address", srv.Addr),
			zap.String("environment", string(cfg.Environment)),
			zap.String("generationProvider", genCfg.Provider),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}
	logger.Info("Server stopped")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	zapCfg := zap.NewProductionConfig()
	if err := zapCfg.Level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	return zapCfg.Build()
}

func newProvider(ctx context.Context, gen config.Generation) (generation.Provider, error) {
	switch gen.Provider {
	case "openai":
		return generation.NewOpenAIProvider(gen.OpenAIKey, gen.OpenAIModel), nil
	case "gemini":
		return generation.NewGeminiProvider(ctx, gen.GeminiKey, gen.GeminiModel)
	case "mock":
		return generation.NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown generation provider %q", gen.Provider)
	}
}
