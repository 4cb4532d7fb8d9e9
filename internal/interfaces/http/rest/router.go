// Package rest wires the chi router: middleware stack, authenticated
// editing routes, anonymous playback routes, and operational endpoints.
package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/supabase-community/supabase-go"
	"go.uber.org/zap"

	"giftflow-backend/internal/interfaces/http/rest/handlers"
	"giftflow-backend/internal/interfaces/http/rest/middleware"
	"giftflow-backend/internal/observability"
	"giftflow-backend/internal/service/assets"
	"giftflow-backend/internal/service/flows"
	"giftflow-backend/internal/service/sessions"
)

// Router creates and configures the HTTP router.
type Router struct {
	flows          *flows.Service
	sessions       *sessions.Service
	assets         *assets.Service
	supabase       *supabase.Client
	metrics        *observability.Collector
	allowedOrigins []string
	logger         *zap.Logger
}

// NewRouter creates a new router instance.
func NewRouter(
	flowService *flows.Service,
	sessionService *sessions.Service,
	assetService *assets.Service,
	supabaseClient *supabase.Client,
	metrics *observability.Collector,
	allowedOrigins []string,
	logger *zap.Logger,
) *Router {
	return &Router{
		flows:          flowService,
		sessions:       sessionService,
		assets:         assetService,
		supabase:       supabaseClient,
		metrics:        metrics,
		allowedOrigins: allowedOrigins,
		logger:         logger,
	}
}

// Setup configures all routes and middleware.
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	router.Use(middleware.Metrics(rt.metrics))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	router.Handle("/metrics", rt.metrics.Handler())

	flowHandler := handlers.NewFlowHandler(rt.flows, rt.logger)
	nodeHandler := handlers.NewNodeHandler(rt.flows, rt.logger)
	playbackHandler := handlers.NewPlaybackHandler(rt.flows, rt.sessions, rt.logger)
	assetHandler := handlers.NewAssetHandler(rt.assets, rt.logger)

	router.Route("/api/v1", func(r chi.Router) {
		// Authenticated editing surface.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(rt.supabase, rt.logger))

			r.Route("/flows", func(r chi.Router) {
				r.Post("/", flowHandler.Generate)
				r.Get("/", flowHandler.List)
				r.Get("/{projectID}", flowHandler.Get)
				r.Patch("/{projectID}", flowHandler.Update)
				r.Delete("/{projectID}", flowHandler.Delete)
				r.Post("/{projectID}/publish", flowHandler.Publish)
				r.Post("/{projectID}/unpublish", flowHandler.Unpublish)

				r.Route("/{projectID}/nodes", func(r chi.Router) {
					r.Post("/", nodeHandler.Insert)
					r.Put("/order", nodeHandler.Reorder)
					r.Put("/{nodeID}", nodeHandler.Update)
					r.Delete("/{nodeID}", nodeHandler.Delete)
				})
			})

			r.Route("/assets", func(r chi.Router) {
				r.Post("/", assetHandler.Upload)
				r.Get("/{assetID}", assetHandler.Get)
				r.Delete("/{assetID}", assetHandler.Delete)
			})
		})

		// Anonymous playback surface.
		r.Route("/play", func(r chi.Router) {
			r.Get("/{slug}", playbackHandler.GetFlow)
			r.Post("/{slug}/sessions", playbackHandler.StartSession)
			r.Post("/sessions/{sessionID}/answers", playbackHandler.Answer)
			r.Post("/sessions/{sessionID}/complete", playbackHandler.CompleteSession)
		})
	})

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
