package main

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/smarttravel/recommender/cmd/recommender-api/handlers"
	"github.com/smarttravel/recommender/cmd/recommender-api/middleware"
	"github.com/smarttravel/recommender/internal/config"
	"github.com/smarttravel/recommender/internal/observability"
	"github.com/smarttravel/recommender/internal/recommend"
)

// RouterDeps are the services the routes call into.
type RouterDeps struct {
	Engine  handlers.Recommender
	Ping    func(ctx context.Context) error
	Catalog func() *recommend.Snapshot
}

// NewRouter creates the main API router with all routes configured.
func NewRouter(logger *observability.Logger, cfg *config.Config, deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.HTTP.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if cfg.HTTP.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(cfg.HTTP.RequestTimeout))
	}

	health := handlers.NewHealthHandler(logger, cfg.Observability.ServiceName, deps.Ping, deps.Catalog)
	r.Get("/health", health.Health)
	r.Get("/ready", health.Ready)
	r.Handle("/metrics", promhttp.Handler())

	recommendHandler := handlers.NewRecommendHandler(logger, deps.Engine, cfg.Recommend.DefaultLimit, cfg.Recommend.MaxLimit)

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.HTTP.RateLimit > 0 {
			r.Use(httprate.LimitByIP(cfg.HTTP.RateLimit, cfg.HTTP.RateLimitWindow))
		}

		r.Route("/chat", func(r chi.Router) {
			r.Post("/recommend", recommendHandler.Recommend)
		})
	})

	return r
}
