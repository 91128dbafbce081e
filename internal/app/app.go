// Package app wires the recommender components from configuration.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/smarttravel/recommender/internal/cache"
	"github.com/smarttravel/recommender/internal/config"
	"github.com/smarttravel/recommender/internal/observability"
	"github.com/smarttravel/recommender/internal/recommend"
	"github.com/smarttravel/recommender/internal/storage"
)

// App holds the long-lived services shared by the API and the CLI.
type App struct {
	Config      *config.Config
	Logger      *observability.Logger
	DB          *sql.DB
	Restaurants *storage.RestaurantRepository
	Cache       cache.Client
	Responses   *recommend.ResponseCache
	Catalog     *recommend.Catalog
	Engine      *recommend.Engine
}

// New opens the store, selects a cache backend and builds the engine.
// The catalog itself is loaded lazily on the first recommendation.
func New(ctx context.Context, cfg *config.Config, logger *observability.Logger) (*App, error) {
	if logger == nil {
		logger = observability.Nop()
	}

	pool := storage.PoolConfig{MaxOpenConns: cfg.Database.SQLite.MaxOpenConns}
	if cfg.Database.Driver == "postgres" {
		pool = storage.PoolConfig{
			MaxOpenConns:    cfg.Database.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Database.Postgres.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.Postgres.ConnMaxLifetime,
		}
	}

	db, err := storage.Open(ctx, cfg.Database.Driver, cfg.DatabaseDSN(), pool)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	a := &App{
		Config:      cfg,
		Logger:      logger,
		DB:          db,
		Restaurants: storage.NewRestaurantRepository(db),
		Cache:       newCacheClient(ctx, cfg, logger),
	}

	a.Responses = recommend.NewResponseCache(a.Cache, logger, recommend.ResponseCacheConfig{
		TTL:     cfg.Cache.TTL,
		Enabled: cfg.Cache.Enabled,
	})

	a.Catalog = recommend.NewCatalog(a.Restaurants, logger, recommend.CatalogConfig{
		TTL:         cfg.Catalog.TTL,
		LoadTimeout: cfg.Catalog.LoadTimeout,
		Breaker: recommend.BreakerConfig{
			Enabled:          cfg.Catalog.CircuitBreaker.Enabled,
			FailureThreshold: cfg.Catalog.CircuitBreaker.FailureThreshold,
			OpenTimeout:      cfg.Catalog.CircuitBreaker.OpenTimeout,
		},
	})

	a.Engine = recommend.NewEngine(a.Catalog, logger,
		recommend.WithResponseCache(a.Responses),
		recommend.WithMinCandidates(cfg.Catalog.MinCandidates),
		recommend.WithMaxLimit(cfg.Recommend.MaxLimit),
	)

	return a, nil
}

// newCacheClient connects to Redis when configured and falls back to the
// in-process cache if Redis is unreachable.
func newCacheClient(ctx context.Context, cfg *config.Config, logger *observability.Logger) cache.Client {
	if cfg.Cache.Driver == "redis" {
		client, err := cache.NewRedisClient(ctx, cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			PoolSize: cfg.Cache.Redis.PoolSize,
			Prefix:   cfg.Cache.Redis.Prefix,
		})
		if err == nil {
			return client
		}
		logger.Warn().Err(err).Str("addr", cfg.Cache.Redis.Addr).Msg("Redis unavailable, using in-memory cache")
	}
	return cache.NewMemoryClient(cfg.Cache.MaxEntries)
}

// Ready reports whether the store is reachable.
func (a *App) Ready(ctx context.Context) error {
	return a.DB.PingContext(ctx)
}

// Close releases the cache and database connections.
func (a *App) Close() error {
	var errs []error
	if a.Cache != nil {
		errs = append(errs, a.Cache.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}
