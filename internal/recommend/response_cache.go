package recommend

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/smarttravel/recommender/internal/cache"
	"github.com/smarttravel/recommender/internal/metrics"
	"github.com/smarttravel/recommender/internal/observability"
)

// ResponseCache stores whole recommendation responses.
type ResponseCache struct {
	client cache.Client
	logger *observability.Logger
	config ResponseCacheConfig
}

// ResponseCacheConfig configures the response cache.
type ResponseCacheConfig struct {
	// TTL should not exceed the catalog TTL, or cached replies outlive the
	// data they were ranked from.
	TTL       time.Duration
	KeyPrefix string
	Enabled   bool
}

// DefaultResponseCacheConfig returns default cache configuration.
func DefaultResponseCacheConfig() ResponseCacheConfig {
	return ResponseCacheConfig{
		TTL:       time.Minute,
		KeyPrefix: "recommend",
		Enabled:   true,
	}
}

// NewResponseCache creates a response cache over client.
func NewResponseCache(client cache.Client, logger *observability.Logger, config ResponseCacheConfig) *ResponseCache {
	if config.KeyPrefix == "" {
		config.KeyPrefix = "recommend"
	}
	if config.TTL <= 0 {
		config.TTL = time.Minute
	}
	if logger == nil {
		logger = observability.Nop()
	}
	return &ResponseCache{
		client: client,
		logger: logger.WithComponent("response_cache"),
		config: config,
	}
}

type cachedResponse struct {
	Response *Response `json:"response"`
	CachedAt time.Time `json:"cached_at"`
}

// Key derives the cache key for a parsed query. The key keeps diacritics
// because "phở" and "pho" are ranked in different modes.
func (c *ResponseCache) Key(q Query, limit int) string {
	sum := sha256.Sum256([]byte(q.Mode.String() + "|" + q.Canonical + "|" + strconv.Itoa(limit)))
	return cache.Key(c.config.KeyPrefix, hex.EncodeToString(sum[:16]))
}

// Get returns a cached response for the query, if any.
func (c *ResponseCache) Get(ctx context.Context, q Query, limit int) (*Response, bool) {
	if !c.config.Enabled || c.client == nil {
		return nil, false
	}

	key := c.Key(q, limit)
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Warn().Err(err).Str("key", key).Msg("Cache get error")
		}
		metrics.RecordCacheLookup(false)
		return nil, false
	}

	var cached cachedResponse
	if err := json.Unmarshal(data, &cached); err != nil || cached.Response == nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Failed to unmarshal cached response")
		metrics.RecordCacheLookup(false)
		return nil, false
	}

	metrics.RecordCacheLookup(true)
	c.logger.Debug().Str("key", key).Msg("Cache hit")
	return cached.Response, true
}

// Set stores resp for the query. Failures are logged and otherwise ignored.
func (c *ResponseCache) Set(ctx context.Context, q Query, limit int, resp *Response) {
	if !c.config.Enabled || c.client == nil {
		return
	}

	key := c.Key(q, limit)
	data, err := json.Marshal(cachedResponse{Response: resp, CachedAt: time.Now().UTC()})
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Failed to marshal response")
		return
	}
	if err := c.client.Set(ctx, key, data, c.config.TTL); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Cache set error")
	}
}

// Purge drops every cached response.
func (c *ResponseCache) Purge(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	return c.client.DeleteByPrefix(ctx, c.config.KeyPrefix+":")
}
