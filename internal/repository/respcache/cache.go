// Package respcache is a fail-open JSON response cache over a key-value backend.
//
// Every failure mode (backend unset, unreachable, malformed payload) is
// observable only as a miss on Get or a dropped write on Set.
package respcache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/fusionrag/internal/cachekey"
	"github.com/kailas-cloud/fusionrag/internal/db"
)

// DefaultTTL applies when the configuration does not set one.
const DefaultTTL = 600 * time.Second

// store is the consumer interface for the response cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Cache stores JSON-serializable values under content-addressed keys.
// A nil *Cache and a Cache without a store are both valid and permanently miss.
type Cache struct {
	store      store
	defaultTTL time.Duration
	hits       *prometheus.CounterVec
	requests   *prometheus.CounterVec
	logger     *zap.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithHitCounter sets the counter incremented on hits, labelled by key tier.
func WithHitCounter(c *prometheus.CounterVec) Option {
	return func(rc *Cache) { rc.hits = c }
}

// WithRequestCounter sets the lookup counter, labelled by tier and result.
func WithRequestCounter(c *prometheus.CounterVec) Option {
	return func(rc *Cache) { rc.requests = c }
}

// New creates a cache over s. A nil s yields a disabled cache.
// defaultTTL <= 0 means entries written through Set never expire.
func New(s store, defaultTTL time.Duration, logger *zap.Logger, opts ...Option) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Cache{
		store:      s,
		defaultTTL: defaultTTL,
		logger:     logger.With(zap.String("component", "respcache")),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Disabled returns a cache on which every Get misses and every Set is a no-op.
func Disabled() *Cache {
	return &Cache{logger: zap.NewNop()}
}

// Enabled reports whether a backend is configured.
func (c *Cache) Enabled() bool {
	return c != nil && c.store != nil
}

// Get decodes the value stored at key into dst and reports whether it was a hit.
func (c *Cache) Get(ctx context.Context, key string, dst any) bool {
	tier := cachekey.Tier(key)
	if !c.Enabled() {
		c.countRequest(tier, "disabled")
		return false
	}

	data, err := c.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			c.countRequest(tier, "miss")
		} else {
			c.countRequest(tier, "error")
			c.logger.Warn("Cache get failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if len(data) == 0 {
		c.countRequest(tier, "miss")
		return false
	}

	if err := json.Unmarshal(data, dst); err != nil {
		c.countRequest(tier, "error")
		c.logger.Warn("Cache payload malformed", zap.String("key", key), zap.Error(err))
		return false
	}

	c.countRequest(tier, "hit")
	if c.hits != nil {
		c.hits.WithLabelValues(tier).Inc()
	}
	return true
}

// Set stores value with the default TTL. Failures are logged and dropped.
func (c *Cache) Set(ctx context.Context, key string, value any) {
	if c == nil {
		return
	}
	c.SetWithTTL(ctx, key, value, c.defaultTTL)
}

// SetWithTTL stores value with ttl. A ttl <= 0 writes without expiry.
// Failures are logged and dropped.
func (c *Cache) SetWithTTL(ctx context.Context, key string, value any, ttl time.Duration) {
	if !c.Enabled() {
		return
	}

	payload, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("Cache value not serializable", zap.String("key", key), zap.Error(err))
		return
	}

	if ttl < 0 {
		ttl = 0
	}
	if err := c.store.SetWithTTL(ctx, key, payload, ttl); err != nil {
		c.logger.Warn("Cache set failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *Cache) countRequest(tier, result string) {
	if c != nil && c.requests != nil {
		c.requests.WithLabelValues(tier, result).Inc()
	}
}
