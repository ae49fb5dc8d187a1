// internal/cache/cache.go
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"query-orchestrator/internal/common/database"
	"query-orchestrator/internal/common/logger"
	"query-orchestrator/internal/common/metrics"
	"query-orchestrator/internal/models"
)

// ResponseCache stores finished responses in Redis, keyed by category and
// a hash of the normalized query. Every cache failure degrades to a miss;
// the cache can never fail a request.
type ResponseCache struct {
	redis      *database.RedisClient
	keyPrefix  string
	defaultTTL time.Duration
	ttls       atomic.Pointer[map[string]int] // category -> seconds; 0 disables
	logger     logger.Logger
}

func New(rc *database.RedisClient, keyPrefix string, ttlSeconds map[string]int, defaultTTL time.Duration, log logger.Logger) *ResponseCache {
	if keyPrefix == "" {
		keyPrefix = "resp"
	}
	c := &ResponseCache{
		redis:      rc,
		keyPrefix:  keyPrefix,
		defaultTTL: defaultTTL,
		logger:     log.With(map[string]interface{}{"stage": "cache"}),
	}
	if ttlSeconds == nil {
		ttlSeconds = map[string]int{}
	}
	c.ttls.Store(&ttlSeconds)
	return c
}

// ApplyConfig swaps in remote per-category TTLs. Empty keeps the current map.
func (c *ResponseCache) ApplyConfig(rc models.RemoteConfig) {
	if len(rc.CacheTTLSeconds) == 0 {
		return
	}
	c.ttls.Store(&rc.CacheTTLSeconds)
}

// Key is `prefix:{category}:{sha256(normalized)[:16]}`.
func (c *ResponseCache) Key(category models.Category, normalizedQuery string) string {
	sum := sha256.Sum256([]byte(normalizedQuery))
	return fmt.Sprintf("%s:%s:%s", c.keyPrefix, category, hex.EncodeToString(sum[:])[:16])
}

// Get returns the cached response for the query, or found=false on miss,
// expiry, disabled category or any cache error.
func (c *ResponseCache) Get(ctx context.Context, category models.Category, normalizedQuery string) (models.Response, bool) {
	if c.ttl(category) == 0 {
		metrics.CacheLookups.WithLabelValues("disabled").Inc()
		return models.Response{}, false
	}

	raw, err := c.redis.Get(ctx, c.Key(category, normalizedQuery))
	if err != nil {
		if err == redis.Nil {
			metrics.CacheLookups.WithLabelValues("miss").Inc()
		} else {
			metrics.CacheLookups.WithLabelValues("error").Inc()
			c.logger.Warn("cache read failed, treating as miss", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return models.Response{}, false
	}

	var resp models.Response
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		metrics.CacheLookups.WithLabelValues("error").Inc()
		c.logger.Warn("cache entry corrupt, treating as miss", map[string]interface{}{
			"error": err.Error(),
		})
		return models.Response{}, false
	}

	metrics.CacheLookups.WithLabelValues("hit").Inc()
	resp.Cached = true
	return resp, true
}

// Set stores the response under the category TTL. ttl==0 is a no-op;
// write errors are logged and swallowed.
func (c *ResponseCache) Set(ctx context.Context, category models.Category, normalizedQuery string, resp models.Response) {
	ttl := c.ttl(category)
	if ttl == 0 {
		return
	}

	payload, err := json.Marshal(resp)
	if err != nil {
		c.logger.Warn("response not serializable, skipping cache write", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	if err := c.redis.Set(ctx, c.Key(category, normalizedQuery), payload, ttl); err != nil {
		c.logger.Warn("cache write failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (c *ResponseCache) ttl(category models.Category) time.Duration {
	ttls := *c.ttls.Load()
	if seconds, ok := ttls[string(category)]; ok {
		return time.Duration(seconds) * time.Second
	}
	return c.defaultTTL
}
