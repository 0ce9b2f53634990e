package biz

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/bytedance/sonic"
	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kart-io/docbrain/internal/model"
)

// QueryCacheConfig contains query cache configuration.
type QueryCacheConfig struct {
	// Enabled toggles the cache. Disabled caches never return hits.
	Enabled bool
	// TTL is the cache entry lifetime.
	TTL time.Duration
	// KeyPrefix namespaces cache keys.
	KeyPrefix string
}

// QueryCache caches answered queries in Redis, keyed by user and
// question so one user's answers never leak into another's.
type QueryCache struct {
	redis  *goredis.Client
	config *QueryCacheConfig
}

// NewQueryCache creates a new QueryCache.
func NewQueryCache(redis *goredis.Client, config *QueryCacheConfig) *QueryCache {
	if config == nil {
		config = &QueryCacheConfig{
			Enabled:   false,
			TTL:       1 * time.Hour,
			KeyPrefix: "docbrain:query:",
		}
	}
	return &QueryCache{redis: redis, config: config}
}

func (c *QueryCache) cacheKey(userID, question string) string {
	hash := sha256.Sum256([]byte(userID + "\x00" + question))
	return c.config.KeyPrefix + hex.EncodeToString(hash[:])
}

// Get returns the cached result for a user's question, or nil on miss.
func (c *QueryCache) Get(ctx context.Context, userID, question string) *model.QueryResult {
	if !c.config.Enabled || c.redis == nil {
		return nil
	}

	key := c.cacheKey(userID, question)
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != goredis.Nil {
			logger.Warnw("failed to get from cache", "error", err.Error(), "key", key)
		}
		return nil
	}

	var result model.QueryResult
	if err := sonic.Unmarshal(data, &result); err != nil {
		logger.Warnw("failed to unmarshal cached result", "error", err.Error(), "key", key)
		_ = c.redis.Del(ctx, key).Err()
		return nil
	}

	logger.Debugw("cache hit", "user_id", userID, "key", key)
	return &result
}

// Set writes a query result to the cache.
func (c *QueryCache) Set(ctx context.Context, userID, question string, result *model.QueryResult) {
	if !c.config.Enabled || c.redis == nil {
		return
	}

	key := c.cacheKey(userID, question)
	data, err := sonic.Marshal(result)
	if err != nil {
		logger.Warnw("failed to marshal result for caching", "error", err.Error())
		return
	}

	if err := c.redis.Set(ctx, key, data, c.config.TTL).Err(); err != nil {
		logger.Warnw("failed to set cache", "error", err.Error(), "key", key)
	}
}
