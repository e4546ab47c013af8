package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/tramita-labs/expediente-engine/pkg/models"
)

const redisKeyPrefix = "expediente:result:"

// RedisCache is a shared ResultCache tier backed by Redis. Results are
// stored as JSON under a fingerprint-derived key with TTL expiry.
// Failures degrade to cache misses; the engine recomputes instead.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisCache creates a RedisCache with the given TTL.
func NewRedisCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &RedisCache{client: client, ttl: ttl, logger: logger.Named("result-cache")}
}

var _ ResultCache = (*RedisCache)(nil)

func (c *RedisCache) Get(ctx context.Context, key string) (*models.AnalyticsResult, bool) {
	payload, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("Redis get failed", zap.Error(err))
		}
		return nil, false
	}

	var result models.AnalyticsResult
	if err := json.Unmarshal(payload, &result); err != nil {
		c.logger.Warn("Failed to decode cached result", zap.Error(err))
		return nil, false
	}
	return &result, true
}

func (c *RedisCache) Set(ctx context.Context, key string, result *models.AnalyticsResult) {
	payload, err := json.Marshal(result)
	if err != nil {
		c.logger.Warn("Failed to encode result for cache", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, redisKeyPrefix+key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("Redis set failed", zap.Error(err))
	}
}
