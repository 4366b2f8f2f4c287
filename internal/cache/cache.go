// Package cache memoizes ticketing metadata lookups (mailboxes, ticket fields).
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache stores JSON-encoded values by key.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Noop never hits.
type Noop struct{}

func (Noop) Get(context.Context, string, any) (bool, error)       { return false, nil }
func (Noop) Set(context.Context, string, any, time.Duration) error { return nil }

// RedisCache stores values under prefix in Redis.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache returns Noop when client is nil.
func NewRedisCache(client *redis.Client, prefix string) Cache {
	if client == nil {
		return Noop{}
	}
	return &RedisCache{client: client, prefix: prefix}
}

func (c *RedisCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.prefix+key, raw, ttl).Err()
}

// Remember returns the cached value for key or loads and stores it. Cache errors are
// logged and never fail the lookup.
func Remember[T any](ctx context.Context, c Cache, logger *zap.Logger, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var cached T
	if c == nil {
		c = Noop{}
	}
	hit, err := c.Get(ctx, key, &cached)
	if err != nil {
		logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}
	if hit {
		return cached, nil
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}
	if ttl > 0 {
		if err := c.Set(ctx, key, value, ttl); err != nil {
			logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return value, nil
}
