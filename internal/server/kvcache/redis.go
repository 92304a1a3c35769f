package kvcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache adapts *redis.Client to the Cache interface.
type RedisCache struct {
	rc *redis.Client
}

func NewRedisCache(rc *redis.Client) *RedisCache {
	return &RedisCache{rc: rc}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := c.rc.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // cache miss
		}
		return nil, fmt.Errorf("failed to get cache: %w", err)
	}
	return result, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := c.rc.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.rc.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete cache: %w", err)
	}
	return nil
}

func (c *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.rc.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check cache: %w", err)
	}
	return n > 0, nil
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.rc.Ping(ctx).Err()
}
