package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"keylevels/internal/errors"
)

// RedisCache implements Cache backed by Redis.
type RedisCache struct {
	client     *redis.Client
	prefix     string
	defaultTTL time.Duration
}

// RedisConfig holds Redis cache construction options.
type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	Prefix     string
	DefaultTTL time.Duration
}

// NewRedisCache creates a Redis-backed response cache.
func NewRedisCache(cfg RedisConfig) *RedisCache {
	ttl := cfg.DefaultTTL
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	return &RedisCache{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		prefix:     cfg.Prefix,
		defaultTTL: ttl,
	}
}

// Ping verifies connectivity to the Redis backend.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Get unmarshals the cached value for key into dest.
func (c *RedisCache) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.client.Get(ctx, c.prefix+key).Result()
	if err == redis.Nil {
		return errors.ErrCacheMiss
	}
	if err != nil {
		return errors.NewCacheError("get", key, err)
	}
	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return errors.NewCacheError("decode", key, err)
	}
	return nil
}

// Set stores value under key for ttl.
func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	data, err := json.Marshal(value)
	if err != nil {
		return errors.NewCacheError("encode", key, err)
	}
	if err := c.client.Set(ctx, c.prefix+key, data, ttl).Err(); err != nil {
		return errors.NewCacheError("set", key, err)
	}
	return nil
}

// Delete removes a key.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		return errors.NewCacheError("delete", key, err)
	}
	return nil
}

// Close closes the Redis client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
