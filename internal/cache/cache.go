package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"materialapi/internal/config"
)

// ErrMiss is returned when the requested key is absent (or caching is disabled).
var ErrMiss = errors.New("cache miss")

// ListCache provides helpers around Redis for caching the status-filtered
// material lists. A nil client disables caching: Get reports a miss and the
// write paths are no-ops, so callers never need to special-case deployments
// without Redis.
type ListCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// New constructs a ListCache. client may be nil.
func New(client *redis.Client, ttl time.Duration, logger *zap.Logger) *ListCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ListCache{client: client, ttl: ttl, logger: logger}
}

// NewClient builds a Redis client from config, or nil when no address is set.
func NewClient(cfg config.RedisConfig) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// Get retrieves and unmarshals the cached value into the provided destination.
func (c *ListCache) Get(ctx context.Context, key string, dest interface{}) error {
	if c.client == nil {
		return ErrMiss
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return ErrMiss
		}
		return fmt.Errorf("redis get %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal cache value for %s: %w", key, err)
	}

	return nil
}

// Set marshals the provided value and stores it with the configured TTL.
func (c *ListCache) Set(ctx context.Context, key string, value interface{}) error {
	if c.client == nil {
		return nil
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}

	return nil
}

// Invalidate removes cached entries matching the provided pattern.
func (c *ListCache) Invalidate(ctx context.Context, pattern string) error {
	if c.client == nil {
		return nil
	}

	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if err := c.client.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("redis delete %s: %w", key, err)
		}
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan pattern %s: %w", pattern, err)
	}

	return nil
}

// InvalidateAsync runs Invalidate and only logs failures. Stale list entries
// expire via TTL anyway, so invalidation errors must not fail the write path.
func (c *ListCache) InvalidateAsync(ctx context.Context, pattern string) {
	if err := c.Invalidate(ctx, pattern); err != nil {
		c.logger.Warn("cache invalidation failed",
			zap.String("pattern", pattern),
			zap.Error(err),
		)
	}
}
