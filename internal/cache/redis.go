package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisCache wraps Redis operations for the shared watermark and price entries
type RedisCache struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewRedisCache creates a new Redis cache client
func NewRedisCache(redisURL string, logger zerolog.Logger) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info().Str("redis_url", redisURL).Msg("Connected to Redis successfully")

	return &RedisCache{
		client: client,
		logger: logger.With().Str("component", "cache").Logger(),
	}, nil
}

// Get reads a cache entry, reporting whether the key exists
func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	result, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get cache key %s: %w", key, err)
	}
	return result, true, nil
}

// Set writes a cache entry with the given expiry
func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache key %s: %w", key, err)
	}
	return nil
}

// Client exposes the underlying Redis client for components sharing the
// connection, such as the distributed lock
func (c *RedisCache) Client() *redis.Client {
	return c.client
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}
