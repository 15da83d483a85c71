package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const keyPrefix = "lock:"

// releaseScript deletes the lock key only when it still carries our token
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// renewScript extends the lock expiry only when it still carries our token
var renewScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
end
return 0
`)

// RedisLocker implements Locker on a shared Redis instance
type RedisLocker struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewRedisLocker creates a Redis-backed distributed locker
func NewRedisLocker(client *redis.Client, logger zerolog.Logger) *RedisLocker {
	return &RedisLocker{
		client: client,
		logger: logger.With().Str("component", "lock").Logger(),
	}
}

// Acquire takes the named lock with a fresh owner token and a lease expiry
func (l *RedisLocker) Acquire(ctx context.Context, name string, ttl time.Duration) (*Lease, error) {
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, keyPrefix+name, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", name, err)
	}
	if !ok {
		return nil, ErrNotAcquired
	}

	l.logger.Debug().Str("lock", name).Str("token", token).Msg("Acquired lock")

	return &Lease{
		Name:      name,
		Token:     token,
		ExpiresAt: time.Now().Add(ttl),
	}, nil
}

// Renew extends the lease of a lock still held by the caller's token
func (l *RedisLocker) Renew(ctx context.Context, lease *Lease, ttl time.Duration) error {
	res, err := renewScript.Run(ctx, l.client, []string{keyPrefix + lease.Name}, lease.Token, ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("failed to renew lock %s: %w", lease.Name, err)
	}
	if res == 0 {
		return ErrNotHeld
	}
	lease.ExpiresAt = time.Now().Add(ttl)
	return nil
}

// Release frees the lock when the caller's token still owns it
func (l *RedisLocker) Release(ctx context.Context, lease *Lease) error {
	res, err := releaseScript.Run(ctx, l.client, []string{keyPrefix + lease.Name}, lease.Token).Int()
	if err != nil {
		return fmt.Errorf("failed to release lock %s: %w", lease.Name, err)
	}
	if res == 0 {
		return ErrNotHeld
	}

	l.logger.Debug().Str("lock", lease.Name).Msg("Released lock")
	return nil
}
