// Package lock provides the lease-based distributed mutex that serializes the
// named cron jobs across replicas. An acquire that finds the lock held fails
// with ErrNotAcquired and the caller simply waits for its next tick; leases
// expire on their own so a crashed holder never blocks future runs.
package lock

import (
	"context"
	"errors"
	"time"
)

// ErrNotAcquired is returned when the named lock is already held elsewhere
var ErrNotAcquired = errors.New("lock already held")

// ErrNotHeld is returned when renewing or releasing a lease that is no longer
// owned by the caller's token
var ErrNotHeld = errors.New("lock not held by this token")

// Lease identifies one acquisition of a named lock. Renew and Release require
// the token so a stale holder cannot release a successor's lease.
type Lease struct {
	Name      string
	Token     string
	ExpiresAt time.Time
}

// Locker is the distributed mutual-exclusion primitive for named jobs
type Locker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (*Lease, error)
	Renew(ctx context.Context, lease *Lease, ttl time.Duration) error
	Release(ctx context.Context, lease *Lease) error
}

// WithLock runs fn while holding the named lock, releasing it on return.
// Contention is reported as ErrNotAcquired without invoking fn.
func WithLock(ctx context.Context, locker Locker, name string, ttl time.Duration, fn func(ctx context.Context) error) error {
	lease, err := locker.Acquire(ctx, name, ttl)
	if err != nil {
		return err
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = locker.Release(releaseCtx, lease)
	}()

	return fn(ctx)
}
