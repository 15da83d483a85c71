package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryLease struct {
	token     string
	expiresAt time.Time
}

// MemoryLocker is an in-process Locker implementation used in tests and
// single-node development setups
type MemoryLocker struct {
	mu    sync.Mutex
	held  map[string]memoryLease
	clock func() time.Time
}

// NewMemoryLocker creates an empty in-memory locker
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		held:  make(map[string]memoryLease),
		clock: time.Now,
	}
}

// Acquire takes the named lock unless an unexpired lease holds it
func (l *MemoryLocker) Acquire(_ context.Context, name string, ttl time.Duration) (*Lease, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	if existing, ok := l.held[name]; ok && now.Before(existing.expiresAt) {
		return nil, ErrNotAcquired
	}

	token := uuid.NewString()
	l.held[name] = memoryLease{token: token, expiresAt: now.Add(ttl)}

	return &Lease{Name: name, Token: token, ExpiresAt: now.Add(ttl)}, nil
}

// Renew extends a lease still owned by the caller's token
func (l *MemoryLocker) Renew(_ context.Context, lease *Lease, ttl time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	existing, ok := l.held[lease.Name]
	if !ok || existing.token != lease.Token || now.After(existing.expiresAt) {
		return ErrNotHeld
	}

	l.held[lease.Name] = memoryLease{token: lease.Token, expiresAt: now.Add(ttl)}
	lease.ExpiresAt = now.Add(ttl)
	return nil
}

// Release frees a lock owned by the caller's token
func (l *MemoryLocker) Release(_ context.Context, lease *Lease) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	existing, ok := l.held[lease.Name]
	if !ok || existing.token != lease.Token {
		return ErrNotHeld
	}

	delete(l.held, lease.Name)
	return nil
}
