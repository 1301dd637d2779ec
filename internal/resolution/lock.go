package resolution

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	pkgredis "github.com/quotedesk/quotedesk-backend/pkg/redis"
)

const defaultLockTTL = 2 * time.Minute

// Locker hands out per-quotation resolution locks.
type Locker interface {
	Acquire(ctx context.Context, quotationID uuid.UUID) (Lock, error)
}

// Lock is one held resolution lock.
type Lock interface {
	Release(ctx context.Context) error
}

// RedisLocker implements Locker with Redis SETNX + TTL. The TTL bounds how
// long a crashed resolver can block the quotation.
type RedisLocker struct {
	store pkgredis.LockStore
	ttl   time.Duration
}

// NewRedisLocker constructs a Redis-backed resolution locker.
func NewRedisLocker(store pkgredis.LockStore, ttl time.Duration) (*RedisLocker, error) {
	if store == nil {
		return nil, errors.New("redis store required for resolution locks")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLocker{store: store, ttl: ttl}, nil
}

// Acquire tries to own the quotation's resolution lock for the configured
// TTL. A lock already held by a concurrent resolver returns ErrLockHeld.
func (l *RedisLocker) Acquire(ctx context.Context, quotationID uuid.UUID) (Lock, error) {
	key := l.store.LockKey(pkgredis.ScopeResolve, quotationID.String())
	owner := uuid.NewString()
	ok, err := l.store.SetNX(ctx, key, owner, l.ttl)
	if err != nil {
		return nil, fmt.Errorf("setnx: %w", err)
	}
	if !ok {
		return nil, ErrLockHeld
	}
	return &redisLock{store: l.store, key: key, owner: owner}, nil
}

// ErrLockHeld reports that another resolver currently owns the lock.
var ErrLockHeld = errors.New("resolution lock already held")

type redisLock struct {
	store pkgredis.LockStore
	key   string
	owner string
}

// Release frees the lock only if the owner value still matches, so an
// expired lock reacquired by someone else is left alone.
func (l *redisLock) Release(ctx context.Context) error {
	if l.owner == "" {
		return nil
	}
	value, err := l.store.Get(ctx, l.key)
	if err != nil {
		if pkgredis.IsNil(err) {
			return nil
		}
		return fmt.Errorf("read lock owner: %w", err)
	}
	if value != l.owner {
		return nil
	}
	if err := l.store.Del(ctx, l.key); err != nil {
		return fmt.Errorf("delete lock: %w", err)
	}
	l.owner = ""
	return nil
}
