package resolution

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryLockStore struct {
	values map[string]string
}

func newMemoryLockStore() *memoryLockStore {
	return &memoryLockStore{values: map[string]string{}}
}

func (m *memoryLockStore) Get(ctx context.Context, key string) (string, error) {
	value, ok := m.values[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (m *memoryLockStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	return true, nil
}

func (m *memoryLockStore) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := m.values[key]
	return ok, nil
}

func (m *memoryLockStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

func (m *memoryLockStore) LockKey(scope, id string) string {
	return "qd:lock:" + scope + ":" + id
}

func TestRedisLockerAcquireAndRelease(t *testing.T) {
	store := newMemoryLockStore()
	locker, err := NewRedisLocker(store, time.Minute)
	require.NoError(t, err)
	ctx := context.Background()
	quotationID := uuid.New()

	lock, err := locker.Acquire(ctx, quotationID)
	require.NoError(t, err)
	assert.Len(t, store.values, 1)

	_, err = locker.Acquire(ctx, quotationID)
	assert.ErrorIs(t, err, ErrLockHeld)

	require.NoError(t, lock.Release(ctx))
	assert.Empty(t, store.values)

	// the lock frees up for the next pass
	_, err = locker.Acquire(ctx, quotationID)
	require.NoError(t, err)
}

func TestRedisLockerReleaseLeavesForeignOwner(t *testing.T) {
	store := newMemoryLockStore()
	locker, err := NewRedisLocker(store, time.Minute)
	require.NoError(t, err)
	ctx := context.Background()
	quotationID := uuid.New()

	lock, err := locker.Acquire(ctx, quotationID)
	require.NoError(t, err)

	// simulate TTL expiry followed by another resolver taking the lock
	key := store.LockKey("resolve", quotationID.String())
	store.values[key] = "someone-else"

	require.NoError(t, lock.Release(ctx))
	assert.Equal(t, "someone-else", store.values[key])
}

func TestRedisLockerReleaseAfterExpiry(t *testing.T) {
	store := newMemoryLockStore()
	locker, err := NewRedisLocker(store, time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	lock, err := locker.Acquire(ctx, uuid.New())
	require.NoError(t, err)

	store.values = map[string]string{}
	require.NoError(t, lock.Release(ctx))

	// release twice is a no-op
	require.NoError(t, lock.Release(ctx))
}

func TestNewRedisLockerRequiresStore(t *testing.T) {
	_, err := NewRedisLocker(nil, time.Minute)
	assert.Error(t, err)

	locker, err := NewRedisLocker(newMemoryLockStore(), 0)
	require.NoError(t, err)
	assert.Equal(t, defaultLockTTL, locker.ttl)
}
