package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLockerExclusive(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	locker := NewRedisLocker(client)
	ctx := context.Background()

	release, ok, err := locker.TryLock(ctx, "ppomppu", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, mr.Exists(PrefixCrawlLock+"ppomppu"))

	_, ok, err = locker.TryLock(ctx, "ppomppu", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second lock on the same source must fail")

	_, ok, err = locker.TryLock(ctx, "clien", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "other sources are independent")

	release()
	assert.False(t, mr.Exists(PrefixCrawlLock+"ppomppu"))

	_, ok, err = locker.TryLock(ctx, "ppomppu", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLockerExpiredLockNotReleasedByOldOwner(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	locker := NewRedisLocker(client)
	ctx := context.Background()

	oldRelease, ok, err := locker.TryLock(ctx, "ruliweb", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)

	_, ok, err = locker.TryLock(ctx, "ruliweb", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	oldRelease()
	assert.True(t, mr.Exists(PrefixCrawlLock+"ruliweb"), "stale owner must not drop the new lock")
}

func TestMemoryLocker(t *testing.T) {
	locker := NewMemoryLocker()
	now := time.Date(2025, 7, 11, 0, 0, 0, 0, time.UTC)
	locker.clock = func() time.Time { return now }
	ctx := context.Background()

	release, ok, _ := locker.TryLock(ctx, "quasarzone", time.Minute)
	require.True(t, ok)

	_, ok, _ = locker.TryLock(ctx, "quasarzone", time.Minute)
	assert.False(t, ok)

	release()
	_, ok, _ = locker.TryLock(ctx, "quasarzone", time.Minute)
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok, _ = locker.TryLock(ctx, "quasarzone", time.Minute)
	assert.True(t, ok, "ttl elapsed")
}
