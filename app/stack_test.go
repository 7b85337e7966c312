package app

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hiko-crawler/config"
	"hiko-crawler/events"
	"hiko-crawler/storage"
	"hiko-crawler/utils"
)

func TestOpenInProcessDefaults(t *testing.T) {
	cfg := &config.Config{StoreDriver: "memory"}

	s, err := Open(context.Background(), cfg, utils.NewDiscardLogger())
	require.NoError(t, err)
	defer s.Close()

	assert.IsType(t, &storage.MemoryStore{}, s.Store)
	assert.IsType(t, &storage.MemoryStateStore{}, s.States)
	assert.IsType(t, &storage.MemoryLocker{}, s.Locker)
	assert.IsType(t, events.NopPublisher{}, s.Publisher)
}

func TestOpenWithRedisAndPebble(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &config.Config{
		StoreDriver: "memory",
		RedisAddr:   mr.Addr(),
		StateDir:    t.TempDir(),
	}

	s, err := Open(context.Background(), cfg, utils.NewDiscardLogger())
	require.NoError(t, err)

	assert.IsType(t, &storage.RedisLocker{}, s.Locker)
	assert.IsType(t, &storage.PebbleStateStore{}, s.States)

	release, ok, err := s.Locker.TryLock(context.Background(), "ppomppu", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	release()

	require.NoError(t, s.Close())
	assert.NoError(t, s.Close(), "second close is a no-op")
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), &config.Config{StoreDriver: "mongo"}, utils.NewDiscardLogger())
	assert.ErrorContains(t, err, "mongo")
}

func TestOpenRedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := Open(context.Background(), &config.Config{StoreDriver: "memory", RedisAddr: addr}, utils.NewDiscardLogger())
	assert.Error(t, err)
}
