package state

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedURL = "http://shop.test/zgbs/books"

func newRedisStore(t *testing.T, ttl time.Duration) (CheckpointStore, *miniredis.Miniredis) {
	t.Helper()

	s := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewRedisCheckpointStore(rdb, ttl), s
}

func TestIdentifierEncoding(t *testing.T) {
	assert.Equal(t, []string{}, decodeIdentifiers(encodeIdentifiers(nil)))
	assert.Equal(t, []string{"1", "2", "1"}, decodeIdentifiers(encodeIdentifiers([]string{"1", "2", "1"})))
}

func TestNoopCheckpointStore(t *testing.T) {
	store := NewNoopCheckpointStore()

	require.NoError(t, store.SaveSeed(context.Background(), "http://shop.test", []string{"1"}))

	ids, ok, err := store.LoadSeed(context.Background(), "http://shop.test")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, ids)
}

func TestRedisCheckpointMissingSeed(t *testing.T) {
	store, _ := newRedisStore(t, 0)

	ids, ok, err := store.LoadSeed(context.Background(), seedURL)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, ids)
}

func TestRedisCheckpointRoundTrip(t *testing.T) {
	store, s := newRedisStore(t, 0)
	ctx := context.Background()

	require.NoError(t, store.SaveSeed(ctx, seedURL, []string{"0385537859", "111", "0385537859"}))

	raw, err := s.Get("bestsellers:checkpoint:" + seedURL)
	require.NoError(t, err)
	assert.Equal(t, "0385537859\n111\n0385537859", raw)
	assert.Zero(t, s.TTL("bestsellers:checkpoint:"+seedURL))

	ids, ok, err := store.LoadSeed(ctx, seedURL)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"0385537859", "111", "0385537859"}, ids)
}

func TestRedisCheckpointEmptySeed(t *testing.T) {
	store, _ := newRedisStore(t, 0)
	ctx := context.Background()

	require.NoError(t, store.SaveSeed(ctx, seedURL, nil))

	ids, ok, err := store.LoadSeed(ctx, seedURL)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotNil(t, ids)
	assert.Empty(t, ids)
}

func TestRedisCheckpointExpires(t *testing.T) {
	store, s := newRedisStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.SaveSeed(ctx, seedURL, []string{"111"}))
	assert.Equal(t, time.Hour, s.TTL("bestsellers:checkpoint:"+seedURL))

	s.FastForward(2 * time.Hour)

	_, ok, err := store.LoadSeed(ctx, seedURL)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCheckpointUnavailable(t *testing.T) {
	store, s := newRedisStore(t, 0)
	s.Close()

	_, ok, err := store.LoadSeed(context.Background(), seedURL)
	require.Error(t, err)
	assert.False(t, ok)
	assert.Contains(t, err.Error(), seedURL)
}
