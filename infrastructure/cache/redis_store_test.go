package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"media-aggregator/domain/repository"
)

func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisStore(client, time.Hour), mr
}

func TestRedisStore_SetGet(t *testing.T) {
	ctx := context.Background()
	store, mr := setupTestRedis(t)

	expiresAt := time.Now().Add(time.Minute)
	require.NoError(t, store.Set(ctx, "mediacache_a", []byte("payload"), expiresAt))

	got, err := store.Get(ctx, "mediacache_a")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)

	ttl := mr.TTL("mediacache_a")
	assert.Greater(t, ttl, time.Hour, "stale retention extends the key lifetime")
}

func TestRedisStore_Miss(t *testing.T) {
	store, _ := setupTestRedis(t)

	_, err := store.Get(context.Background(), "nope")

	assert.ErrorIs(t, err, repository.ErrCacheMiss)
}

func TestRedisStore_KeyDropsAfterRetention(t *testing.T) {
	ctx := context.Background()
	store, mr := setupTestRedis(t)

	require.NoError(t, store.Set(ctx, "mediacache_a", []byte("v"), time.Now().Add(time.Minute)))
	mr.FastForward(2 * time.Hour)

	_, err := store.Get(ctx, "mediacache_a")
	assert.ErrorIs(t, err, repository.ErrCacheMiss)
}

func TestRedisStore_DeletePrefix(t *testing.T) {
	ctx := context.Background()
	store, mr := setupTestRedis(t)

	expiresAt := time.Now().Add(time.Minute)
	for _, k := range []string{"mediacache_a", "mediacache_b", "other_a"} {
		require.NoError(t, store.Set(ctx, k, []byte("v"), expiresAt))
	}

	require.NoError(t, store.DeletePrefix(ctx, "mediacache_"))

	assert.False(t, mr.Exists("mediacache_a"))
	assert.False(t, mr.Exists("mediacache_b"))
	assert.True(t, mr.Exists("other_a"))
}

func TestRedisStore_Delete(t *testing.T) {
	ctx := context.Background()
	store, mr := setupTestRedis(t)

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Now().Add(time.Minute)))
	require.NoError(t, store.Delete(ctx, "k"))
	require.NoError(t, store.Delete(ctx, "k"))

	assert.False(t, mr.Exists("k"))
}

func TestEscapeGlob(t *testing.T) {
	assert.Equal(t, `a\*b\?c\[d\]`, escapeGlob("a*b?c[d]"))
}

func TestNewRedisClient(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := NewRedisClient(context.Background(), mr.Addr(), "", "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	_, err = NewRedisClient(context.Background(), "127.0.0.1:1", "", "", 0)
	assert.Error(t, err)
}
