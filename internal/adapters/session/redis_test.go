package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisStoreFromClient(client, "")
}

func TestRedisStoreTTLExpiry(t *testing.T) {
	mr, store := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "hash-1", time.Second))
	ok, err := store.Exists(ctx, "hash-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, mr.Exists(defaultPrefix+"hash-1"))

	mr.FastForward(2 * time.Second)
	ok, err = store.Exists(ctx, "hash-1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisStoreDeleteAllKeepsForeignKeys(t *testing.T) {
	mr, store := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("other:key", "x"))
	require.NoError(t, store.Save(ctx, "a", time.Hour))
	require.NoError(t, store.Save(ctx, "b", time.Hour))
	require.NoError(t, store.Delete(ctx, "a"))

	ok, err := store.Exists(ctx, "a")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.DeleteAll(ctx))
	ok, err = store.Exists(ctx, "b")
	require.NoError(t, err)
	require.False(t, ok)
	require.True(t, mr.Exists("other:key"))
}

func TestNewRedisStoreRejectsBadURL(t *testing.T) {
	_, err := NewRedisStore(context.Background(), "not-a-url", "")
	require.Error(t, err)
}
