package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryStoreExpiresOnRead(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	store := NewMemoryStore(0, clock.Now)
	defer store.Close()

	require.NoError(t, store.Save(ctx, "abc", time.Hour))
	ok, err := store.Exists(ctx, "abc")
	require.NoError(t, err)
	require.True(t, ok)

	clock.Advance(time.Hour)
	ok, err = store.Exists(ctx, "abc")
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 0, store.Len())
}

func TestMemoryStoreSweepAndDelete(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	store := NewMemoryStore(0, clock.Now)
	defer store.Close()

	require.NoError(t, store.Save(ctx, "short", time.Minute))
	require.NoError(t, store.Save(ctx, "long", time.Hour))
	require.NoError(t, store.Save(ctx, "gone", time.Hour))
	require.NoError(t, store.Delete(ctx, "gone"))

	clock.Advance(2 * time.Minute)
	require.Equal(t, 1, store.Sweep())
	require.Equal(t, 1, store.Len())

	require.NoError(t, store.DeleteAll(ctx))
	ok, err := store.Exists(ctx, "long")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryStoreCloseIsIdempotent(t *testing.T) {
	store := NewMemoryStore(time.Millisecond, nil)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}
