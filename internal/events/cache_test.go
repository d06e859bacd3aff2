package events

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func TestCacheBumpChangesKeys(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	before, err := cache.BuildKey(ctx, "events", "search", "jazz")
	require.NoError(t, err)

	require.NoError(t, cache.Bump(ctx))

	after, err := cache.BuildKey(ctx, "events", "search", "jazz")
	require.NoError(t, err)
	require.NotEqual(t, before, after, "bump must produce a fresh key space")
}

func TestCacheFetchJSON(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	loads := 0
	loader := func(context.Context) (any, error) {
		loads++
		return map[string]string{"title": "Jazz Night"}, nil
	}

	var first map[string]string
	require.NoError(t, cache.FetchJSON(ctx, "k", &first, loader))
	require.Equal(t, "Jazz Night", first["title"])
	require.Equal(t, 1, loads)

	var second map[string]string
	require.NoError(t, cache.FetchJSON(ctx, "k", &second, loader))
	require.Equal(t, first, second)
	require.Equal(t, 1, loads, "second fetch must come from the cache")
}

func TestCacheNilClientPassesThrough(t *testing.T) {
	cache := NewCache(nil, time.Minute)
	ctx := context.Background()

	loads := 0
	loader := func(context.Context) (any, error) {
		loads++
		return map[string]string{"title": "Jazz Night"}, nil
	}

	var out map[string]string
	require.NoError(t, cache.FetchJSON(ctx, "k", &out, loader))
	require.NoError(t, cache.FetchJSON(ctx, "k", &out, loader))
	require.Equal(t, 2, loads, "nil client must disable caching, not break fetches")
	require.NoError(t, cache.Bump(ctx))
}
