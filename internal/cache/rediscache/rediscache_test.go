package rediscache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func TestRedisCache_GetSet(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(mr.Addr(), "pickupdesk:")
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Ping(ctx))

	_, ok, err := c.Get(ctx, "couriers")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.Set(ctx, "couriers", []byte(`[]`), time.Minute))
	require.True(t, mr.Exists("pickupdesk:couriers"))

	b, ok, err := c.Get(ctx, "couriers")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte(`[]`), b)

	mr.FastForward(2 * time.Minute)
	_, ok, err = c.Get(ctx, "couriers")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisCache_GetError(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(mr.Addr(), "")
	defer c.Close()
	mr.Close()

	_, _, err := c.Get(context.Background(), "k")
	require.Error(t, err)
}

func TestRateLimiter_Allow(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(mr.Addr(), "pickupdesk:")
	defer c.Close()
	rl := c.Limiter()

	ctx := context.Background()
	ok, n, err := rl.Allow(ctx, "confirm:127.0.0.1", 2, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(1), n)

	ok, n, _ = rl.Allow(ctx, "confirm:127.0.0.1", 2, time.Minute)
	require.True(t, ok)
	require.Equal(t, int64(2), n)

	ok, n, _ = rl.Allow(ctx, "confirm:127.0.0.1", 2, time.Minute)
	require.False(t, ok)
	require.Equal(t, int64(3), n)
	require.True(t, mr.Exists("pickupdesk:rl:confirm:127.0.0.1"))

	mr.FastForward(time.Minute + time.Second)
	ok, n, _ = rl.Allow(ctx, "confirm:127.0.0.1", 2, time.Minute)
	require.True(t, ok)
	require.Equal(t, int64(1), n)
}

func TestRateLimiter_WindowIsFixed(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(mr.Addr(), "pickupdesk:")
	defer c.Close()
	rl := c.Limiter()
	ctx := context.Background()
	key := "mutate:10.0.0.1"

	ok, _, err := rl.Allow(ctx, key, 2, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(50 * time.Second)
	ok, n, err := rl.Allow(ctx, key, 2, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(2), n)
	// later hits must not push the expiry out
	require.LessOrEqual(t, mr.TTL("pickupdesk:rl:"+key), 10*time.Second)

	mr.FastForward(5 * time.Second)
	ok, _, _ = rl.Allow(ctx, key, 2, time.Minute)
	require.False(t, ok)

	// a client retrying while throttled still gets a fresh window
	mr.FastForward(6 * time.Second)
	ok, n, err = rl.Allow(ctx, key, 2, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(1), n)
}

func TestRateLimiter_RestoresMissingExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(mr.Addr(), "pickupdesk:")
	defer c.Close()

	require.NoError(t, mr.Set("pickupdesk:rl:mutate:10.0.0.2", "5"))
	ok, n, err := c.Limiter().Allow(context.Background(), "mutate:10.0.0.2", 10, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(6), n)
	require.Equal(t, time.Minute, mr.TTL("pickupdesk:rl:mutate:10.0.0.2"))
}
