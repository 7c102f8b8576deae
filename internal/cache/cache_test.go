package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledCacheAlwaysLoads(t *testing.T) {
	c := Disabled()
	ctx := context.Background()

	calls := 0
	load := func() (map[string]int, error) {
		calls++
		return map[string]int{"n": calls}, nil
	}

	_, err := Remember(ctx, c, "k", load)
	require.NoError(t, err)
	got, err := Remember(ctx, c, "k", load)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, got["n"])

	assert.Equal(t, "disabled", c.Status(ctx))
	assert.NoError(t, c.InvalidatePrefix(ctx, "analytics:"))
	assert.NoError(t, c.Close())
}

func TestRememberPropagatesLoadError(t *testing.T) {
	_, err := Remember(context.Background(), Disabled(), "k", func() (int, error) {
		return 0, errors.New("boom")
	})
	assert.EqualError(t, err, "boom")
}

func TestStatusHidesRedisError(t *testing.T) {
	c := &Cache{
		client: redis.NewClient(&redis.Options{
			Addr:        "127.0.0.1:1",
			DialTimeout: 200 * time.Millisecond,
			MaxRetries:  -1,
		}),
		prefix: "crms:",
	}
	defer c.Close()

	assert.Equal(t, "unhealthy", c.Status(context.Background()))
}

func TestRedisRoundTrip(t *testing.T) {
	addr := os.Getenv("CRMS_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("CRMS_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	c, err := New(ctx, addr, "", time.Minute)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Set(ctx, "test:one", map[string]string{"a": "b"}))
	var got map[string]string
	hit, err := c.Get(ctx, "test:one", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "b", got["a"])

	require.NoError(t, c.InvalidatePrefix(ctx, "test:"))
	hit, err = c.Get(ctx, "test:one", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}
