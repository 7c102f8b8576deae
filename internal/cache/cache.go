package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a JSON cache backed by Redis. A Cache without a client is valid
// and always misses.
type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// New connects to addr. An empty addr returns a disabled cache.
func New(ctx context.Context, addr, password string, ttl time.Duration) (*Cache, error) {
	if addr == "" {
		return Disabled(), nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Cache{client: client, prefix: "crms:", ttl: ttl}, nil
}

func Disabled() *Cache {
	return &Cache{}
}

func (c *Cache) Enabled() bool { return c != nil && c.client != nil }

func (c *Cache) key(k string) string { return c.prefix + k }

// Get decodes the cached value for k into dst. It reports false on a miss.
func (c *Cache) Get(ctx context.Context, k string, dst interface{}) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}
	value, err := c.client.Get(ctx, c.key(k)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(value, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Cache) Set(ctx context.Context, k string, v interface{}) error {
	if !c.Enabled() {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(k), data, c.ttl).Err()
}

// Remember returns the cached value for k, or calls load and caches its
// result. Cache errors are logged and never fail the call.
func Remember[T any](ctx context.Context, c *Cache, k string, load func() (T, error)) (T, error) {
	var cached T
	if hit, err := c.Get(ctx, k, &cached); err != nil {
		slog.Warn("cache read failed", "key", k, "error", err)
	} else if hit {
		return cached, nil
	}

	v, err := load()
	if err != nil {
		return v, err
	}
	if err := c.Set(ctx, k, v); err != nil {
		slog.Warn("cache write failed", "key", k, "error", err)
	}
	return v, nil
}

// InvalidatePrefix deletes every key starting with prefix.
func (c *Cache) InvalidatePrefix(ctx context.Context, prefix string) error {
	if !c.Enabled() {
		return nil
	}
	iter := c.client.Scan(ctx, 0, c.key(prefix)+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *Cache) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

// Status is a short health string for the health endpoint.
func (c *Cache) Status(ctx context.Context) string {
	if !c.Enabled() {
		return "disabled"
	}
	if err := c.Ping(ctx); err != nil {
		slog.Warn("redis health check failed", "error", err)
		return "unhealthy"
	}
	return "ok"
}

func (c *Cache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}

// AnalyticsPrefix namespaces the dashboard aggregates.
const AnalyticsPrefix = "analytics:"

// InvalidateAnalytics drops cached dashboards after a write that changes
// them. Failures are logged; stale entries expire with the TTL.
func (c *Cache) InvalidateAnalytics(ctx context.Context) {
	if err := c.InvalidatePrefix(ctx, AnalyticsPrefix); err != nil {
		slog.Warn("analytics cache invalidation failed", "error", err)
	}
}
