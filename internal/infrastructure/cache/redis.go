package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client wraps the raw Redis client. A nil *Client or nil rdb is a cache that always misses.
type Client struct {
	rdb    *redis.Client
	prefix string
}

// New returns a cache whose keys are namespaced by prefix.
func New(rdb *redis.Client, prefix string) *Client {
	return &Client{rdb: rdb, prefix: prefix}
}

func (c *Client) enabled() bool {
	return c != nil && c.rdb != nil
}

// Set stores any value as JSON.
func Set[T any](ctx context.Context, c *Client, key string, value T, ttl time.Duration) error {
	if !c.enabled() {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.prefix+key, data, ttl).Err()
}

// Get loads a JSON value; ok is false on a miss.
func Get[T any](ctx context.Context, c *Client, key string) (*T, bool, error) {
	if !c.enabled() {
		return nil, false, nil
	}
	val, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var result T
	if err := json.Unmarshal(val, &result); err != nil {
		return nil, false, err
	}
	return &result, true, nil
}

// Remember returns the cached value for key or computes, stores and returns it.
// Cache errors never fail the call; load errors do.
func Remember[T any](ctx context.Context, c *Client, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	if v, ok, err := Get[T](ctx, c, key); err == nil && ok {
		return *v, nil
	}
	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	_ = Set(ctx, c, key, v, ttl)
	return v, nil
}

// Del removes keys.
func (c *Client) Del(ctx context.Context, keys ...string) error {
	if !c.enabled() || len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.prefix + k
	}
	return c.rdb.Del(ctx, full...).Err()
}
