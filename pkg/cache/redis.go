package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache stores entries in Redis with native key expiry. Connection
// failures are retried according to Backoff.
type RedisCache struct {
	client *redis.Client
	// Backoff governs retries of unreachable-server errors.
	Backoff Backoff
}

// NewRedisCache connects to addr, either host:port or a redis:// URL, and
// pings the server.
func NewRedisCache(ctx context.Context, addr string) (*RedisCache, error) {
	opts := &redis.Options{Addr: addr}
	if strings.Contains(addr, "://") {
		var err error
		if opts, err = redis.ParseURL(addr); err != nil {
			return nil, fmt.Errorf("redis url: %w", err)
		}
	}
	c := &RedisCache{client: redis.NewClient(opts), Backoff: DefaultBackoff}
	err := c.Backoff.Retry(ctx, func() error {
		return c.wrap(ctx, c.client.Ping(ctx).Err())
	})
	if err != nil {
		_ = c.client.Close()
		return nil, fmt.Errorf("connect %s: %w", addr, err)
	}
	return c, nil
}

// Get retrieves a value. redis.Nil is reported as a miss.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		data []byte
		hit  bool
	)
	err := c.Backoff.Retry(ctx, func() error {
		var err error
		data, err = c.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		hit = err == nil
		return c.wrap(ctx, err)
	})
	if err != nil || !hit {
		return nil, false, err
	}
	return data, true, nil
}

// Set stores a value. A ttl of zero stores the key without expiry.
func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return c.Backoff.Retry(ctx, func() error {
		return c.wrap(ctx, c.client.Set(ctx, key, data, ttl).Err())
	})
}

// Delete removes a key.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.Backoff.Retry(ctx, func() error {
		return c.wrap(ctx, c.client.Del(ctx, key).Err())
	})
}

// Close closes the client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// wrap marks transport errors as transient unless ctx is done.
func (c *RedisCache) wrap(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return err
	}
	return Transient(fmt.Errorf("%w: %v", ErrNetwork, err))
}

var _ Cache = (*RedisCache)(nil)
