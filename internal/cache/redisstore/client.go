// Package redisstore wraps the Redis client backing the shared response cache.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	maintnotifications "github.com/redis/go-redis/v9/maintnotifications"

	"github.com/mohammed-shakir/landuse-api/internal/cache"
	"github.com/mohammed-shakir/landuse-api/internal/cache/keys"
	"github.com/mohammed-shakir/landuse-api/internal/core/observability"
)

type Option func(*redis.Options)

func WithPoolSize(n int) Option {
	return func(o *redis.Options) { o.PoolSize = n }
}

func WithDialTimeout(d time.Duration) Option {
	return func(o *redis.Options) { o.DialTimeout = d }
}

func WithReadTimeout(d time.Duration) Option {
	return func(o *redis.Options) { o.ReadTimeout = d }
}

func WithWriteTimeout(d time.Duration) Option {
	return func(o *redis.Options) { o.WriteTimeout = d }
}

const scanCount = 500

type Client struct {
	rdb    *redis.Client
	prefix string
}

var _ cache.Interface = (*Client)(nil)

func New(ctx context.Context, addr string, opts ...Option) (*Client, error) {
	if addr == "" {
		return nil, errors.New("redis address is required")
	}

	ro := &redis.Options{
		Addr:         addr,
		PoolSize:     32,
		MinIdleConns: 2,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
		MaintNotificationsConfig: &maintnotifications.Config{
			Mode: maintnotifications.ModeDisabled,
		},
	}
	for _, f := range opts {
		f(ro)
	}

	rdb := redis.NewClient(ro)

	start := time.Now()
	err := rdb.Ping(ctx).Err()
	observability.ObserveCacheOp("ping", err, time.Since(start).Seconds())
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Client{rdb: rdb, prefix: keys.Prefix}, nil
}

func (c *Client) Get(ctx context.Context, key string) ([]byte, bool, error) {
	start := time.Now()
	val, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		observability.ObserveCacheOp("get", nil, time.Since(start).Seconds())
		return nil, false, nil
	}
	observability.ObserveCacheOp("get", err, time.Since(start).Seconds())
	if err != nil {
		return nil, false, fmt.Errorf("redis GET %q: %w", key, err)
	}
	return val, true, nil
}

func (c *Client) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	start := time.Now()
	err := c.rdb.Set(ctx, key, val, ttl).Err()
	observability.ObserveCacheOp("set", err, time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("redis SET %q: %w", key, err)
	}
	return nil
}

func (c *Client) Del(ctx context.Context, ks ...string) error {
	if len(ks) == 0 {
		return nil
	}
	start := time.Now()
	err := c.rdb.Del(ctx, ks...).Err()
	observability.ObserveCacheOp("del", err, time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("redis DEL %d keys: %w", len(ks), err)
	}
	return nil
}

// Purge deletes every key under the response cache prefix.
func (c *Client) Purge(ctx context.Context) error {
	_, err := c.DeletePrefix(ctx, c.prefix)
	return err
}

// DeletePrefix walks the keyspace with SCAN and deletes matching keys page by page.
func (c *Client) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	start := time.Now()
	var (
		cursor  uint64
		deleted int
	)
	for {
		batch, next, err := c.rdb.Scan(ctx, cursor, prefix+"*", scanCount).Result()
		if err != nil {
			observability.ObserveCacheOp("purge", err, time.Since(start).Seconds())
			return deleted, fmt.Errorf("redis SCAN %q: %w", prefix, err)
		}
		if len(batch) > 0 {
			if err := c.rdb.Del(ctx, batch...).Err(); err != nil {
				observability.ObserveCacheOp("purge", err, time.Since(start).Seconds())
				return deleted, fmt.Errorf("redis DEL %d keys: %w", len(batch), err)
			}
			deleted += len(batch)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	observability.ObserveCacheOp("purge", nil, time.Since(start).Seconds())
	return deleted, nil
}

func (c *Client) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	if err := c.rdb.Close(); err != nil {
		return fmt.Errorf("redis close: %w", err)
	}
	return nil
}
