// Package cache defines the response cache used in front of the feature store.
package cache

import (
	"context"
	"time"
)

type Interface interface {
	// Get reports ok=false on a miss; err is reserved for backend failures.
	Get(ctx context.Context, key string) (val []byte, ok bool, err error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	// Purge drops every cached response.
	Purge(ctx context.Context) error
}

type timeoutCache struct {
	next Interface
	d    time.Duration
}

// WithTimeout bounds Get and Set on next by d.
func WithTimeout(next Interface, d time.Duration) Interface {
	if d <= 0 {
		return next
	}
	return &timeoutCache{next: next, d: d}
}

func (t *timeoutCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.next.Get(ctx, key)
}

func (t *timeoutCache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.next.Set(ctx, key, val, ttl)
}

func (t *timeoutCache) Purge(ctx context.Context) error {
	return t.next.Purge(ctx)
}
