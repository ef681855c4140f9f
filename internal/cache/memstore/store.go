// Package memstore is an in-process response cache for single-instance deployments.
package memstore

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/mohammed-shakir/landuse-api/internal/cache"
	"github.com/mohammed-shakir/landuse-api/internal/core/observability"
)

const defaultSize = 1024

// Store keeps entries in an expiring LRU. The TTL is fixed at construction;
// the per-call ttl passed to Set is ignored.
type Store struct {
	lru *expirable.LRU[string, []byte]
}

var _ cache.Interface = (*Store)(nil)

func New(size int, ttl time.Duration) *Store {
	if size <= 0 {
		size = defaultSize
	}
	return &Store{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	start := time.Now()
	v, ok := s.lru.Get(key)
	observability.ObserveCacheOp("get", nil, time.Since(start).Seconds())
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (s *Store) Set(ctx context.Context, key string, val []byte, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	cp := make([]byte, len(val))
	copy(cp, val)
	s.lru.Add(key, cp)
	observability.ObserveCacheOp("set", nil, time.Since(start).Seconds())
	return nil
}

func (s *Store) Purge(_ context.Context) error {
	start := time.Now()
	s.lru.Purge()
	observability.ObserveCacheOp("purge", nil, time.Since(start).Seconds())
	return nil
}

func (s *Store) Len() int { return s.lru.Len() }
