package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/mohammed-shakir/landuse-api/internal/cache"
	"github.com/mohammed-shakir/landuse-api/internal/cache/keys"
	"github.com/mohammed-shakir/landuse-api/internal/core/model"
	"github.com/mohammed-shakir/landuse-api/internal/core/observability"
)

// CachedStore serves reads from a response cache and falls back to next.
// Cache failures are logged and never surface to callers.
//
// Keys carry a generation that Purge advances, so a read that loaded rows
// before a replace committed cannot publish them afterwards.
type CachedStore struct {
	next  Store
	cache cache.Interface
	ttl   time.Duration
	log   *slog.Logger
	gen   atomic.Uint64
}

var _ Store = (*CachedStore)(nil)

func NewCachedStore(next Store, c cache.Interface, ttl time.Duration, log *slog.Logger) *CachedStore {
	if log == nil {
		log = slog.Default()
	}
	return &CachedStore{next: next, cache: c, ttl: ttl, log: log}
}

func (s *CachedStore) ListFeatures(ctx context.Context, page model.Page) ([]model.Feature, error) {
	key := keys.Key(keys.KindList, "", page.Limit, page.Offset)
	return readThrough(ctx, s, key, func() ([]model.Feature, error) {
		return s.next.ListFeatures(ctx, page)
	})
}

func (s *CachedStore) FilterFeatures(ctx context.Context, category string, page model.Page) ([]model.Feature, error) {
	key := keys.Key(keys.KindFilter, category, page.Limit, page.Offset)
	return readThrough(ctx, s, key, func() ([]model.Feature, error) {
		return s.next.FilterFeatures(ctx, category, page)
	})
}

// AreaByType shares one entry across spellings of a category; the echoed
// type always matches the caller's spelling.
func (s *CachedStore) AreaByType(ctx context.Context, category string) (model.AreaStats, error) {
	key := keys.Key(keys.KindArea, category, 0, 0)
	st, err := readThrough(ctx, s, key, func() (model.AreaStats, error) {
		return s.next.AreaByType(ctx, category)
	})
	if err != nil {
		return model.AreaStats{}, err
	}
	st.Type = category
	return st, nil
}

// ReplaceAll purges the cache once the replacement has committed.
func (s *CachedStore) ReplaceAll(ctx context.Context, batches []model.Batch) (model.ReplaceResult, error) {
	res, err := s.next.ReplaceAll(ctx, batches)
	if err != nil {
		return res, err
	}
	s.Invalidate(ctx)
	return res, nil
}

// Purge starts a new generation and drops every cached response.
func (s *CachedStore) Purge(ctx context.Context) error {
	s.gen.Add(1)
	return s.cache.Purge(context.WithoutCancel(ctx))
}

// Invalidate is Purge with the error logged.
func (s *CachedStore) Invalidate(ctx context.Context) {
	if err := s.Purge(ctx); err != nil {
		s.log.WarnContext(ctx, "cache purge failed", "err", err)
	}
}

func readThrough[T any](ctx context.Context, s *CachedStore, key string, load func() (T, error)) (T, error) {
	gen := s.gen.Load()
	key = keys.WithGeneration(key, gen)
	if raw, ok, err := s.cache.Get(ctx, key); err != nil {
		s.log.WarnContext(ctx, "cache get failed", "key", key, "err", err)
	} else if ok {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			observability.IncCacheHit()
			return v, nil
		}
		s.log.WarnContext(ctx, "cache entry undecodable", "key", key)
	}
	observability.IncCacheMiss()

	v, err := load()
	if err != nil {
		return v, err
	}
	if s.gen.Load() != gen {
		return v, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		s.log.WarnContext(ctx, "cache encode failed", "key", key, "err", err)
		return v, nil
	}
	if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
		s.log.WarnContext(ctx, "cache set failed", "key", key, "err", err)
	}
	return v, nil
}
