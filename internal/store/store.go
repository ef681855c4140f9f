// Package store reads and replaces land-use features in PostGIS.
package store

import (
	"context"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mohammed-shakir/landuse-api/internal/core/model"
)

// Pool is the subset of *pgxpool.Pool the store needs; pgxmock pools satisfy it too.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
}

type Store interface {
	// ListFeatures returns one page of features in ascending id order.
	ListFeatures(ctx context.Context, page model.Page) ([]model.Feature, error)

	// FilterFeatures is ListFeatures restricted to a category, compared case-insensitively.
	FilterFeatures(ctx context.Context, category string, page model.Page) ([]model.Feature, error)

	// AreaByType sums the geodesic area (m²) of every feature in a category.
	AreaByType(ctx context.Context, category string) (model.AreaStats, error)

	// ReplaceAll deletes every feature and inserts the batches in one transaction.
	ReplaceAll(ctx context.Context, batches []model.Batch) (model.ReplaceResult, error)
}

// Open creates a pgx pool and verifies connectivity.
func Open(ctx context.Context, dsn string, maxConns int) (*pgxpool.Pool, error) {
	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("store: parse dsn: %w", err)
	}
	if maxConns > 0 {
		pcfg.MaxConns = safeInt32(maxConns)
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("store: open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	return pool, nil
}

func safeInt32(n int) int32 {
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(n)
}
