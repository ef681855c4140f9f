package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mohammed-shakir/landuse-api/internal/core/model"
	"github.com/mohammed-shakir/landuse-api/internal/core/observability"
)

const (
	listFeaturesSQL = `
		SELECT id, COALESCE(ST_AsGeoJSON(geom), 'null'), type
		FROM land_use
		ORDER BY id
		LIMIT $1 OFFSET $2`

	filterFeaturesSQL = `
		SELECT id, COALESCE(ST_AsGeoJSON(geom), 'null'), type
		FROM land_use
		WHERE lower(type) = lower($1)
		ORDER BY id
		LIMIT $2 OFFSET $3`

	areaByTypeSQL = `
		SELECT COUNT(*), COALESCE(SUM(ST_Area(geom::geography)), 0)
		FROM land_use
		WHERE lower(type) = lower($1)`

	deleteAllSQL = `DELETE FROM land_use`

	insertPrefixSQL = `INSERT INTO land_use (geom, type) VALUES `
)

// Postgres accepts at most 65535 bind parameters per statement.
const MaxBatchRows = 65535 / 2

type PostgresStore struct {
	pool Pool
	log  *slog.Logger
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(pool Pool, log *slog.Logger) *PostgresStore {
	if log == nil {
		log = slog.Default()
	}
	return &PostgresStore{pool: pool, log: log}
}

func (s *PostgresStore) ListFeatures(ctx context.Context, page model.Page) ([]model.Feature, error) {
	start := time.Now()
	out, err := s.queryFeatures(ctx, listFeaturesSQL, page.Limit, page.Offset)
	observability.ObserveDBOp("list_features", err, time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("store: list features: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) FilterFeatures(ctx context.Context, category string, page model.Page) ([]model.Feature, error) {
	start := time.Now()
	out, err := s.queryFeatures(ctx, filterFeaturesSQL, category, page.Limit, page.Offset)
	observability.ObserveDBOp("filter_features", err, time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("store: filter features by %q: %w", category, err)
	}
	return out, nil
}

func (s *PostgresStore) queryFeatures(ctx context.Context, sql string, args ...any) ([]model.Feature, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Feature
	for rows.Next() {
		var (
			f    model.Feature
			geom string
		)
		if err := rows.Scan(&f.ID, &geom, &f.Category); err != nil {
			return nil, fmt.Errorf("scan feature row: %w", err)
		}
		f.Geometry = json.RawMessage(geom)
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *PostgresStore) AreaByType(ctx context.Context, category string) (model.AreaStats, error) {
	start := time.Now()
	var (
		count int64
		area  float64
	)
	err := s.pool.QueryRow(ctx, areaByTypeSQL, category).Scan(&count, &area)
	observability.ObserveDBOp("area_by_type", err, time.Since(start).Seconds())
	if err != nil {
		return model.AreaStats{}, fmt.Errorf("store: area for %q: %w", category, err)
	}
	if count == 0 {
		area = 0
	}
	return model.NewAreaStats(category, area, count), nil
}

func (s *PostgresStore) ReplaceAll(ctx context.Context, batches []model.Batch) (model.ReplaceResult, error) {
	start := time.Now()
	res, err := s.replaceAll(ctx, batches)
	observability.ObserveDBOp("replace_all", err, time.Since(start).Seconds())
	return res, err
}

func (s *PostgresStore) replaceAll(ctx context.Context, batches []model.Batch) (model.ReplaceResult, error) {
	var res model.ReplaceResult

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return res, fmt.Errorf("store: begin replace: %w", err)
	}

	if _, err := tx.Exec(ctx, deleteAllSQL); err != nil {
		s.rollback(ctx, tx, err)
		return res, fmt.Errorf("store: delete features: %w", err)
	}

	for i, b := range batches {
		res.Batches++
		res.Scanned += b.Input
		if len(b.Rows) == 0 {
			continue
		}
		sql, args := insertBatch(b.Rows)
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			s.rollback(ctx, tx, err)
			return model.ReplaceResult{}, fmt.Errorf("store: insert batch %d: %w", i, err)
		}
		res.Inserted += len(b.Rows)
	}

	if err := tx.Commit(ctx); err != nil {
		return model.ReplaceResult{}, fmt.Errorf("store: commit replace: %w", err)
	}
	res.Skipped = res.Scanned - res.Inserted
	return res, nil
}

// rollback failures are logged on their own and never replace cause.
func (s *PostgresStore) rollback(ctx context.Context, tx pgx.Tx, cause error) {
	err := tx.Rollback(context.WithoutCancel(ctx))
	if err == nil || errors.Is(err, pgx.ErrTxClosed) {
		return
	}
	s.log.WarnContext(ctx, "replace rollback failed", "err", err, "cause", cause)
}

func insertBatch(rows []model.Row) (string, []any) {
	var b strings.Builder
	b.Grow(len(insertPrefixSQL) + len(rows)*40)
	b.WriteString(insertPrefixSQL)

	args := make([]any, 0, len(rows)*2)
	for i, r := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		n := i*2 + 1
		b.WriteString("(ST_GeomFromEWKB($")
		b.WriteString(strconv.Itoa(n))
		b.WriteString("), $")
		b.WriteString(strconv.Itoa(n + 1))
		b.WriteString(")")
		args = append(args, r.Geometry, r.Category)
	}
	return b.String(), args
}
