package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"testing"

	"github.com/pashagolub/pgxmock/v4"

	"github.com/mohammed-shakir/landuse-api/internal/core/model"
)

var errTest = errors.New("test error")

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(mock.Close)
	return NewPostgresStore(mock, slog.New(slog.NewTextHandler(io.Discard, nil))), mock
}

func featureRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "geom", "type"})
}

func TestListFeatures_PageArgsAndOrder(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY id")).
		WithArgs(2, 5).
		WillReturnRows(featureRows().
			AddRow(int64(6), `{"type":"Point","coordinates":[1,2]}`, "Forest").
			AddRow(int64(7), `{"type":"Point","coordinates":[3,4]}`, "Water"))

	got, err := s.ListFeatures(context.Background(), model.Page{Limit: 2, Offset: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].ID != 6 || got[1].Category != "Water" {
		t.Fatalf("features=%+v", got)
	}
	if string(got[0].Geometry) != `{"type":"Point","coordinates":[1,2]}` {
		t.Fatalf("geometry=%s", got[0].Geometry)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestListFeatures_EmptyIsNil(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("FROM land_use").WithArgs(1000, 0).WillReturnRows(featureRows())

	got, err := s.ListFeatures(context.Background(), model.Page{Limit: 1000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no features, got %d", len(got))
	}
}

func TestListFeatures_QueryError(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("FROM land_use").WillReturnError(errTest)

	_, err := s.ListFeatures(context.Background(), model.Page{Limit: 10})
	if !errors.Is(err, errTest) {
		t.Fatalf("err=%v want wrapped test error", err)
	}
}

func TestFilterFeatures_ComparesLowercased(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE lower(type) = lower($1)")).
		WithArgs("RESIDENTIAL", 10, 0).
		WillReturnRows(featureRows().
			AddRow(int64(1), `{"type":"Polygon","coordinates":[]}`, "Residential"))

	got, err := s.FilterFeatures(context.Background(), "RESIDENTIAL", model.Page{Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Category != "Residential" {
		t.Fatalf("features=%+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestAreaByType_SumsGeography(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SUM(ST_Area(geom::geography))")).
		WithArgs("forest").
		WillReturnRows(pgxmock.NewRows([]string{"count", "area"}).AddRow(int64(2), 25000.0))

	got, err := s.AreaByType(context.Background(), "forest")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := model.AreaStats{Type: "forest", TotalAreaSquareMeters: 25000, TotalAreaHectares: 2.5, FeatureCount: 2}
	if got != want {
		t.Fatalf("got %+v want %+v", got, want)
	}
}

func TestAreaByType_NoRows(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("FROM land_use").
		WithArgs("desert").
		WillReturnRows(pgxmock.NewRows([]string{"count", "area"}).AddRow(int64(0), 0.0))

	got, err := s.AreaByType(context.Background(), "desert")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.FeatureCount != 0 || got.TotalAreaSquareMeters != 0 {
		t.Fatalf("got %+v", got)
	}
}

func rowsOf(cats ...string) []model.Row {
	out := make([]model.Row, 0, len(cats))
	for _, c := range cats {
		out = append(out, model.Row{Geometry: []byte{0x01}, Category: c})
	}
	return out
}

func TestReplaceAll_DeletesThenInsertsNonEmptyBatches(t *testing.T) {
	s, mock := newMockStore(t)

	batches := []model.Batch{
		{Input: 3, Rows: rowsOf("Forest", "Water")},
		{Input: 1, Rows: nil},
		{Input: 1, Rows: rowsOf("Residential")},
	}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM land_use").WillReturnResult(pgxmock.NewResult("DELETE", 9))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO land_use (geom, type) VALUES (ST_GeomFromEWKB($1), $2), (ST_GeomFromEWKB($3), $4)")).
		WithArgs(pgxmock.AnyArg(), "Forest", pgxmock.AnyArg(), "Water").
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectExec(regexp.QuoteMeta("VALUES (ST_GeomFromEWKB($1), $2)")).
		WithArgs(pgxmock.AnyArg(), "Residential").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	res, err := s.ReplaceAll(context.Background(), batches)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := model.ReplaceResult{Scanned: 5, Inserted: 3, Skipped: 2, Batches: 3}
	if res != want {
		t.Fatalf("result=%+v want %+v", res, want)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestReplaceAll_EmptyUploadStillClearsTable(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM land_use").WillReturnResult(pgxmock.NewResult("DELETE", 4))
	mock.ExpectCommit()

	res, err := s.ReplaceAll(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Inserted != 0 || res.Batches != 0 {
		t.Fatalf("result=%+v", res)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestReplaceAll_FailureMidBatchRollsBack(t *testing.T) {
	s, mock := newMockStore(t)

	batches := []model.Batch{
		{Input: 1, Rows: rowsOf("Forest")},
		{Input: 1, Rows: rowsOf("Water")},
	}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM land_use").WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectExec("INSERT INTO land_use").
		WithArgs(pgxmock.AnyArg(), "Forest").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO land_use").
		WithArgs(pgxmock.AnyArg(), "Water").
		WillReturnError(errTest)
	mock.ExpectRollback()

	_, err := s.ReplaceAll(context.Background(), batches)
	if !errors.Is(err, errTest) {
		t.Fatalf("err=%v want wrapped test error", err)
	}
	if !strings.Contains(err.Error(), "insert batch 1") {
		t.Fatalf("err=%q should name the failing batch", err)
	}
	// no commit was expected; an unexpected Commit call would fail this
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestReplaceAll_RollbackFailureKeepsOriginalError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM land_use").WillReturnError(errTest)
	mock.ExpectRollback().WillReturnError(errors.New("connection reset"))

	_, err := s.ReplaceAll(context.Background(), []model.Batch{{Input: 1, Rows: rowsOf("Forest")}})
	if !errors.Is(err, errTest) {
		t.Fatalf("err=%v want original delete error", err)
	}
	if strings.Contains(err.Error(), "connection reset") {
		t.Fatalf("rollback error leaked into result: %v", err)
	}
}

func TestReplaceAll_BeginError(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin().WillReturnError(errTest)

	if _, err := s.ReplaceAll(context.Background(), nil); !errors.Is(err, errTest) {
		t.Fatalf("err=%v want begin error", err)
	}
}

func TestInsertBatch_Placeholders(t *testing.T) {
	sql, args := insertBatch(rowsOf("a", "b", "c"))
	want := "INSERT INTO land_use (geom, type) VALUES (ST_GeomFromEWKB($1), $2), (ST_GeomFromEWKB($3), $4), (ST_GeomFromEWKB($5), $6)"
	if sql != want {
		t.Fatalf("sql=%q\nwant %q", sql, want)
	}
	if len(args) != 6 || args[1] != "a" || args[5] != "c" {
		t.Fatalf("args=%v", args)
	}
}
