package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	mylog "github.com/mohammed-shakir/landuse-api/internal/logger"
)

func testLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestLogging_PropagatesRequestID(t *testing.T) {
	var buf bytes.Buffer
	var seen string

	r := chi.NewRouter()
	r.Use(Logging(testLogger(&buf)))
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		seen = mylog.RequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/items/7", nil)
	req.Header.Set("X-Request-ID", "abc123")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if seen != "abc123" {
		t.Fatalf("handler saw request id %q", seen)
	}
	if got := rr.Header().Get("X-Request-ID"); got != "abc123" {
		t.Fatalf("response request id %q", got)
	}
	out := buf.String()
	if !strings.Contains(out, `"route":"/items/{id}"`) || !strings.Contains(out, `"status":418`) {
		t.Fatalf("log line missing fields: %s", out)
	}
}

func TestLogging_GeneratesRequestID(t *testing.T) {
	var buf bytes.Buffer
	h := Logging(testLogger(&buf))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected generated request id")
	}
	if !strings.Contains(buf.String(), `"route":"unmatched"`) {
		t.Fatalf("log=%s", buf.String())
	}
}

func TestRecover(t *testing.T) {
	var buf bytes.Buffer
	h := Recover(testLogger(&buf))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"error":"internal server error"`) {
		t.Fatalf("body=%s", rr.Body.String())
	}
	if !strings.Contains(buf.String(), "panic recovered") {
		t.Fatalf("log=%s", buf.String())
	}
}

func TestCORS_Preflight(t *testing.T) {
	h := CORS(nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodOptions, "/api/upload", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("allow-origin=%q", got)
	}
}
