package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mohammed-shakir/landuse-api/internal/core/config"
	"github.com/mohammed-shakir/landuse-api/internal/core/health"
	middleware "github.com/mohammed-shakir/landuse-api/internal/core/middleware"
)

type Deps struct {
	// API is mounted under /api.
	API http.Handler
	// Metrics is served at /metrics when set.
	Metrics   http.Handler
	DB        health.Pinger
	Readiness health.ReadinessReporter
}

// NewHandler wires the routes: probes, metrics, /api and the static frontend.
func NewHandler(cfg config.Config, logger *slog.Logger, d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(cfg.CORSOrigins))

	r.Get("/healthz", health.Liveness())
	r.Get("/readyz", health.Readiness(d.DB, d.Readiness))
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}
	r.Mount("/api", d.API)

	static := staticHandler(cfg.StaticDir)
	r.NotFound(static.ServeHTTP)
	r.MethodNotAllowed(static.ServeHTTP)
	return r
}

// staticHandler serves the frontend build. Unknown paths fall back to
// index.html so client-side routes survive a reload.
func staticHandler(dir string) http.Handler {
	fs := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.NotFound(w, r)
			return
		}
		clean := filepath.Clean("/" + strings.TrimPrefix(r.URL.Path, "/"))
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(clean))); errors.Is(err, os.ErrNotExist) {
			index := filepath.Join(dir, "index.html")
			if _, err := os.Stat(index); err == nil {
				http.ServeFile(w, r, index)
				return
			}
		}
		fs.ServeHTTP(w, r)
	})
}

// sets up http and starts serving
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger, handler http.Handler) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listen", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
