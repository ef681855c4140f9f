package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/mohammed-shakir/landuse-api/internal/boundary"
	"github.com/mohammed-shakir/landuse-api/internal/cache"
	"github.com/mohammed-shakir/landuse-api/internal/cache/memstore"
	"github.com/mohammed-shakir/landuse-api/internal/cache/redisstore"
	"github.com/mohammed-shakir/landuse-api/internal/core/config"
	"github.com/mohammed-shakir/landuse-api/internal/core/observability"
	"github.com/mohammed-shakir/landuse-api/internal/core/router"
	"github.com/mohammed-shakir/landuse-api/internal/core/server"
	"github.com/mohammed-shakir/landuse-api/internal/logger"
	"github.com/mohammed-shakir/landuse-api/internal/metrics"
	"github.com/mohammed-shakir/landuse-api/internal/store"
	"github.com/mohammed-shakir/landuse-api/pkg/invalidation/kafka"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func run() int {
	envFile := flag.String("env-file", ".env", "optional dotenv file loaded before reading the environment")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load %s: %v\n", *envFile, err)
		return 1
	}

	cfg := config.FromEnv()

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   strings.ToLower(os.Getenv("LOG_CONSOLE")) == "true",
		SampleN:   envInt("LOG_SAMPLE_N", 0),
		Instance:  cfg.InstanceID,
		Component: "landuse-api",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	appLog.Info("starting landuse api",
		"addr", cfg.Addr,
		"version", Version,
		"cache", cfg.Cache.Driver,
		"invalidation", cfg.Invalidation.Driver)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var prov *metrics.Provider
	if cfg.MetricsEnabled {
		prov = metrics.Init(metrics.Config{
			Build: metrics.BuildInfo{
				Version:   firstNonEmpty(os.Getenv("BUILD_VERSION"), Version),
				Revision:  os.Getenv("BUILD_REVISION"),
				Branch:    os.Getenv("BUILD_BRANCH"),
				BuildDate: os.Getenv("BUILD_DATE"),
			},
		})
		observability.Init(prov.Registerer())
	}

	openCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	pool, err := store.Open(openCtx, cfg.DB.DSN(), cfg.DB.MaxConns)
	cancel()
	if err != nil {
		appLog.Error("database unavailable", "err", err)
		return 1
	}
	defer pool.Close()

	if cfg.DB.Migrate {
		if err := migrate(ctx, pool, appLog); err != nil {
			appLog.Error("migration failed", "err", err)
			return 1
		}
	}

	var st store.Store = store.NewPostgresStore(pool, appLog)
	respCache, closeCache, err := buildCache(ctx, cfg.Cache)
	if err != nil {
		appLog.Error("cache setup failed", "err", err)
		return 1
	}
	defer closeCache()
	var purger kafka.Purger = noopPurger{}
	if respCache != nil {
		cs := store.NewCachedStore(st, respCache, cfg.Cache.TTL, appLog.With("module", "cache"))
		st, purger = cs, cs
	}

	icfg := kafka.FromConfig(cfg.Invalidation, cfg.InstanceID)
	opts := kafka.Options{Logger: appLog.With("module", "invalidation")}
	if prov != nil {
		opts.Register = prov.Registerer()
	}

	runner := kafka.New(icfg, purger, opts)
	if err := runner.Start(ctx); err != nil {
		appLog.Error("invalidation runner failed to start", "err", err)
		return 1
	}
	defer runner.Stop()

	deps := router.Deps{
		Store:        st,
		Boundaries:   boundary.NewReader(cfg.BoundaryDir, cfg.BoundaryCacheSize),
		Upload:       cfg.Upload,
		DefaultLimit: cfg.DefaultPageLimit,
		Logger:       appLog.With("module", "api"),
	}
	if icfg.Active() {
		pub, err := kafka.NewPublisher(icfg, opts)
		if err != nil {
			appLog.Error("invalidation publisher failed", "err", err)
			return 1
		}
		defer func() {
			if err := pub.Close(); err != nil {
				appLog.Warn("close publisher", "err", err)
			}
		}()
		deps.Publisher = pub
	}

	sdeps := server.Deps{
		API:       router.New(deps).Routes(),
		DB:        pool,
		Readiness: runner,
	}
	if prov != nil {
		sdeps.Metrics = prov.Handler()
	}

	if err := server.Run(ctx, cfg, appLog, server.NewHandler(cfg, appLog, sdeps)); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}

// migrate pins one connection so the advisory lock and unlock share a session.
func migrate(ctx context.Context, pool *pgxpool.Pool, log *slog.Logger) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()
	return store.Migrate(ctx, conn, log)
}

func buildCache(ctx context.Context, c config.CacheCfg) (cache.Interface, func(), error) {
	switch c.Driver {
	case "", "none":
		return nil, func() {}, nil
	case "memory":
		return memstore.New(c.MemorySize, c.TTL), func() {}, nil
	case "redis":
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		rc, err := redisstore.New(dialCtx, c.RedisAddr)
		if err != nil {
			return nil, nil, err
		}
		return cache.WithTimeout(rc, c.OpTimeout), func() { _ = rc.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown CACHE_DRIVER %q (want none|memory|redis)", c.Driver)
	}
}

type noopPurger struct{}

func (noopPurger) Purge(context.Context) error { return nil }

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
