package config

import (
	"net/url"
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("UPLOAD_MAX_BYTES", "")
	t.Setenv("UPLOAD_BATCH_SIZE", "")
	t.Setenv("CACHE_DRIVER", "")

	cfg := FromEnv()
	if cfg.Upload.MaxBytes != 400<<20 {
		t.Fatalf("max bytes=%d want %d", cfg.Upload.MaxBytes, 400<<20)
	}
	if cfg.Upload.BatchSize != 500 {
		t.Fatalf("batch=%d want 500", cfg.Upload.BatchSize)
	}
	if cfg.DefaultPageLimit != 1000 {
		t.Fatalf("page limit=%d want 1000", cfg.DefaultPageLimit)
	}
	if cfg.Cache.Driver != "none" {
		t.Fatalf("cache driver=%q want none", cfg.Cache.Driver)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("UPLOAD_BATCH_SIZE", "-3")
	t.Setenv("CACHE_DRIVER", "Redis")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("DB_MIGRATE", "no")
	t.Setenv("KAFKA_BROKERS", " a:9092, ,b:9092 ")

	cfg := FromEnv()
	if cfg.Upload.BatchSize != 500 {
		t.Fatalf("non-positive batch should fall back to 500, got %d", cfg.Upload.BatchSize)
	}
	if cfg.Cache.Driver != "redis" {
		t.Fatalf("driver=%q want redis", cfg.Cache.Driver)
	}
	if cfg.Cache.TTL != 90*time.Second {
		t.Fatalf("ttl=%v want 90s", cfg.Cache.TTL)
	}
	if cfg.DB.Migrate {
		t.Fatal("DB_MIGRATE=no should disable migrations")
	}
	b := cfg.Invalidation.BrokerList()
	if len(b) != 2 || b[0] != "a:9092" || b[1] != "b:9092" {
		t.Fatalf("brokers=%v", b)
	}
}

func TestDSN(t *testing.T) {
	d := DatabaseCfg{Host: "db", Port: "5433", User: "gis", Password: "pw", Name: "lu", SSLMode: "disable"}
	if got, want := d.DSN(), "postgres://gis:pw@db:5433/lu?sslmode=disable"; got != want {
		t.Fatalf("dsn=%q want %q", got, want)
	}
	d.URL = "postgres://x@y/z"
	if got := d.DSN(); got != d.URL {
		t.Fatalf("URL should win, got %q", got)
	}
}

func TestDSN_EscapesCredentials(t *testing.T) {
	d := DatabaseCfg{Host: "db", Port: "5432", User: "gis user", Password: "p@ss/w#rd:?", Name: "lu", SSLMode: "require"}
	u, err := url.Parse(d.DSN())
	if err != nil {
		t.Fatalf("parse %q: %v", d.DSN(), err)
	}
	if u.Hostname() != "db" || u.Port() != "5432" || u.Path != "/lu" {
		t.Fatalf("target=%s:%s%s", u.Hostname(), u.Port(), u.Path)
	}
	pw, _ := u.User.Password()
	if u.User.Username() != "gis user" || pw != "p@ss/w#rd:?" {
		t.Fatalf("user=%q password=%q", u.User.Username(), pw)
	}
	if got := u.Query().Get("sslmode"); got != "require" {
		t.Fatalf("sslmode=%q", got)
	}

	d.Host = "::1"
	if u, err := url.Parse(d.DSN()); err != nil || u.Hostname() != "::1" {
		t.Fatalf("ipv6 host: %v %v", u, err)
	}
}
