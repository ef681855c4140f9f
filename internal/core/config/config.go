package config

import (
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type DatabaseCfg struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int
	Migrate  bool
}

// DSN returns URL when set, otherwise a postgres:// URL built from the parts
// with user and password escaped.
func (d DatabaseCfg) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(d.Host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	switch {
	case d.Password != "":
		u.User = url.UserPassword(d.User, d.Password)
	case d.User != "":
		u.User = url.User(d.User)
	}
	return u.String()
}

type UploadCfg struct {
	Dir       string
	MaxBytes  int64
	BatchSize int
}

type CacheCfg struct {
	Driver     string
	RedisAddr  string
	TTL        time.Duration
	OpTimeout  time.Duration
	MemorySize int
}

type InvalidationCfg struct {
	Enabled bool
	Driver  string
	Topic   string
	Brokers string
	GroupID string
}

type Config struct {
	Addr              string
	LogLevel          string
	InstanceID        string
	StaticDir         string
	BoundaryDir       string
	BoundaryCacheSize int
	DefaultPageLimit  int
	MetricsEnabled    bool
	CORSOrigins       []string
	DB                DatabaseCfg
	Upload            UploadCfg
	Cache             CacheCfg
	Invalidation      InvalidationCfg
}

func FromEnv() Config {
	batch := getint("UPLOAD_BATCH_SIZE", 500)
	if batch <= 0 {
		batch = 500
	}
	limit := getint("DEFAULT_PAGE_LIMIT", 1000)
	if limit <= 0 {
		limit = 1000
	}

	return Config{
		Addr:              getenv("ADDR", ":3000"),
		LogLevel:          getenv("LOG_LEVEL", "info"),
		InstanceID:        getenv("INSTANCE_ID", hostname()),
		StaticDir:         getenv("STATIC_DIR", filepath.Join("frontend", "dist")),
		BoundaryDir:       getenv("BOUNDARY_DIR", filepath.Join("data", "boundaries")),
		BoundaryCacheSize: getint("BOUNDARY_CACHE_SIZE", 8),
		DefaultPageLimit:  limit,
		MetricsEnabled:    getbool("METRICS_ENABLED", true),
		CORSOrigins:       splitList(getenv("CORS_ALLOWED_ORIGINS", "*")),
		DB: DatabaseCfg{
			URL:      getenv("DATABASE_URL", ""),
			Host:     getenv("PG_HOST", "localhost"),
			Port:     getenv("PG_PORT", "5432"),
			User:     getenv("PG_USER", "postgres"),
			Password: getenv("PG_PASSWORD", ""),
			Name:     getenv("PG_DB", "landuse"),
			SSLMode:  getenv("PG_SSLMODE", "disable"),
			MaxConns: getint("DB_MAX_CONNS", 10),
			Migrate:  getbool("DB_MIGRATE", true),
		},
		Upload: UploadCfg{
			Dir:       getenv("UPLOAD_DIR", os.TempDir()),
			MaxBytes:  getint64("UPLOAD_MAX_BYTES", 400<<20),
			BatchSize: batch,
		},
		Cache: CacheCfg{
			Driver:     strings.ToLower(getenv("CACHE_DRIVER", "none")),
			RedisAddr:  getenv("REDIS_ADDR", "localhost:6379"),
			TTL:        getduration("CACHE_TTL", 5*time.Minute),
			OpTimeout:  getduration("CACHE_OP_TIMEOUT", 250*time.Millisecond),
			MemorySize: getint("CACHE_MEMORY_SIZE", 1024),
		},
		Invalidation: InvalidationCfg{
			Enabled: getbool("INVALIDATION_ENABLED", false),
			Driver:  getenv("INVALIDATION_DRIVER", "none"),
			Topic:   getenv("KAFKA_TOPIC", "landuse-updates"),
			Brokers: getenv("KAFKA_BROKERS", "localhost:9092"),
			GroupID: getenv("KAFKA_GROUP_ID", "landuse-api"),
		},
	}
}

// BrokerList splits the comma separated broker list.
func (c InvalidationCfg) BrokerList() []string {
	return splitList(c.Brokers)
}

func splitList(s string) []string {
	var out []string
	for p := range strings.SplitSeq(s, ",") {
		if x := strings.TrimSpace(p); x != "" {
			out = append(out, x)
		}
	}
	return out
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil || h == "" {
		return "landuse-api"
	}
	return h
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getint64(k string, def int64) int64 {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
