// Command smoke checks that the services the API depends on are reachable.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"slices"
	"time"

	"github.com/IBM/sarama"
	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/mohammed-shakir/landuse-api/internal/core/config"
	"github.com/mohammed-shakir/landuse-api/internal/core/httpclient"
	"github.com/mohammed-shakir/landuse-api/internal/core/model"
)

func getenv(key, def string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return def
}

func testPostgres(ctx context.Context, dsn string) error {
	fmt.Println("Postgres test")
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return fmt.Errorf("pg connect: %w", err)
	}
	defer func() { _ = conn.Close(context.WithoutCancel(ctx)) }()

	var postgis string
	if err := conn.QueryRow(ctx, "SELECT postgis_lib_version()").Scan(&postgis); err != nil {
		return fmt.Errorf("postgis version: %w", err)
	}
	var n int64
	if err := conn.QueryRow(ctx, "SELECT COUNT(*) FROM land_use").Scan(&n); err != nil {
		return fmt.Errorf("count land_use: %w", err)
	}
	fmt.Printf("postgis %s, land_use rows: %d\n", postgis, n)
	return nil
}

func testRedis(ctx context.Context, addr string) error {
	fmt.Println("Redis test")
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 2 * time.Second,
	})
	defer func() { _ = client.Close() }()

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	if err := client.Set(ctx, "landuse:smoke", "ok", 30*time.Second).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	val, err := client.Get(ctx, "landuse:smoke").Result()
	if err != nil {
		return fmt.Errorf("redis get: %w", err)
	}
	fmt.Println("redis GET landuse:smoke:", val)
	return nil
}

func testKafka(brokers []string, topic string) error {
	fmt.Println("Kafka test")
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	client, err := sarama.NewClient(brokers, cfg)
	if err != nil {
		return fmt.Errorf("kafka client: %w", err)
	}
	defer func() { _ = client.Close() }()

	topics, err := client.Topics()
	if err != nil {
		return fmt.Errorf("list topics: %w", err)
	}
	if !slices.Contains(topics, topic) {
		fmt.Printf("topic %q not found (auto-create may still apply)\n", topic)
		return nil
	}
	parts, err := client.Partitions(topic)
	if err != nil {
		return fmt.Errorf("partitions: %w", err)
	}
	fmt.Printf("topic %s has %d partitions\n", topic, len(parts))
	return nil
}

func testAPI(ctx context.Context, client *http.Client, base string) error {
	fmt.Println("API test")
	u, err := url.Parse(base)
	if err != nil {
		return fmt.Errorf("bad API URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	u = u.JoinPath("api", "land_use")
	u.RawQuery = "limit=2"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		// Only read a small part of body (because it can be large)
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("API status %d: %s", resp.StatusCode, string(b))
	}
	var fc model.FeatureCollection
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		return fmt.Errorf("decode feature collection: %w", err)
	}
	fmt.Printf("API returned %d features\n", len(fc.Features))
	return nil
}

func main() {
	os.Exit(run())
}

func run() int {
	envFile := flag.String("env-file", ".env", "optional dotenv file")
	skipAPI := flag.Bool("skip-api", false, "do not call the running API")
	flag.Parse()
	_ = godotenv.Load(*envFile)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	cfg := config.FromEnv()
	apiURL := getenv("API_URL", "http://localhost"+cfg.Addr)

	if err := testPostgres(ctx, cfg.DB.DSN()); err != nil {
		fmt.Println("Postgres error:", err)
		return 1
	}
	if cfg.Cache.Driver == "redis" {
		if err := testRedis(ctx, cfg.Cache.RedisAddr); err != nil {
			fmt.Println("Redis error:", err)
			return 1
		}
	}
	if cfg.Invalidation.Enabled {
		if err := testKafka(cfg.Invalidation.BrokerList(), cfg.Invalidation.Topic); err != nil {
			fmt.Println("Kafka error:", err)
			return 1
		}
	}
	if !*skipAPI {
		if err := testAPI(ctx, httpclient.NewOutbound(10*time.Second), apiURL); err != nil {
			fmt.Println("API error:", err)
			return 1
		}
	}
	fmt.Println("All tests completed")
	return 0
}
