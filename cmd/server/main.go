// Package main runs the telemetry ingest server: HTTP and websocket intake,
// archive listing, health and metrics endpoints.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"swap-telemetry-lab/internal/server"
	"swap-telemetry-lab/internal/storage"
	chstore "swap-telemetry-lab/internal/storage/clickhouse"
	"swap-telemetry-lab/internal/storage/memory"
	"swap-telemetry-lab/internal/storage/migrations"
	pgstore "swap-telemetry-lab/internal/storage/postgres"
	"swap-telemetry-lab/internal/storage/sqlite"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("skipping .env: %v", err)
	}

	// Parse flags (env vars as defaults)
	addr := flag.String("addr", envOr("SERVER_ADDR", ":8080"), "HTTP listen address")
	apiKey := flag.String("api-key", os.Getenv("API_KEY"), "Bearer token required on ingest endpoints (empty disables auth)")
	backend := flag.String("buffer-backend", envOr("BUFFER_BACKEND", "sqlite"), "Record buffer backend: memory, sqlite or postgres")
	sqlitePath := flag.String("sqlite-path", envOr("SQLITE_PATH", "buffer.db"), "SQLite database path for the sqlite backend")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string for the postgres backend")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "Optional ClickHouse DSN for the trade analytics sink")
	archiveDir := flag.String("archive-dir", envOr("EXPORT_DIR", "output"), "Directory holding export files and archives")
	rateLimit := flag.Float64("rate-limit", envFloatOr("RATE_LIMIT", 10), "Ingest requests per second per client")
	rateBurst := flag.Int("rate-burst", envIntOr("RATE_BURST", 20), "Ingest request burst per client")
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	buf, cleanup, err := createBuffer(ctx, *backend, *sqlitePath, *postgresDSN)
	if err != nil {
		logger.Fatalf("Failed to create record buffer: %v", err)
	}
	defer cleanup()

	if err := os.MkdirAll(*archiveDir, 0o755); err != nil {
		logger.Fatalf("Failed to create archive dir: %v", err)
	}

	intake := server.NewIntake(buf, logger)
	if *clickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
		if err != nil {
			logger.Fatalf("Failed to prepare ClickHouse sink: %v", err)
		}
		defer conn.Close()
		intake = intake.WithAnalytics(chstore.NewTradeSink(conn))
		logger.Println("ClickHouse analytics sink enabled")
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           server.New(intake, *archiveDir, *apiKey, rate.Limit(*rateLimit), *rateBurst, logger).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Printf("Shutdown error: %v", err)
		}
		cancel()
	}()

	logger.Printf("Listening on %s (buffer backend: %s)", *addr, *backend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("Server error: %v", err)
	}
	logger.Println("Shutdown complete")
}

// createBuffer builds the configured RecordBuffer backend and its cleanup.
func createBuffer(ctx context.Context, backend, sqlitePath, postgresDSN string) (storage.RecordBuffer, func(), error) {
	switch backend {
	case "memory":
		return memory.NewBuffer(), func() {}, nil
	case "sqlite":
		buf, err := sqlite.Open(ctx, sqlitePath)
		if err != nil {
			return nil, nil, err
		}
		return buf, func() { buf.Close() }, nil
	case "postgres":
		if postgresDSN == "" {
			return nil, nil, errors.New("postgres backend needs --postgres-dsn")
		}
		pool, err := pgstore.NewPool(ctx, postgresDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return pgstore.NewBuffer(pool), pool.Close, nil
	default:
		return nil, nil, errors.New("unknown buffer backend: " + backend)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
