// Package main runs one compaction cycle: export buffered streams, merge
// export files, fold merged files into the run's archive. Intended to run
// from a scheduler; a failed cycle is safe to re-run.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"swap-telemetry-lab/internal/pipeline"
	"swap-telemetry-lab/internal/storage"
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
	backend := flag.String("buffer-backend", envOr("BUFFER_BACKEND", "sqlite"), "Record buffer backend: memory, sqlite or postgres")
	sqlitePath := flag.String("sqlite-path", envOr("SQLITE_PATH", "buffer.db"), "SQLite database path for the sqlite backend")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string for the postgres backend")
	exportDir := flag.String("export-dir", envOr("EXPORT_DIR", "output"), "Directory for export files and archives")
	threshold := flag.Int("export-threshold", envIntOr("EXPORT_THRESHOLD", 1000), "Records per export file")
	group := flag.Int("compact-group", envIntOr("COMPACT_GROUP", 10), "Files merged per compaction step")
	drain := flag.Bool("drain", false, "Merge and archive partial groups, leaving no plaintext behind")
	flag.Parse()

	logger := log.New(os.Stdout, "[compact] ", log.LstdFlags)

	ctx := context.Background()
	buf, cleanup, err := createBuffer(ctx, *backend, *sqlitePath, *postgresDSN)
	if err != nil {
		logger.Fatalf("Failed to create record buffer: %v", err)
	}
	defer cleanup()

	if err := os.MkdirAll(*exportDir, 0o755); err != nil {
		logger.Fatalf("Failed to create export dir: %v", err)
	}

	runner := pipeline.NewRunner(buf, *exportDir, *threshold, *group, logger)
	res, err := runner.RunCycle(ctx, *drain)
	if err != nil {
		logger.Fatalf("Cycle failed: %v", err)
	}
	for stream, stats := range res.Streams {
		logger.Printf("run %s %s: exports=%d merges=%d archived=%d",
			res.RunID, stream, stats.Exports, stats.Merges, stats.Archives)
	}
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
