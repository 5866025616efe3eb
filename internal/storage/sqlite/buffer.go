// Package sqlite implements the record buffer over a single-file SQLite
// database, the default backend for single-node deployments.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite" // pure-Go driver, registered as "sqlite"

	"swap-telemetry-lab/internal/domain"
	"swap-telemetry-lab/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS record_buffers (
	stream  TEXT PRIMARY KEY,
	payload TEXT NOT NULL
);`

// Buffer is a SQLite-backed implementation of storage.RecordBuffer.
// Each stream's pending documents are stored as one JSON array, replaced
// wholesale on every write, matching the buffer's read-mutate-write contract.
type Buffer struct {
	db *sql.DB
}

// Open opens (and creates if needed) the buffer database at path.
func Open(ctx context.Context, path string) (*Buffer, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	// The buffer is single-writer per cycle; one connection avoids
	// SQLITE_BUSY on concurrent stream replacements within a cycle.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create buffer schema: %w", err)
	}

	return &Buffer{db: db}, nil
}

// Close closes the underlying database.
func (b *Buffer) Close() error {
	return b.db.Close()
}

// Load returns the stored sequence for a stream, empty if none exists.
func (b *Buffer) Load(ctx context.Context, stream string) ([]domain.Document, error) {
	if stream == "" {
		return nil, storage.ErrInvalidInput
	}

	var payload string
	err := b.db.QueryRowContext(ctx,
		`SELECT payload FROM record_buffers WHERE stream = ?`, stream,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return []domain.Document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load buffer %s: %w", stream, err)
	}

	var docs []domain.Document
	if err := json.Unmarshal([]byte(payload), &docs); err != nil {
		return nil, fmt.Errorf("decode buffer %s: %w", stream, err)
	}
	return docs, nil
}

// Replace atomically overwrites the stored sequence for a stream.
func (b *Buffer) Replace(ctx context.Context, stream string, docs []domain.Document) error {
	if stream == "" {
		return storage.ErrInvalidInput
	}
	if docs == nil {
		docs = []domain.Document{}
	}

	payload, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("encode buffer %s: %w", stream, err)
	}

	_, err = b.db.ExecContext(ctx, `
		INSERT INTO record_buffers (stream, payload) VALUES (?, ?)
		ON CONFLICT(stream) DO UPDATE SET payload = excluded.payload`,
		stream, string(payload),
	)
	if err != nil {
		return fmt.Errorf("replace buffer %s: %w", stream, err)
	}
	return nil
}

var _ storage.RecordBuffer = (*Buffer)(nil)
