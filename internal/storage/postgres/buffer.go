package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"swap-telemetry-lab/internal/domain"
	"swap-telemetry-lab/internal/storage"
)

// Buffer implements storage.RecordBuffer using PostgreSQL. Each stream's
// pending documents live in one JSONB row that is replaced wholesale, which
// makes Replace a single atomic statement.
type Buffer struct {
	pool *Pool
}

// NewBuffer creates a new Buffer.
func NewBuffer(pool *Pool) *Buffer {
	return &Buffer{pool: pool}
}

// Compile-time interface check.
var _ storage.RecordBuffer = (*Buffer)(nil)

// Load returns the stored sequence for a stream, empty if none exists.
func (b *Buffer) Load(ctx context.Context, stream string) ([]domain.Document, error) {
	if stream == "" {
		return nil, storage.ErrInvalidInput
	}

	var payload []byte
	err := b.pool.QueryRow(ctx,
		`SELECT payload FROM record_buffers WHERE stream = $1`, stream,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return []domain.Document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load buffer %s: %w", stream, err)
	}

	var docs []domain.Document
	if err := json.Unmarshal(payload, &docs); err != nil {
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

	_, err = b.pool.Exec(ctx, `
		INSERT INTO record_buffers (stream, payload) VALUES ($1, $2)
		ON CONFLICT (stream) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`,
		stream, payload,
	)
	if err != nil {
		return fmt.Errorf("replace buffer %s: %w", stream, err)
	}
	return nil
}
