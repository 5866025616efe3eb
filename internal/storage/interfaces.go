package storage

import (
	"context"

	"swap-telemetry-lab/internal/domain"
)

// RecordBuffer is the durable buffer of pending canonical documents, keyed by
// logical stream ("trades", "wallets"). The buffer is the single source of
// truth for "not yet exported" records. No partial-append operation exists:
// callers load the full stream, mutate in memory, and write it back as one
// logical unit per cycle.
type RecordBuffer interface {
	// Load returns the stored sequence for a stream. A stream with no prior
	// state yields an empty sequence, never an error.
	Load(ctx context.Context, stream string) ([]domain.Document, error)

	// Replace atomically overwrites the stored sequence for a stream.
	Replace(ctx context.Context, stream string, docs []domain.Document) error
}

// TradeAnalytics receives every normalized trade record for live querying.
// Archives stay write-once; this sink is the queryable mirror.
type TradeAnalytics interface {
	InsertRecords(ctx context.Context, records []*domain.Record) error
}
