package memory

import (
	"context"
	"sync"

	"swap-telemetry-lab/internal/domain"
	"swap-telemetry-lab/internal/storage"
)

// Buffer is an in-memory implementation of storage.RecordBuffer.
// It is process-lifetime only; use it for tests and -use-memory runs.
type Buffer struct {
	mu      sync.RWMutex
	streams map[string][]domain.Document
}

// NewBuffer creates a new in-memory record buffer.
func NewBuffer() *Buffer {
	return &Buffer{streams: make(map[string][]domain.Document)}
}

// Load returns the stored sequence for a stream, empty if none exists.
func (b *Buffer) Load(_ context.Context, stream string) ([]domain.Document, error) {
	if stream == "" {
		return nil, storage.ErrInvalidInput
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	docs := b.streams[stream]
	out := make([]domain.Document, len(docs))
	copy(out, docs)
	return out, nil
}

// Replace atomically overwrites the stored sequence for a stream.
func (b *Buffer) Replace(_ context.Context, stream string, docs []domain.Document) error {
	if stream == "" {
		return storage.ErrInvalidInput
	}

	stored := make([]domain.Document, len(docs))
	copy(stored, docs)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.streams[stream] = stored
	return nil
}

var _ storage.RecordBuffer = (*Buffer)(nil)
