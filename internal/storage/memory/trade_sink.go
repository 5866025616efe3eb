package memory

import (
	"context"
	"sync"

	"swap-telemetry-lab/internal/domain"
	"swap-telemetry-lab/internal/storage"
)

// TradeSink is an in-memory implementation of storage.TradeAnalytics.
type TradeSink struct {
	mu      sync.Mutex
	records []*domain.Record
}

// NewTradeSink creates a new in-memory trade sink.
func NewTradeSink() *TradeSink {
	return &TradeSink{}
}

// InsertRecords appends normalized trade records.
func (s *TradeSink) InsertRecords(_ context.Context, records []*domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		rec := *r
		s.records = append(s.records, &rec)
	}
	return nil
}

// Records returns a snapshot of everything inserted so far.
func (s *TradeSink) Records() []*domain.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.Record, len(s.records))
	copy(out, s.records)
	return out
}

var _ storage.TradeAnalytics = (*TradeSink)(nil)
