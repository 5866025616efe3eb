// Package server exposes the telemetry intake over HTTP and websocket, plus
// the archive listing surface and operational endpoints.
package server

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"swap-telemetry-lab/internal/domain"
	"swap-telemetry-lab/internal/normalize"
	"swap-telemetry-lab/internal/observability"
	"swap-telemetry-lab/internal/storage"
)

// RejectError marks the payload that failed validation or normalization.
// The whole batch is rejected before any buffer write, so one bad payload
// never causes a partial ingest.
type RejectError struct {
	Index int
	Err   error
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("payload %d rejected: %v", e.Index, e.Err)
}

func (e *RejectError) Unwrap() error { return e.Err }

// IngestStats counts what one ingest call did.
type IngestStats struct {
	Records int `json:"records"`
	Wallets int `json:"wallets"`
	Deduped int `json:"deduped"`
}

// Intake normalizes inbound payloads and appends them to the record buffer.
// Trade records always append; wallet snapshots are deduplicated by content
// hash, first against a TTL cache and then against the buffered stream.
// The buffer contract is read-mutate-write per stream, so commits are
// serialized by mu: HTTP and websocket handlers ingest concurrently and an
// unserialized load-append-replace would drop whichever write lands first.
type Intake struct {
	norm   *normalize.Normalizer
	buf    storage.RecordBuffer
	sink   storage.TradeAnalytics
	dedup  *cache.Cache
	logger *log.Logger

	mu sync.Mutex // guards the load-append-replace commit
}

// NewIntake creates an Intake over buf.
func NewIntake(buf storage.RecordBuffer, logger *log.Logger) *Intake {
	return &Intake{
		norm:   normalize.New(),
		buf:    buf,
		dedup:  cache.New(30*time.Minute, 10*time.Minute),
		logger: logger,
	}
}

// WithAnalytics attaches an optional sink receiving every normalized trade
// row. Sink failures are logged, never surfaced to the client.
func (in *Intake) WithAnalytics(sink storage.TradeAnalytics) *Intake {
	in.sink = sink
	return in
}

// WithClock overrides the normalizer's record timestamp clock.
func (in *Intake) WithClock(now func() time.Time) *Intake {
	in.norm = in.norm.WithClock(now)
	return in
}

// Ingest validates and normalizes every payload of the batch, then commits
// records and wallets to their streams. Validation completes for the whole
// batch before the first write.
func (in *Intake) Ingest(ctx context.Context, payloads []domain.RawPayload) (IngestStats, error) {
	var stats IngestStats

	records := make([]*domain.Record, 0, len(payloads))
	wallets := make([]*domain.Wallet, 0, len(payloads))
	for i := range payloads {
		if err := ValidatePayload(&payloads[i]); err != nil {
			return stats, &RejectError{Index: i, Err: err}
		}
		rec, wallet, err := in.norm.Normalize(&payloads[i])
		if err != nil {
			return stats, &RejectError{Index: i, Err: err}
		}
		records = append(records, rec)
		wallets = append(wallets, wallet)
	}
	if len(records) == 0 {
		return stats, nil
	}

	in.mu.Lock()
	defer in.mu.Unlock()

	trades, err := in.buf.Load(ctx, domain.StreamTrades)
	if err != nil {
		return stats, fmt.Errorf("load trades stream: %w", err)
	}
	for _, rec := range records {
		trades = append(trades, rec.AsDocument())
		observability.RecordNormalized()
	}
	if err := in.buf.Replace(ctx, domain.StreamTrades, trades); err != nil {
		return stats, fmt.Errorf("store trades stream: %w", err)
	}
	stats.Records = len(records)
	observability.UpdateBufferSize(domain.StreamTrades, len(trades))

	stored, err := in.buf.Load(ctx, domain.StreamWallets)
	if err != nil {
		return stats, fmt.Errorf("load wallets stream: %w", err)
	}
	existing := make(map[string]struct{}, len(stored))
	for _, doc := range stored {
		if id, ok := domain.DocumentID(doc); ok {
			existing[id] = struct{}{}
		}
	}
	for _, w := range wallets {
		if _, hit := in.dedup.Get(w.ID); hit {
			stats.Deduped++
			observability.RecordWalletDeduped()
			continue
		}
		if _, dup := existing[w.ID]; dup {
			in.dedup.Set(w.ID, struct{}{}, cache.DefaultExpiration)
			stats.Deduped++
			observability.RecordWalletDeduped()
			continue
		}
		stored = append(stored, w.AsDocument())
		existing[w.ID] = struct{}{}
		in.dedup.Set(w.ID, struct{}{}, cache.DefaultExpiration)
		stats.Wallets++
		observability.RecordWalletStored()
	}
	if stats.Wallets > 0 {
		if err := in.buf.Replace(ctx, domain.StreamWallets, stored); err != nil {
			return stats, fmt.Errorf("store wallets stream: %w", err)
		}
	}
	observability.UpdateBufferSize(domain.StreamWallets, len(stored))

	if in.sink != nil {
		if err := in.sink.InsertRecords(ctx, records); err != nil {
			in.logger.Printf("[intake] analytics insert failed: %v", err)
		}
	}
	return stats, nil
}
