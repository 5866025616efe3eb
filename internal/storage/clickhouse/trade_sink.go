package clickhouse

import (
	"context"
	"fmt"

	"swap-telemetry-lab/internal/domain"
	"swap-telemetry-lab/internal/storage"
)

// TradeSink implements storage.TradeAnalytics using ClickHouse.
type TradeSink struct {
	conn *Conn
}

// NewTradeSink creates a new TradeSink.
func NewTradeSink(conn *Conn) *TradeSink {
	return &TradeSink{conn: conn}
}

// Compile-time interface check.
var _ storage.TradeAnalytics = (*TradeSink)(nil)

// InsertRecords appends normalized trade rows in one batch. The table has no
// uniqueness constraint; at-least-once delivery from the export cycle is
// acceptable here, duplicate rows collapse in the reporting queries.
func (s *TradeSink) InsertRecords(ctx context.Context, records []*domain.Record) error {
	if len(records) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO trade_rows (
			timestamp, exchange_from, exchange_to, rate, rentability,
			amount_from, amount_to, cost_total, gas_total, fee_total,
			price_usd, price_eur, price_sol, price_mat
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range records {
		err = batch.Append(
			uint64(r.Timestamp), r.Exchange.From, r.Exchange.To, r.Exchange.Rate, r.Rentability,
			r.Amount.From, r.Amount.To, r.Cost.Total, sum(r.Cost.Gas), sum(r.Cost.Fee),
			r.Price.USD, r.Price.EUR, r.Price.SOL, r.Price.MAT,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

func sum(items []float64) float64 {
	var total float64
	for _, v := range items {
		total += v
	}
	return total
}
