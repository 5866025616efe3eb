// Package normalize turns raw trade+wallet payloads into canonical records
// and wallets, and flattens nested documents into tabular rows for export.
package normalize

import (
	"fmt"
	"math"
	"time"

	"swap-telemetry-lab/internal/domain"
	"swap-telemetry-lab/internal/fx"
	"swap-telemetry-lab/internal/idhash"
	"swap-telemetry-lab/internal/valuation"
)

// Normalizer converts one RawPayload into its canonical persisted shapes.
type Normalizer struct {
	now func() time.Time // injectable clock for deterministic output
}

// New creates a Normalizer stamping records with the current UTC time.
func New() *Normalizer {
	return &Normalizer{now: func() time.Time { return time.Now().UTC() }}
}

// WithClock sets a custom clock function for deterministic output.
func (n *Normalizer) WithClock(now func() time.Time) *Normalizer {
	n.now = now
	return n
}

// Normalize produces the canonical record and wallet for a payload.
// The step order is load-bearing: every float is rounded to 6 decimals at the
// point of computation and later steps consume the already-rounded values.
func (n *Normalizer) Normalize(p *domain.RawPayload) (*domain.Record, *domain.Wallet, error) {
	cfg := p.Trade.SwapConfig
	if cfg.FromAmount == nil || cfg.ToAmount == nil || cfg.TransactionCost == nil {
		return nil, nil, fmt.Errorf("swap config: fromAmount, toAmount and transactionCost are required")
	}
	rates := fx.Rates(cfg.FiatPrices)
	timestamp := n.now().Unix()

	usdRate, ok := rates["USD"]
	if !ok {
		return nil, nil, fmt.Errorf("price table: %w: USD", fx.ErrMissingRate)
	}

	amount := domain.Amount{
		From: ScaleAmount(cfg.FromAmount.Float(), cfg.FromDigits),
		To:   ScaleAmount(cfg.ToAmount.Float(), cfg.ToDigits),
	}
	gas := roundCosts(cfg.GasCosts)
	fee := roundCosts(cfg.FeeCosts)
	rate := fx.Round6(cfg.ExchangeRate)

	rentability, err := fx.Rentability(p.Trade.Pair.From.Currency, p.Trade.Pair.To.Currency, rate, rates)
	if err != nil {
		return nil, nil, fmt.Errorf("rentability: %w", err)
	}

	coins := collapseWallet(p.Wallet)
	value, err := valuation.Value(coins, rates)
	if err != nil {
		return nil, nil, fmt.Errorf("wallet valuation: %w", err)
	}

	record := &domain.Record{
		Cost: domain.Cost{
			Gas:   gas,
			Fee:   fee,
			Total: fx.Round6(cfg.TransactionCost.Float()),
		},
		Amount: amount,
		Exchange: domain.Exchange{
			Rate: rate,
			From: p.Trade.Pair.From.CompositeID(),
			To:   p.Trade.Pair.To.CompositeID(),
		},
		Price: domain.Price{
			USD: 1.0,
			EUR: fx.Round6(usdRate),
			SOL: fx.Round6(p.Trade.SolanaPrice),
			MAT: fx.Round6(p.Trade.MaticPrice),
		},
		Rentability: rentability,
		Timestamp:   timestamp,
	}

	data := domain.WalletData{StableCoins: coins, Value: value}
	id, err := idhash.ComputeWalletID(data)
	if err != nil {
		return nil, nil, fmt.Errorf("wallet id: %w", err)
	}
	wallet := &domain.Wallet{ID: id, Data: data, Timestamp: timestamp}

	return record, wallet, nil
}

// ScaleAmount divides a raw integer-minor-unit amount by 10^digits and rounds
// to 6 decimals.
func ScaleAmount(raw float64, digits int) float64 {
	if digits <= 0 {
		return fx.Round6(raw)
	}
	return fx.Round6(raw / math.Pow10(digits))
}

// roundCosts extracts the USD amount of each cost line item, rounded.
func roundCosts(items []domain.CostItem) []float64 {
	out := make([]float64, len(items))
	for i, item := range items {
		out[i] = fx.Round6(item.AmountUSD.Float())
	}
	return out
}

// collapseWallet folds the ordered wallet snapshot into the WalletKey map.
// Later duplicate keys overwrite earlier ones.
func collapseWallet(entries []domain.WalletEntry) map[string]float64 {
	coins := make(map[string]float64, len(entries))
	for _, e := range entries {
		coins[e.Key()] = fx.Round6(e.Amount.Float())
	}
	return coins
}
