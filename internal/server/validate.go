package server

import (
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"

	"swap-telemetry-lab/internal/domain"
)

// ErrInvalidPayload tags validation failures so handlers can map them to a
// client error without inspecting messages.
var ErrInvalidPayload = errors.New("invalid payload")

// ValidatePayload checks a raw payload before normalization touches it.
// Rejection here guarantees the buffer is never mutated by a malformed input.
func ValidatePayload(p *domain.RawPayload) error {
	cfg := p.Trade.SwapConfig
	if cfg.FromAmount == nil {
		return fmt.Errorf("%w: fromAmount missing", ErrInvalidPayload)
	}
	if cfg.ToAmount == nil {
		return fmt.Errorf("%w: toAmount missing", ErrInvalidPayload)
	}
	if cfg.TransactionCost == nil {
		return fmt.Errorf("%w: transactionCost missing", ErrInvalidPayload)
	}
	if len(cfg.FiatPrices) == 0 {
		return fmt.Errorf("%w: fiatPrices missing", ErrInvalidPayload)
	}
	if cfg.ExchangeRate <= 0 {
		return fmt.Errorf("%w: exchangeRate must be positive", ErrInvalidPayload)
	}
	if cfg.FromDigits < 0 || cfg.ToDigits < 0 {
		return fmt.Errorf("%w: digit counts must be non-negative", ErrInvalidPayload)
	}
	if err := validatePairSide("pair.from", p.Trade.Pair.From); err != nil {
		return err
	}
	if err := validatePairSide("pair.to", p.Trade.Pair.To); err != nil {
		return err
	}
	for i, entry := range p.Wallet {
		if entry.Chain == "" || entry.Address == "" || entry.Currency == "" {
			return fmt.Errorf("%w: wallet[%d] needs chain, address and currency", ErrInvalidPayload, i)
		}
		if entry.Chain == "solana" && !validSolanaAddress(entry.Address) {
			return fmt.Errorf("%w: wallet[%d] address %q is not a solana public key", ErrInvalidPayload, i, entry.Address)
		}
	}
	return nil
}

func validatePairSide(field string, s domain.PairSide) error {
	if s.Chain == "" || s.Token == "" || s.Currency == "" {
		return fmt.Errorf("%w: %s needs chain, token and currency", ErrInvalidPayload, field)
	}
	return nil
}

// validSolanaAddress reports whether addr base58-decodes to a canonical
// 32-byte ed25519 point.
func validSolanaAddress(addr string) bool {
	raw, err := base58.Decode(addr)
	if err != nil || len(raw) != 32 {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(raw)
	return err == nil
}
