// Package fx implements currency conversion and swap rentability math over
// the per-batch fiat rate snapshot carried by each payload.
package fx

import (
	"errors"
	"fmt"
	"math"
)

// ReferenceCurrency is the pivot through which all conversions are routed.
const ReferenceCurrency = "EUR"

// ErrMissingRate is returned when a conversion references a currency absent
// from the rate snapshot. Conversions never default to a rate of 1.0.
var ErrMissingRate = errors.New("missing market rate")

// Rates is a snapshot of market rates, keyed by currency code, quoted as
// units per one EUR.
type Rates map[string]float64

// Convert converts amount between currencies through the reference currency.
// Conversions where neither leg is the reference currency are a deliberate
// no-op: cross rates between two non-reference currencies are out of scope
// and must not be inferred.
func Convert(amount float64, from, to string, rates Rates) (float64, error) {
	if from == to {
		return amount, nil
	}
	if from == ReferenceCurrency {
		rate, ok := rates[to]
		if !ok {
			return 0, fmt.Errorf("convert %s->%s: %w: %s", from, to, ErrMissingRate, to)
		}
		return amount * rate, nil
	}
	if to == ReferenceCurrency {
		rate, ok := rates[from]
		if !ok {
			return 0, fmt.Errorf("convert %s->%s: %w: %s", from, to, ErrMissingRate, from)
		}
		return amount / rate, nil
	}
	return amount, nil
}

// Round6 rounds v to 6 decimal places. Canonical records carry every float
// rounded at the point of computation, before any derived value is computed.
func Round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
