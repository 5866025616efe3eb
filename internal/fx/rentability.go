package fx

// Rentability computes the percentage gain or loss of a swap relative to a
// flat market baseline of 100 units, reported in USD where the pair allows it.
//
// The comparison against real market rates is only meaningful for pairs that
// cross the reference currency boundary exactly once (EUR->USD or USD->EUR).
// For those, the baseline is compared to the converted 100 units and the
// difference is normalized into USD. A same-reference pair (EUR->EUR) has its
// flat gain converted into USD. Every other pair reports the flat gain
// unconverted. This tie-break is a contract, not a rule to generalize.
func Rentability(from, to string, exchangeRate float64, rates Rates) (float64, error) {
	baseline := 100 * exchangeRate
	gain := baseline - 100

	switch {
	case isReferenceCrossing(from, to):
		market, err := Convert(100, from, to, rates)
		if err != nil {
			return 0, err
		}
		correlation := baseline - market
		reported, err := Convert(correlation, to, "USD", rates)
		if err != nil {
			return 0, err
		}
		return Round6(reported), nil

	case from == ReferenceCurrency && to == ReferenceCurrency:
		reported, err := Convert(gain, ReferenceCurrency, "USD", rates)
		if err != nil {
			return 0, err
		}
		return Round6(reported), nil

	default:
		return Round6(gain), nil
	}
}

// isReferenceCrossing reports whether the pair crosses the EUR/USD boundary
// exactly once.
func isReferenceCrossing(from, to string) bool {
	return (from == "EUR" && to == "USD") || (from == "USD" && to == "EUR")
}
