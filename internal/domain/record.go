package domain

// Stream names for the record buffer. Each stream is compacted independently
// and its name doubles as the export file prefix.
const (
	StreamTrades  = "trades"
	StreamWallets = "wallets"
)

// Record is the canonical normalized trade. All float fields are rounded to
// 6 decimal places at the point of computation, before any derived value is
// computed from them.
type Record struct {
	Cost        Cost     `json:"cost"`
	Amount      Amount   `json:"amount"`
	Exchange    Exchange `json:"exchange"`
	Price       Price    `json:"price"`
	Rentability float64  `json:"rentability"`
	Timestamp   int64    `json:"timestamp"`
}

// Cost groups the gas and fee line items of a swap with their total.
type Cost struct {
	Gas   []float64 `json:"gas"`
	Fee   []float64 `json:"fee"`
	Total float64   `json:"total"`
}

// Amount holds the digit-scaled leg amounts of the swap.
type Amount struct {
	From float64 `json:"from"`
	To   float64 `json:"to"`
}

// Exchange holds the realized rate and the composite pair identifiers
// "{chain}:{token}:{currency}".
type Exchange struct {
	Rate float64 `json:"rate"`
	From string  `json:"from"`
	To   string  `json:"to"`
}

// Price is the reference-currency price table snapshotted with the record.
// USD is the reporting unit, so it is always 1.0.
type Price struct {
	USD float64 `json:"USD"`
	EUR float64 `json:"EUR"`
	SOL float64 `json:"SOL"`
	MAT float64 `json:"MAT"`
}

// AsDocument renders the record as a generic document for buffering and
// flattening. The layout here is the export column contract: path segments of
// the flattened CSV header come from these keys.
func (r *Record) AsDocument() Document {
	gas := make([]any, len(r.Cost.Gas))
	for i, v := range r.Cost.Gas {
		gas[i] = v
	}
	fee := make([]any, len(r.Cost.Fee))
	for i, v := range r.Cost.Fee {
		fee[i] = v
	}
	return Document{
		"cost": map[string]any{
			"gas":   gas,
			"fee":   fee,
			"total": r.Cost.Total,
		},
		"amount": map[string]any{
			"from": r.Amount.From,
			"to":   r.Amount.To,
		},
		"exchange": map[string]any{
			"rate": r.Exchange.Rate,
			"from": r.Exchange.From,
			"to":   r.Exchange.To,
		},
		"price": map[string]any{
			"USD": r.Price.USD,
			"EUR": r.Price.EUR,
			"SOL": r.Price.SOL,
			"MAT": r.Price.MAT,
		},
		"rentability": r.Rentability,
		"timestamp":   r.Timestamp,
	}
}
