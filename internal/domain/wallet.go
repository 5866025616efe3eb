package domain

// SupportedChains is the chain set covered by wallet valuation. Balance lines
// on other chains stay in stable_coins but never enter valuation sums.
var SupportedChains = []string{"137", "solana"}

// Wallet is the canonical wallet snapshot. ID is a deterministic content hash
// of Data only, so identical balances at different times share one id.
type Wallet struct {
	ID        string     `json:"id"`
	Data      WalletData `json:"data"`
	Timestamp int64      `json:"timestamp"`
}

// WalletData is the hashed payload of a wallet snapshot.
type WalletData struct {
	StableCoins map[string]float64 `json:"stable_coins"`
	Value       Valuation          `json:"value"`
}

// Valuation is the wallet's worth in the reporting currency, per chain and
// in total.
type Valuation struct {
	ByChain map[string]ChainValue `json:"by_chain"`
	Total   float64               `json:"total"`
}

// ChainValue is the per-chain breakdown of a valuation.
type ChainValue struct {
	EUR   float64 `json:"EUR"`
	USD   float64 `json:"USD"`
	Total float64 `json:"total"`
}

// AsDocument renders the wallet as a generic document for buffering and
// flattening.
func (w *Wallet) AsDocument() Document {
	coins := make(map[string]any, len(w.Data.StableCoins))
	for k, v := range w.Data.StableCoins {
		coins[k] = v
	}
	byChain := make(map[string]any, len(w.Data.Value.ByChain))
	for chain, cv := range w.Data.Value.ByChain {
		byChain[chain] = map[string]any{
			"EUR":   cv.EUR,
			"USD":   cv.USD,
			"total": cv.Total,
		}
	}
	return Document{
		"id": w.ID,
		"data": map[string]any{
			"stable_coins": coins,
			"value": map[string]any{
				"by_chain": byChain,
				"total":    w.Data.Value.Total,
			},
		},
		"timestamp": w.Timestamp,
	}
}
