package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// RawPayload is one inbound telemetry unit: a trade description plus a
// snapshot of the originating wallet's balances across chains.
type RawPayload struct {
	Trade  TradePayload  `json:"trade"`
	Wallet []WalletEntry `json:"wallet"`
}

// TradePayload carries the swap configuration and the traded pair, plus the
// per-batch native token prices supplied by the upstream fetcher.
type TradePayload struct {
	SwapConfig  SwapConfig `json:"swapConfig"`
	Pair        TradePair  `json:"pair"`
	SolanaPrice float64    `json:"solanaPrice"`
	MaticPrice  float64    `json:"maticPrice"`
}

// SwapConfig describes amounts, costs and market rates of a single swap.
// Leg amounts arrive as integer minor units scaled by their digit counts.
// Amount and cost fields are pointers so an absent key is distinguishable
// from an explicit zero and can be rejected by validation.
type SwapConfig struct {
	FromAmount      *FlexFloat         `json:"fromAmount"`
	FromDigits      int                `json:"fromDigits"`
	ToAmount        *FlexFloat         `json:"toAmount"`
	ToDigits        int                `json:"toDigits"`
	ExchangeRate    float64            `json:"exchangeRate"`
	TransactionCost *FlexFloat         `json:"transactionCost"`
	GasCosts        []CostItem         `json:"gasCosts"`
	FeeCosts        []CostItem         `json:"feeCosts"`
	FiatPrices      map[string]float64 `json:"fiatPrices"`
}

// CostItem is one gas or fee line item of a swap.
type CostItem struct {
	AmountUSD FlexFloat `json:"amountUsd"`
}

// TradePair holds both legs of the swap.
type TradePair struct {
	From PairSide `json:"from"`
	To   PairSide `json:"to"`
}

// PairSide is one leg of the traded pair.
type PairSide struct {
	Type     string `json:"type"`
	Chain    string `json:"chain"`
	Token    string `json:"token"`
	Address  string `json:"address"`
	Currency string `json:"currency"`
}

// CompositeID collapses a pair side into its canonical identifier.
func (s PairSide) CompositeID() string {
	return fmt.Sprintf("%s:%s:%s", s.Chain, s.Token, s.Currency)
}

// WalletEntry is one balance line of the wallet snapshot.
type WalletEntry struct {
	Type     string    `json:"type"`
	Chain    string    `json:"chain"`
	Address  string    `json:"address"`
	Currency string    `json:"currency"`
	Amount   FlexFloat `json:"amount"`
}

// Key builds the WalletKey "{chain}:{address}:{currency}" for this entry.
func (e WalletEntry) Key() string {
	return fmt.Sprintf("%s:%s:%s", e.Chain, e.Address, e.Currency)
}

// FlexFloat is a float64 that also accepts JSON string encoding. Upstream
// collectors emit amounts either way depending on the chain adapter.
type FlexFloat float64

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("parse amount %q: %w", s, err)
		}
		*f = FlexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = FlexFloat(v)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (f FlexFloat) MarshalJSON() ([]byte, error) {
	return json.Marshal(float64(f))
}

// Float returns the plain float64 value.
func (f FlexFloat) Float() float64 {
	return float64(f)
}

// Flex wraps a value for the optional FlexFloat payload fields.
func Flex(v float64) *FlexFloat {
	f := FlexFloat(v)
	return &f
}
