// Package valuation aggregates flat wallet balance maps into per-chain and
// total valuations in the reporting currency.
package valuation

import (
	"strings"

	"swap-telemetry-lab/internal/domain"
	"swap-telemetry-lab/internal/fx"
)

// Value computes the wallet valuation over the supported chain set.
// Keys are WalletKeys "{chain}:{address}:{currency}"; classification of a
// balance line is purely lexical: the chain segment must match and the key
// must end in "EUR" or "USD". Lines on unsupported chains are excluded from
// every sum. The grand total sums the rounded per-chain totals.
func Value(wallet map[string]float64, rates fx.Rates) (domain.Valuation, error) {
	val := domain.Valuation{ByChain: make(map[string]domain.ChainValue, len(domain.SupportedChains))}
	for _, chain := range domain.SupportedChains {
		cv, err := chainValue(wallet, chain, rates)
		if err != nil {
			return domain.Valuation{}, err
		}
		val.ByChain[chain] = cv
		val.Total += cv.Total
	}
	val.Total = fx.Round6(val.Total)
	return val, nil
}

// chainValue sums one chain's EUR- and USD-suffixed lines and folds the EUR
// sum into the USD total.
func chainValue(wallet map[string]float64, chain string, rates fx.Rates) (domain.ChainValue, error) {
	var eurSum, usdSum float64
	for key, amount := range wallet {
		segment, _, found := strings.Cut(key, ":")
		if !found || segment != chain {
			continue
		}
		switch currencySuffix(key) {
		case "EUR":
			eurSum += amount
		case "USD":
			usdSum += amount
		}
	}

	converted, err := fx.Convert(eurSum, "EUR", "USD", rates)
	if err != nil {
		return domain.ChainValue{}, err
	}
	return domain.ChainValue{
		EUR:   fx.Round6(eurSum),
		USD:   fx.Round6(usdSum),
		Total: fx.Round6(usdSum + converted),
	}, nil
}

// currencySuffix returns the last 3 characters of the key.
func currencySuffix(key string) string {
	if len(key) < 3 {
		return ""
	}
	return key[len(key)-3:]
}
