package idhash

import (
	"testing"

	"swap-telemetry-lab/internal/domain"
)

func walletData(amount float64) domain.WalletData {
	return domain.WalletData{
		StableCoins: map[string]float64{
			"137:0xA:USD":      amount,
			"solana:addr1:EUR": 2.5,
		},
		Value: domain.Valuation{
			ByChain: map[string]domain.ChainValue{
				"137":    {USD: amount, Total: amount},
				"solana": {EUR: 2.5, Total: 2.75},
			},
			Total: amount + 2.75,
		},
	}
}

func TestComputeWalletID_Deterministic(t *testing.T) {
	a, err := ComputeWalletID(walletData(5.0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := ComputeWalletID(walletData(5.0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a != b {
		t.Errorf("identical data produced different ids: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("expected 64-char hex id, got %d chars", len(a))
	}
}

func TestComputeWalletID_ContentSensitive(t *testing.T) {
	a, err := ComputeWalletID(walletData(5.0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := ComputeWalletID(walletData(5.000001))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a == b {
		t.Error("different balances produced the same id")
	}
}
