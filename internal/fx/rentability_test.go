package fx

import (
	"errors"
	"testing"
)

func TestRentability_ReferenceCrossing(t *testing.T) {
	// baseline = 102, market = convert(100, EUR, USD) = 110,
	// correlation = -8, reported = convert(-8, USD, USD) = -8.
	got, err := Rentability("EUR", "USD", 1.02, Rates{"USD": 1.1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != -8.0 {
		t.Errorf("expected -8.0, got %f", got)
	}
}

func TestRentability_ReverseCrossing(t *testing.T) {
	// baseline = 110, market = convert(100, USD, EUR) = 100/1.1,
	// correlation = 110 - 90.909091, reported into USD via EUR pivot.
	got, err := Rentability("USD", "EUR", 1.1, Rates{"USD": 1.1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Round6((110 - 100/1.1) * 1.1)
	if got != want {
		t.Errorf("expected %f, got %f", want, got)
	}
}

func TestRentability_SameReferencePair(t *testing.T) {
	// EUR->EUR: flat gain 5 converted into USD.
	got, err := Rentability("EUR", "EUR", 1.05, Rates{"USD": 1.1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 5.5 {
		t.Errorf("expected 5.5, got %f", got)
	}
}

func TestRentability_UnrelatedPair(t *testing.T) {
	// USDC->SOL reports the flat gain unconverted, rate table unused.
	got, err := Rentability("USDC", "SOL", 1.03, Rates{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 3.0 {
		t.Errorf("expected 3.0, got %f", got)
	}
}

func TestRentability_MissingRateIsFatal(t *testing.T) {
	_, err := Rentability("EUR", "USD", 1.02, Rates{})
	if !errors.Is(err, ErrMissingRate) {
		t.Errorf("expected ErrMissingRate, got %v", err)
	}

	_, err = Rentability("EUR", "EUR", 1.05, Rates{})
	if !errors.Is(err, ErrMissingRate) {
		t.Errorf("expected ErrMissingRate, got %v", err)
	}
}

func TestRentability_Rounding(t *testing.T) {
	got, err := Rentability("BTC", "SOL", 1.0000001, Rates{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0.00001 {
		t.Errorf("expected 0.00001, got %f", got)
	}
}
