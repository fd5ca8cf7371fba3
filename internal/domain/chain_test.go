package domain

import (
	"errors"
	"testing"
)

func testSnapshot() *OptionChainSnapshot {
	return &OptionChainSnapshot{
		Symbol:    "NSE:NIFTY50-INDEX",
		SpotPrice: 25010,
		ATMStrike: 25000,
		Chain: []StrikeRow{
			{Strike: 24900, Call: &ContractQuote{LTP: 150}, Put: &ContractQuote{LTP: 40}},
			{Strike: 25000, Call: &ContractQuote{LTP: 90}, Put: &ContractQuote{LTP: 85}},
			{Strike: 25100, Call: &ContractQuote{LTP: 45}, Put: &ContractQuote{LTP: 140}},
		},
	}
}

func TestValidate(t *testing.T) {
	if err := testSnapshot().Validate(); err != nil {
		t.Fatalf("valid snapshot rejected: %v", err)
	}

	noSpot := testSnapshot()
	noSpot.SpotPrice = 0
	if err := noSpot.Validate(); !errors.Is(err, ErrNoSpotPrice) {
		t.Errorf("zero spot: got %v, want ErrNoSpotPrice", err)
	}

	negSpot := testSnapshot()
	negSpot.SpotPrice = -1
	if err := negSpot.Validate(); !errors.Is(err, ErrNoSpotPrice) {
		t.Errorf("negative spot: got %v, want ErrNoSpotPrice", err)
	}

	empty := testSnapshot()
	empty.Chain = nil
	if err := empty.Validate(); !errors.Is(err, ErrEmptyChain) {
		t.Errorf("empty chain: got %v, want ErrEmptyChain", err)
	}

	var nilSnap *OptionChainSnapshot
	if err := nilSnap.Validate(); !errors.Is(err, ErrNoSpotPrice) {
		t.Errorf("nil snapshot: got %v, want ErrNoSpotPrice", err)
	}
}

func TestRow(t *testing.T) {
	s := testSnapshot()
	if row := s.Row(25000); row == nil || row.Strike != 25000 {
		t.Fatalf("Row(25000) = %+v", row)
	}
	if row := s.Row(26000); row != nil {
		t.Errorf("Row(26000) = %+v, want nil", row)
	}
}

func TestATMRow(t *testing.T) {
	s := testSnapshot()
	if row := s.ATMRow(); row == nil || row.Strike != 25000 {
		t.Fatalf("ATMRow with stamped strike = %+v", row)
	}

	// Without a stamped ATM strike the nearest strike to spot wins.
	s.ATMStrike = 0
	if row := s.ATMRow(); row == nil || row.Strike != 25000 {
		t.Errorf("ATMRow nearest fallback = %+v, want 25000", row)
	}

	// A stamped strike absent from the chain also falls back.
	s.ATMStrike = 25050
	if row := s.ATMRow(); row == nil || row.Strike != 25000 {
		t.Errorf("ATMRow missing-strike fallback = %+v, want 25000", row)
	}
}
