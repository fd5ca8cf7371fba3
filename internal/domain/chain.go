package domain

import (
	"errors"
	"math"
)

// Input validation failures surfaced to callers as tagged errors rather
// than panics. The HTTP layer maps these to 4xx responses.
var (
	ErrNoSpotPrice = errors.New("no valid spot price available")
	ErrEmptyChain  = errors.New("no chain data available")
)

// Greeks holds the per-contract sensitivity measures attached upstream by
// the chain normalizer. Absent values arrive as zero; consumers apply a
// documented default-substitution policy instead of guessing.
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
}

// ContractQuote is one option leg (call or put) at a strike. All numeric
// fields are optional on the wire and default to zero for arithmetic.
type ContractQuote struct {
	LTP      float64 `json:"ltp"`
	Bid      float64 `json:"bid"`
	Ask      float64 `json:"ask"`
	Volume   int64   `json:"volume"`
	OI       int64   `json:"oi"`
	OIChange int64   `json:"oi_chg"`
	PrevOI   int64   `json:"prev_oi"`
	Change   float64 `json:"chg"`
	IV       float64 `json:"iv"`
	Greeks   Greeks  `json:"greeks"`
}

// StrikeRow pairs the call and put legs at one strike. A nil leg means
// the broker returned no contract for that side, which is missing data,
// not an explicit zero.
type StrikeRow struct {
	Strike float64        `json:"strike_price"`
	Call   *ContractQuote `json:"call"`
	Put    *ContractQuote `json:"put"`
}

// OptionChainSnapshot is the canonical normalized chain for one underlying
// at one instant. Rows are strike-ascending with unique strikes. Snapshots
// are immutable once constructed and produced fresh per analysis call.
type OptionChainSnapshot struct {
	Symbol      string      `json:"symbol"`
	SpotPrice   float64     `json:"spot_price"`
	ATMStrike   float64     `json:"atm_strike"`
	TotalCallOI int64       `json:"total_call_oi"`
	TotalPutOI  int64       `json:"total_put_oi"`
	PCR         float64     `json:"pcr"`
	IndiaVIX    float64     `json:"india_vix"`
	Chain       []StrikeRow `json:"chain"`
}

// Validate enforces the hard input contract: positive spot and a non-empty
// chain. Everything downstream assumes both hold.
func (s *OptionChainSnapshot) Validate() error {
	if s == nil || s.SpotPrice <= 0 {
		return ErrNoSpotPrice
	}
	if len(s.Chain) == 0 {
		return ErrEmptyChain
	}
	return nil
}

// Row returns the row at the exact strike, or nil when absent.
func (s *OptionChainSnapshot) Row(strike float64) *StrikeRow {
	for i := range s.Chain {
		if s.Chain[i].Strike == strike {
			return &s.Chain[i]
		}
	}
	return nil
}

// ATMRow returns the row at the snapshot's ATM strike. Falls back to the
// strike nearest to spot when the normalizer did not stamp atm_strike.
func (s *OptionChainSnapshot) ATMRow() *StrikeRow {
	if s.ATMStrike > 0 {
		if row := s.Row(s.ATMStrike); row != nil {
			return row
		}
	}
	var nearest *StrikeRow
	best := math.MaxFloat64
	for i := range s.Chain {
		if d := math.Abs(s.Chain[i].Strike - s.SpotPrice); d < best {
			best = d
			nearest = &s.Chain[i]
		}
	}
	return nearest
}
