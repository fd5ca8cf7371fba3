package vat

import (
	"math"

	"github.com/sawpanic/optionrun/internal/domain"
)

// SignalStrength labels a confidence score band. Boundaries are closed on
// the band they name: exactly 80 is high, exactly 60 is medium.
type SignalStrength string

const (
	StrengthHigh   SignalStrength = "high"
	StrengthMedium SignalStrength = "medium"
	StrengthLow    SignalStrength = "low"
	StrengthSkip   SignalStrength = "skip"
)

// ComponentScores are the five confidence inputs, each in [0,100].
type ComponentScores struct {
	Gap      float64 `json:"gap"`
	Momentum float64 `json:"momentum"`
	Time     float64 `json:"time"`
	Greeks   float64 `json:"greeks"`
	MaxPain  float64 `json:"max_pain"`
}

// GapScore rates the premium dislocation. Half the score rewards the gap
// relative to the minimum threshold, half rewards the gap relative to the
// average premium of the pair.
func GapScore(gap, minGap, avgPremium float64) float64 {
	if gap < minGap || minGap <= 0 {
		return 0
	}
	score := math.Min(50, 15*gap/minGap)
	if avgPremium > 0 {
		score += math.Min(50, 2*gap/avgPremium*100)
	}
	return math.Min(score, 100)
}

// MomentumScore aligns the raw momentum read with the signal direction.
// A BUY_CE riding bullish momentum keeps the raw score; a signal fighting
// the detected direction gets the inverted score. The inversion is a
// heuristic carried over from the strategy's author, not a derived
// formula.
func MomentumScore(signal SignalType, m MomentumReading) float64 {
	aligned := (signal == SignalBuyCE && m.Direction == MomentumBullish) ||
		(signal == SignalBuyPE && m.Direction == MomentumBearish)
	opposed := (signal == SignalBuyCE && m.Direction == MomentumBearish) ||
		(signal == SignalBuyPE && m.Direction == MomentumBullish)

	switch {
	case aligned:
		return m.Score
	case opposed:
		return 100 - m.Score
	default:
		return 50
	}
}

// TimeScore rates expiry-phase timing: expiry day scores highest, with a
// bonus inside the optimal trading window.
func TimeScore(phase ExpiryPhase, optimalWindow bool) float64 {
	var base float64
	switch phase {
	case ExpiryD0:
		base = 100
	case ExpiryD1:
		base = 80
	case ExpiryD2:
		base = 60
	default:
		base = 20
	}
	if optimalWindow {
		base += 20
	}
	return math.Min(base, 100)
}

// Missing-field substitutions for Greeks scoring. Zero means the
// normalizer had nothing; these stand in for a typical slightly-OTM leg.
const (
	defaultDelta = 0.4
	defaultGamma = 0.01
	defaultIV    = 20.0
)

// GreeksScore rates contract quality for a long premium position:
// tradable delta band, gamma with room to move, sane IV.
func GreeksScore(q *domain.ContractQuote) float64 {
	delta, gamma, iv := defaultDelta, defaultGamma, defaultIV
	if q != nil {
		if q.Greeks.Delta != 0 {
			delta = q.Greeks.Delta
		}
		if q.Greeks.Gamma != 0 {
			gamma = q.Greeks.Gamma
		}
		if q.IV != 0 {
			iv = q.IV
		}
	}

	score := 50.0
	absDelta := math.Abs(delta)
	switch {
	case absDelta >= 0.25 && absDelta <= 0.55:
		score += 25
	case absDelta >= 0.15 && absDelta <= 0.65:
		score += 15
	}
	switch {
	case gamma > 0.02:
		score += 15
	case gamma > 0.01:
		score += 10
	}
	if iv >= 15 && iv <= 30 {
		score += 10
	}
	return math.Min(score, 100)
}

// MaxPainScore is a constant placeholder. True max-pain computation
// (aggregate OI payoff minimization) is a known gap, not implemented.
func MaxPainScore() float64 {
	return 50
}

// ConfidenceScore blends the five components with the configured weights
// and maps the result to a strength band.
func (c Config) ConfidenceScore(s ComponentScores) (int, SignalStrength) {
	weighted := s.Gap*c.Weights.Gap +
		s.Momentum*c.Weights.Momentum +
		s.Time*c.Weights.Time +
		s.Greeks*c.Weights.Greeks +
		s.MaxPain*c.Weights.MaxPain

	confidence := int(math.Round(clampScore(weighted)))

	switch {
	case confidence >= c.HighConfidenceThreshold:
		return confidence, StrengthHigh
	case confidence >= c.MediumConfidenceThreshold:
		return confidence, StrengthMedium
	case confidence >= c.LowConfidenceThreshold:
		return confidence, StrengthLow
	default:
		return confidence, StrengthSkip
	}
}
