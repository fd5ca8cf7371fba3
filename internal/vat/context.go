package vat

import (
	"math"
	"time"

	"github.com/sawpanic/optionrun/internal/domain"
)

// ExpiryPhase buckets the days remaining until the weekly expiry.
type ExpiryPhase string

const (
	ExpiryD0      ExpiryPhase = "EX_D0" // expiry day
	ExpiryD1      ExpiryPhase = "EX_D1"
	ExpiryD2      ExpiryPhase = "EX_D2"
	ExpiryRegular ExpiryPhase = "REGULAR"
)

// MomentumDirection labels recent spot velocity with a ±0.3% deadband.
type MomentumDirection string

const (
	MomentumBullish MomentumDirection = "bullish"
	MomentumBearish MomentumDirection = "bearish"
	MomentumNeutral MomentumDirection = "neutral"
)

const momentumDeadbandPct = 0.3

// MomentumReading is the spot-velocity read feeding the momentum score.
type MomentumReading struct {
	PctChange float64           `json:"pct_change"`
	Score     float64           `json:"score"`
	Direction MomentumDirection `json:"direction"`
}

// MarketContext is the point-in-time context a VAT scan runs under.
// Anchor strike is always spot rounded to the strike step.
type MarketContext struct {
	SpotPrice     float64         `json:"spot_price"`
	AnchorStrike  float64         `json:"anchor_strike"`
	ExpiryPhase   ExpiryPhase     `json:"expiry_phase"`
	DaysToExpiry  int             `json:"days_to_expiry"`
	OptimalWindow bool            `json:"optimal_window"`
	Momentum      MomentumReading `json:"momentum"`
	VIX           float64         `json:"vix"`
}

// DetectExpiryPhase computes days-to-expiry as the forward distance to
// the index's weekly expiry weekday.
func DetectExpiryPhase(now time.Time, expiryWeekday time.Weekday) (ExpiryPhase, int) {
	days := (int(expiryWeekday) - int(now.Weekday()) + 7) % 7
	switch days {
	case 0:
		return ExpiryD0, days
	case 1:
		return ExpiryD1, days
	case 2:
		return ExpiryD2, days
	default:
		return ExpiryRegular, days
	}
}

// ComputeMomentum reads recent spot velocity from the tail of a 5-minute
// candle series (roughly the last half hour). The percent change maps
// linearly onto [0,100]: -1% -> 0, 0% -> 50, +1% -> 100.
func ComputeMomentum(candles []domain.Candle) MomentumReading {
	const tailBars = 6 // ~30 minutes of 5-minute candles

	if len(candles) < 2 {
		return MomentumReading{Score: 50, Direction: MomentumNeutral}
	}
	tail := candles
	if len(tail) > tailBars {
		tail = tail[len(tail)-tailBars:]
	}

	first := tail[0].Close
	last := tail[len(tail)-1].Close
	if first <= 0 {
		return MomentumReading{Score: 50, Direction: MomentumNeutral}
	}

	pct := (last - first) / first * 100
	score := clampScore(50 + pct*50)

	dir := MomentumNeutral
	if pct > momentumDeadbandPct {
		dir = MomentumBullish
	} else if pct < -momentumDeadbandPct {
		dir = MomentumBearish
	}

	return MomentumReading{PctChange: pct, Score: score, Direction: dir}
}

// BuildContext assembles the scan context for one symbol at one instant.
func BuildContext(cfg Config, symbol string, spotPrice float64, vix float64, candles []domain.Candle, now time.Time) MarketContext {
	params := cfg.ParamsFor(symbol)
	phase, days := DetectExpiryPhase(now, time.Weekday(params.ExpiryWeekday))

	return MarketContext{
		SpotPrice:     spotPrice,
		AnchorStrike:  math.Round(spotPrice/params.StrikeStep) * params.StrikeStep,
		ExpiryPhase:   phase,
		DaysToExpiry:  days,
		OptimalWindow: now.Hour() >= cfg.OptimalStartHour && now.Hour() < cfg.OptimalEndHour,
		Momentum:      ComputeMomentum(candles),
		VIX:           vix,
	}
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
