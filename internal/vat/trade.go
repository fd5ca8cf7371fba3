package vat

import "math"

// TradeParams are the derived execution levels for a signal. Stop-loss is
// never allowed below half of entry regardless of the configured percent.
type TradeParams struct {
	Entry      float64 `json:"entry"`
	StopLoss   float64 `json:"stop_loss"`
	Target1    float64 `json:"target_1"`
	Target2    float64 `json:"target_2"`
	RiskReward float64 `json:"risk_reward"`
}

// ComputeTradeParams derives SL/targets/RR for a long premium entry.
// fairValue is the counterpart leg's premium, the level the undervalued
// leg is expected to revert toward.
func (c Config) ComputeTradeParams(entry, fairValue float64) TradeParams {
	stopLoss := entry * (1 - c.StopLossPercent/100)
	stopLoss = math.Max(stopLoss, entry*0.5)

	target1 := math.Max(entry+0.5*(fairValue-entry), entry*(1+c.Target1Percent/100))
	target2 := math.Max(fairValue, entry*(1+c.Target2Percent/100))

	risk := entry - stopLoss
	rr := 0.0
	if risk > 0 {
		rr = (target1 - entry) / risk
	}

	return TradeParams{
		Entry:      entry,
		StopLoss:   round2(stopLoss),
		Target1:    round2(target1),
		Target2:    round2(target2),
		RiskReward: round2(rr),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
