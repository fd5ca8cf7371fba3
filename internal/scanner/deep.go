package scanner

import (
	"fmt"
	"math"
	"sort"

	"github.com/sawpanic/optionrun/internal/domain"
	"github.com/sawpanic/optionrun/internal/intel"
)

// Concentration is one near-spot OI hotspot.
type Concentration struct {
	Strike  float64 `json:"strike"`
	CallOI  int64   `json:"call_oi"`
	PutOI   int64   `json:"put_oi"`
	TotalOI int64   `json:"total_oi"`
	PCR     float64 `json:"pcr"`
}

// OIConcentration locates support and resistance walls relative to spot:
// the heaviest call OI above spot and the heaviest put OI below it.
type OIConcentration struct {
	Support        float64         `json:"support"`
	Resistance     float64         `json:"resistance"`
	SupportOI      int64           `json:"support_oi"`
	ResistanceOI   int64           `json:"resistance_oi"`
	Concentrations []Concentration `json:"concentrations"`
}

// AnalyzeOIConcentrations finds the OI walls and the top near-spot
// hotspots (within 5% of spot, top five by total OI).
func AnalyzeOIConcentrations(snap *domain.OptionChainSnapshot) OIConcentration {
	var out OIConcentration
	var maxCallOI, maxPutOI int64

	for i := range snap.Chain {
		row := &snap.Chain[i]
		var callOI, putOI int64
		if row.Call != nil {
			callOI = row.Call.OI
		}
		if row.Put != nil {
			putOI = row.Put.OI
		}

		if math.Abs(row.Strike-snap.SpotPrice)/snap.SpotPrice <= 0.05 {
			pcr := 0.0
			if callOI > 0 {
				pcr = round2(float64(putOI) / float64(callOI))
			}
			out.Concentrations = append(out.Concentrations, Concentration{
				Strike:  row.Strike,
				CallOI:  callOI,
				PutOI:   putOI,
				TotalOI: callOI + putOI,
				PCR:     pcr,
			})
		}

		if row.Strike > snap.SpotPrice && callOI > maxCallOI {
			maxCallOI = callOI
			out.Resistance = row.Strike
		}
		if row.Strike < snap.SpotPrice && putOI > maxPutOI {
			maxPutOI = putOI
			out.Support = row.Strike
		}
	}

	out.SupportOI = maxPutOI
	out.ResistanceOI = maxCallOI

	sort.SliceStable(out.Concentrations, func(i, j int) bool {
		return out.Concentrations[i].TotalOI > out.Concentrations[j].TotalOI
	})
	if len(out.Concentrations) > 5 {
		out.Concentrations = out.Concentrations[:5]
	}
	return out
}

// BreakoutSignal is one detected breakout precondition.
type BreakoutSignal struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Strength string `json:"strength"`
}

// BreakoutAnalysis aggregates breakout preconditions into a 0-100 score.
type BreakoutAnalysis struct {
	Signals       []BreakoutSignal `json:"signals"`
	BreakoutScore float64          `json:"breakout_score"`
	IsBreakout    bool             `json:"is_breakout"`
}

const (
	atmOIActivityThreshold = 100_000
	ivSkewThreshold        = 0.10
	dayHighProximity       = 0.99
)

// DetectBreakoutSignals checks ATM activity, call/put IV skew, and
// proximity to the day high. dayHigh of zero means no quote was
// available; the check is skipped.
func DetectBreakoutSignals(snap *domain.OptionChainSnapshot, dayHigh float64) BreakoutAnalysis {
	var out BreakoutAnalysis

	if atm := snap.ATMRow(); atm != nil {
		var callOI, putOI int64
		var callIV, putIV float64
		if atm.Call != nil {
			callOI, callIV = atm.Call.OI, atm.Call.IV
		}
		if atm.Put != nil {
			putOI, putIV = atm.Put.OI, atm.Put.IV
		}

		if total := callOI + putOI; total > atmOIActivityThreshold {
			out.Signals = append(out.Signals, BreakoutSignal{
				Type:     "HIGH_ATM_ACTIVITY",
				Message:  fmt.Sprintf("High OI at ATM %.0f: %d", atm.Strike, total),
				Strength: "STRONG",
			})
			out.BreakoutScore += 25
		}

		if callIV > 0 && putIV > 0 {
			skew := (callIV - putIV) / putIV
			if skew > ivSkewThreshold {
				out.Signals = append(out.Signals, BreakoutSignal{
					Type:     "BULLISH_IV_SKEW",
					Message:  fmt.Sprintf("Call IV premium: %.1f%%", skew*100),
					Strength: "MODERATE",
				})
				out.BreakoutScore += 15
			} else if skew < -ivSkewThreshold {
				out.Signals = append(out.Signals, BreakoutSignal{
					Type:     "BEARISH_IV_SKEW",
					Message:  fmt.Sprintf("Put IV premium: %.1f%%", math.Abs(skew)*100),
					Strength: "MODERATE",
				})
			}
		}
	}

	if dayHigh > 0 && snap.SpotPrice >= dayHigh*dayHighProximity {
		out.Signals = append(out.Signals, BreakoutSignal{
			Type:     "NEAR_DAY_HIGH",
			Message:  fmt.Sprintf("Price near day high: %.2f vs %.2f", snap.SpotPrice, dayHigh),
			Strength: "STRONG",
		})
		out.BreakoutScore += 30
	}

	out.BreakoutScore = math.Min(100, out.BreakoutScore)
	out.IsBreakout = out.BreakoutScore >= 50
	return out
}

// GreeksAnalysis scores institutional positioning from OI-weighted delta
// imbalance and peak gamma.
type GreeksAnalysis struct {
	Score          float64 `json:"score"`
	DeltaRatio     float64 `json:"delta_ratio"`
	DeltaBias      string  `json:"delta_bias"`
	MaxGammaStrike float64 `json:"max_gamma_strike"`
	MaxGamma       float64 `json:"max_gamma"`
}

// ScoreGreeks weights each leg's delta by its OI to expose directional
// positioning, and tracks the gamma peak as move potential.
func ScoreGreeks(snap *domain.OptionChainSnapshot) GreeksAnalysis {
	var totalCallDelta, totalPutDelta, maxGamma, maxGammaStrike float64

	for i := range snap.Chain {
		row := &snap.Chain[i]
		if row.Call != nil {
			totalCallDelta += row.Call.Greeks.Delta * float64(row.Call.OI)
			if row.Call.Greeks.Gamma > maxGamma {
				maxGamma = row.Call.Greeks.Gamma
				maxGammaStrike = row.Strike
			}
		}
		if row.Put != nil {
			totalPutDelta += math.Abs(row.Put.Greeks.Delta * float64(row.Put.OI))
		}
	}

	deltaRatio := 1.0
	if totalPutDelta > 0 {
		deltaRatio = totalCallDelta / totalPutDelta
	}

	deltaScore := math.Min(50, math.Abs(deltaRatio-1)*25)
	gammaScore := math.Min(50, maxGamma*5000)

	bias := "NEUTRAL"
	if deltaRatio > 1.2 {
		bias = "BULLISH"
	} else if deltaRatio < 0.8 {
		bias = "BEARISH"
	}

	return GreeksAnalysis{
		Score:          round2(math.Min(100, deltaScore+gammaScore)),
		DeltaRatio:     round2(deltaRatio),
		DeltaBias:      bias,
		MaxGammaStrike: maxGammaStrike,
		MaxGamma:       math.Round(maxGamma*10000) / 10000,
	}
}

// TradeRecommendation is the buy-only synthesis for one deep-scan result.
type TradeRecommendation struct {
	Action     string  `json:"action"`
	OptionType string  `json:"option_type,omitempty"`
	Strike     float64 `json:"strike,omitempty"`
	EntryZone  string  `json:"entry_zone,omitempty"`
	StopLoss   float64 `json:"stop_loss,omitempty"`
	Target     float64 `json:"target,omitempty"`
	Confidence string  `json:"confidence,omitempty"`
	Reason     string  `json:"reason"`
	Suggestion string  `json:"suggestion,omitempty"`
}

// RecommendTrade synthesizes a buy-only recommendation: direction from
// delta bias, entry near spot, stop at the opposing OI wall, target at
// the matching wall. Neutral bias or an untradable state yields
// WAIT/NO_TRADE.
func RecommendTrade(spotPrice, atmStrike float64, oi OIConcentration, greeks GreeksAnalysis, summary *intel.Summary) TradeRecommendation {
	if summary == nil || !summary.Tradable {
		reason := "Market conditions not favorable"
		if summary != nil && summary.Message != "" {
			reason = summary.Message
		}
		return TradeRecommendation{Action: "NO_TRADE", Reason: reason}
	}

	confidence := "MEDIUM"
	if greeks.Score > 50 {
		confidence = "HIGH"
	}

	switch {
	case greeks.DeltaBias == "BULLISH" && oi.Support > 0:
		target := oi.Resistance
		if target == 0 {
			target = atmStrike * 1.02
		}
		return TradeRecommendation{
			Action:     "BUY",
			OptionType: "CE",
			Strike:     atmStrike,
			EntryZone:  fmt.Sprintf("Near %.0f", spotPrice),
			StopLoss:   oi.Support,
			Target:     target,
			Confidence: confidence,
			Reason:     "BULLISH bias with strong OI support",
		}
	case greeks.DeltaBias == "BEARISH" && oi.Resistance > 0:
		target := oi.Support
		if target == 0 {
			target = atmStrike * 0.98
		}
		return TradeRecommendation{
			Action:     "BUY",
			OptionType: "PE",
			Strike:     atmStrike,
			EntryZone:  fmt.Sprintf("Near %.0f", spotPrice),
			StopLoss:   oi.Resistance,
			Target:     target,
			Confidence: confidence,
			Reason:     "BEARISH bias with strong OI resistance",
		}
	default:
		return TradeRecommendation{
			Action:     "WAIT",
			Reason:     "No clear directional bias",
			Suggestion: "Consider ATM straddle if expecting volatility",
		}
	}
}
