package intel

import (
	"math"

	"github.com/sawpanic/optionrun/internal/domain"
)

// PremiumBehavior classifies same-session premium change on the ATM pair.
type PremiumBehavior string

const (
	BehaviorBullishPressure PremiumBehavior = "BULLISH_PRESSURE"
	BehaviorBearishPressure PremiumBehavior = "BEARISH_PRESSURE"
	BehaviorThetaDecay      PremiumBehavior = "THETA_DECAY"
	BehaviorFlat            PremiumBehavior = "FLAT"
	BehaviorDistortion      PremiumBehavior = "DISTORTION"
	BehaviorNeutral         PremiumBehavior = "NEUTRAL"
)

// ATMAnalysis describes behavior at the at-the-money strike, where
// institutions hedge, gamma peaks, and adjustments show up first.
type ATMAnalysis struct {
	Status          string          `json:"status"`
	Strike          float64         `json:"strike"`
	CallLTP         float64         `json:"call_ltp"`
	PutLTP          float64         `json:"put_ltp"`
	CallOI          int64           `json:"call_oi"`
	PutOI           int64           `json:"put_oi"`
	CallChange      float64         `json:"call_chg"`
	PutChange       float64         `json:"put_chg"`
	PremiumRatio    float64         `json:"premium_ratio"`
	OIRatio         float64         `json:"oi_ratio"`
	PremiumBehavior PremiumBehavior `json:"premium_behavior"`
	CallDelta       float64         `json:"call_delta"`
	PutDelta        float64         `json:"put_delta"`
	CallGamma       float64         `json:"call_gamma"`
	PutGamma        float64         `json:"put_gamma"`
	CallIV          float64         `json:"call_iv"`
	PutIV           float64         `json:"put_iv"`
	DeltaStrength   string          `json:"delta_strength"`
	GammaZone       string          `json:"gamma_zone"`
}

const (
	statusOK     = "OK"
	statusNoData = "NO_DATA"
)

// AnalyzeATM computes premium/OI ratios, behavior tags, and Greeks zone
// interpretation for the ATM row. A missing row yields a NO_DATA result,
// never an error: absent data is an expected condition.
func AnalyzeATM(row *domain.StrikeRow, spotPrice float64) ATMAnalysis {
	if row == nil {
		return ATMAnalysis{Status: statusNoData}
	}

	var call, put domain.ContractQuote
	if row.Call != nil {
		call = *row.Call
	}
	if row.Put != nil {
		put = *row.Put
	}

	// Ratio of zero when the put leg trades at zero: reporting infinity
	// would be noise, not signal.
	premiumRatio := 0.0
	if put.LTP != 0 {
		premiumRatio = call.LTP / math.Max(put.LTP, 0.01)
	}
	oiRatio := float64(call.OI) / math.Max(float64(put.OI), 1)

	behavior := classifyPremiumBehavior(call.Change, put.Change)

	deltaStrength := "WEAK"
	if math.Abs(call.Greeks.Delta) > 0.5 || math.Abs(put.Greeks.Delta) > 0.5 {
		deltaStrength = "STRONG"
	}
	gammaZone := "LOW"
	if (call.Greeks.Gamma+put.Greeks.Gamma)/2 > 0.005 {
		gammaZone = "HIGH"
	}

	return ATMAnalysis{
		Status:          statusOK,
		Strike:          row.Strike,
		CallLTP:         call.LTP,
		PutLTP:          put.LTP,
		CallOI:          call.OI,
		PutOI:           put.OI,
		CallChange:      call.Change,
		PutChange:       put.Change,
		PremiumRatio:    round2(premiumRatio),
		OIRatio:         round2(oiRatio),
		PremiumBehavior: behavior,
		CallDelta:       call.Greeks.Delta,
		PutDelta:        put.Greeks.Delta,
		CallGamma:       call.Greeks.Gamma,
		PutGamma:        put.Greeks.Gamma,
		CallIV:          call.IV,
		PutIV:           put.IV,
		DeltaStrength:   deltaStrength,
		GammaZone:       gammaZone,
	}
}

// classifyPremiumBehavior tags the ATM pair from the sign and relative
// magnitude of the session change on each leg. Opposite signs mean
// directional pressure; both legs bleeding is plain theta decay.
func classifyPremiumBehavior(callChg, putChg float64) PremiumBehavior {
	switch {
	case callChg > 0 && putChg < 0:
		return BehaviorBullishPressure
	case callChg < 0 && putChg > 0:
		return BehaviorBearishPressure
	case callChg < 0 && putChg < 0:
		return BehaviorThetaDecay
	case callChg == 0 && putChg == 0:
		return BehaviorFlat
	case callChg != 0 && putChg != 0 &&
		(math.Abs(callChg) > math.Abs(putChg)*2 || math.Abs(putChg) > math.Abs(callChg)*2):
		return BehaviorDistortion
	default:
		return BehaviorNeutral
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
