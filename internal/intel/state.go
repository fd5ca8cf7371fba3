package intel

import (
	"fmt"
	"math"

	"github.com/sawpanic/optionrun/internal/session"
)

// State is the market classification. ADJUSTMENT is exposed as its own
// label; only TREND and INTENT are tradable.
type State string

const (
	StateTrend      State = "TREND"
	StateRange      State = "RANGE"
	StateIntent     State = "INTENT"
	StateAdjustment State = "ADJUSTMENT"
	StateNoTrade    State = "NO-TRADE"
)

// Tradable reports whether the state permits directional entries.
func (s State) Tradable() bool {
	return s == StateTrend || s == StateIntent
}

// StateResult is one classification outcome: state, confidence in
// [0,100], and a human-readable rationale. Recomputed per request,
// never persisted.
type StateResult struct {
	State      State  `json:"state"`
	Confidence int    `json:"confidence"`
	Message    string `json:"message"`
	Tradable   bool   `json:"tradable"`
}

// StateInputs collects everything the classifier reads. Current time
// enters only through Window so a classification is reproducible from
// its inputs.
type StateInputs struct {
	Window          session.Window
	BypassTimeCheck bool
	ATM             ATMAnalysis
	OI              OIAnalysis
	Flow            FlowResult
	PCR             float64
	VIX             float64
}

// stateRule is one row of the decision table: first matching rule wins.
// The order is load-bearing and deliberately visible here rather than
// buried in control flow.
type stateRule struct {
	name    string
	applies func(in StateInputs, cfg Config) bool
	outcome func(in StateInputs, cfg Config) StateResult
}

var stateRules = []stateRule{
	{
		name: "market_closed",
		applies: func(in StateInputs, _ Config) bool {
			return !in.BypassTimeCheck && in.Window.Closed()
		},
		outcome: func(StateInputs, Config) StateResult {
			return result(StateNoTrade, 100, "Market is closed")
		},
	},
	{
		name: "high_risk_window",
		applies: func(in StateInputs, _ Config) bool {
			return !in.BypassTimeCheck && in.Window == session.HighRisk
		},
		outcome: func(StateInputs, Config) StateResult {
			return result(StateNoTrade, 90, "Last 10 minutes - High risk zone")
		},
	},
	{
		name: "noise_window",
		applies: func(in StateInputs, _ Config) bool {
			return !in.BypassTimeCheck && in.Window == session.Noise
		},
		outcome: func(StateInputs, Config) StateResult {
			return result(StateNoTrade, 70, "Opening hour noise - Wait for structure")
		},
	},
	{
		name: "institutional_intent",
		applies: func(in StateInputs, cfg Config) bool {
			return in.Flow.IntentScore > cfg.IntentScoreThreshold
		},
		outcome: func(in StateInputs, _ Config) StateResult {
			return result(StateIntent, in.Flow.IntentScore, "Institutional intent detected via Volume clusters")
		},
	},
	{
		name: "tight_range",
		applies: func(in StateInputs, cfg Config) bool {
			if !in.OI.SpotInRange {
				return false
			}
			widthPct := in.OI.RangeWidth / math.Max(in.OI.Support, 1) * 100
			return widthPct < cfg.TightRangePct
		},
		outcome: func(in StateInputs, _ Config) StateResult {
			return result(StateRange, 80,
				fmt.Sprintf("Tight range between %.0f-%.0f", in.OI.Support, in.OI.Resistance))
		},
	},
	{
		name: "atm_pressure_trend",
		applies: func(in StateInputs, _ Config) bool {
			b := in.ATM.PremiumBehavior
			return b == BehaviorBullishPressure || b == BehaviorBearishPressure
		},
		outcome: func(in StateInputs, _ Config) StateResult {
			return result(StateTrend, 65,
				fmt.Sprintf("Directional pressure detected: %s", in.ATM.PremiumBehavior))
		},
	},
	{
		name: "adjustment_window",
		applies: func(in StateInputs, _ Config) bool {
			return in.Window == session.Adjustment
		},
		outcome: func(StateInputs, Config) StateResult {
			return result(StateAdjustment, 60, "Adjustment time window (2:30-3:20 PM) - Watch ATM premiums")
		},
	},
	{
		name: "structure_window",
		applies: func(in StateInputs, _ Config) bool {
			return in.Window == session.Structure
		},
		outcome: func(StateInputs, Config) StateResult {
			return result(StateRange, 55, "Structure building phase - Monitor OI concentration")
		},
	},
	{
		name: "traps_window",
		applies: func(in StateInputs, _ Config) bool {
			return in.Window == session.Traps
		},
		outcome: func(StateInputs, Config) StateResult {
			return result(StateNoTrade, 60, "Trap zone (12:30-2:30 PM) - Wait for clarity")
		},
	},
}

// ClassifyState walks the ordered rule table and returns the first match,
// falling back to a neutral RANGE read. Pure and stateless: one decision
// per call.
func ClassifyState(in StateInputs, cfg Config) StateResult {
	for _, rule := range stateRules {
		if rule.applies(in, cfg) {
			return rule.outcome(in, cfg)
		}
	}
	return result(StateRange, 50, "Neutral market - No clear signal")
}

func result(state State, confidence int, message string) StateResult {
	return StateResult{
		State:      state,
		Confidence: confidence,
		Message:    message,
		Tradable:   state.Tradable(),
	}
}
