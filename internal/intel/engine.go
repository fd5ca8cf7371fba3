package intel

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/optionrun/internal/domain"
	"github.com/sawpanic/optionrun/internal/sentiment"
	"github.com/sawpanic/optionrun/internal/session"
)

// Engine runs the full option-chain intelligence pipeline: institutional
// flow, ATM behavior, OI distribution, market-state classification, and
// strike guidance. It carries only immutable configuration and is safe to
// share across concurrent requests.
type Engine struct {
	cfg Config
}

// NewEngine creates an engine with the given classifier thresholds.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// AnalyzeOptions scope one analysis call. Now is an explicit input so
// results are reproducible; BypassTimeCheck disables session-window
// restrictions for cross-sectional stock scans.
type AnalyzeOptions struct {
	Now             time.Time
	BypassTimeCheck bool
}

// Analysis is the full intelligence document for one snapshot.
type Analysis struct {
	Symbol        string         `json:"symbol"`
	SpotPrice     float64        `json:"spot_price"`
	ATMStrike     float64        `json:"atm_strike"`
	MarketState   State          `json:"market_state"`
	IntentScore   int            `json:"intent_score"`
	Confidence    int            `json:"confidence"`
	Message       string         `json:"message"`
	TimeWindow    session.Window `json:"time_window"`
	PCR           float64        `json:"pcr"`
	PCRSignal     string         `json:"pcr_signal"`
	IndiaVIX      float64        `json:"india_vix"`
	ATM           ATMAnalysis    `json:"atm_analysis"`
	OI            OIAnalysis     `json:"oi_analysis"`
	Flow          FlowResult     `json:"institutional_flow"`
	Guidance      Guidance       `json:"strike_guidance"`
	TotalCallOI   int64          `json:"total_call_oi"`
	TotalPutOI    int64          `json:"total_put_oi"`
	Tradable      bool           `json:"tradable"`
	Timestamp     time.Time      `json:"timestamp"`
}

// Analyze runs the pipeline over one snapshot. Invalid input (no spot,
// empty chain) comes back as a tagged error for the caller to map; partial
// data inside the chain degrades to NO_DATA / NEUTRAL reads instead.
func (e *Engine) Analyze(snap *domain.OptionChainSnapshot, opts AnalyzeOptions) (*Analysis, error) {
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	window := session.Classify(now)
	flow := AnalyzeInstitutionalFlow(snap.Chain)
	atm := AnalyzeATM(snap.ATMRow(), snap.SpotPrice)
	oi := AnalyzeOIDistribution(snap.Chain, snap.SpotPrice)

	state := ClassifyState(StateInputs{
		Window:          window,
		BypassTimeCheck: opts.BypassTimeCheck,
		ATM:             atm,
		OI:              oi,
		Flow:            flow,
		PCR:             snap.PCR,
		VIX:             snap.IndiaVIX,
	}, e.cfg)

	guidance := GenerateStrikeGuidance(snap.SpotPrice, state, flow)

	log.Debug().
		Str("symbol", snap.Symbol).
		Str("state", string(state.State)).
		Int("confidence", state.Confidence).
		Int("intent_score", flow.IntentScore).
		Msg("option chain analyzed")

	return &Analysis{
		Symbol:      snap.Symbol,
		SpotPrice:   snap.SpotPrice,
		ATMStrike:   snap.ATMStrike,
		MarketState: state.State,
		IntentScore: flow.IntentScore,
		Confidence:  state.Confidence,
		Message:     state.Message,
		TimeWindow:  window,
		PCR:         snap.PCR,
		PCRSignal:   sentiment.InterpretPCR(snap.PCR),
		IndiaVIX:    snap.IndiaVIX,
		ATM:         atm,
		OI:          oi,
		Flow:        flow,
		Guidance:    guidance,
		TotalCallOI: snap.TotalCallOI,
		TotalPutOI:  snap.TotalPutOI,
		Tradable:    state.Tradable,
		Timestamp:   now,
	}, nil
}

// Alert is a UI-facing callout attached to a summary.
type Alert struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Summary is the condensed analysis document for dashboards.
type Summary struct {
	Symbol      string         `json:"symbol"`
	SpotPrice   float64        `json:"spot_price"`
	ATMStrike   float64        `json:"atm_strike"`
	State       State          `json:"state"`
	IntentScore int            `json:"intent_score"`
	Confidence  int            `json:"confidence"`
	Message     string         `json:"message"`
	TimeWindow  session.Window `json:"time_window"`
	Tradable    bool           `json:"tradable"`
	PCR         float64        `json:"pcr"`
	VIX         float64        `json:"vix"`
	Support     float64        `json:"support"`
	Resistance  float64        `json:"resistance"`
	Guidance    Guidance       `json:"strike_guidance"`
	Flow        FlowResult     `json:"institutional_flow"`
	Alerts      []Alert        `json:"alerts"`
	Timestamp   time.Time      `json:"timestamp"`
}

// Summarize condenses a full analysis into the dashboard shape with
// derived alerts.
func (e *Engine) Summarize(snap *domain.OptionChainSnapshot, opts AnalyzeOptions) (*Summary, error) {
	a, err := e.Analyze(snap, opts)
	if err != nil {
		return nil, err
	}

	var alerts []Alert
	if a.Flow.BigMoneyPresent {
		alerts = append(alerts, Alert{Type: "SIGNAL", Message: "Big Money Entry Detected at key strike levels"})
	}
	if a.PCR > e.cfg.HighPCRAlert {
		alerts = append(alerts, Alert{Type: "INFO",
			Message: fmt.Sprintf("High PCR (%.2f) - Bullish intent buildup", a.PCR)})
	} else if a.PCR > 0 && a.PCR < e.cfg.LowPCRAlert {
		alerts = append(alerts, Alert{Type: "WARNING",
			Message: fmt.Sprintf("Low PCR (%.2f) - Bearish traps possible", a.PCR)})
	}
	if a.IndiaVIX > e.cfg.HighVIXThreshold {
		alerts = append(alerts, Alert{Type: "WARNING",
			Message: fmt.Sprintf("High VIX (%.1f) - Stick to ITM BUY only", a.IndiaVIX)})
	}

	return &Summary{
		Symbol:      a.Symbol,
		SpotPrice:   a.SpotPrice,
		ATMStrike:   a.ATMStrike,
		State:       a.MarketState,
		IntentScore: a.IntentScore,
		Confidence:  a.Confidence,
		Message:     a.Message,
		TimeWindow:  a.TimeWindow,
		Tradable:    a.Tradable,
		PCR:         a.PCR,
		VIX:         a.IndiaVIX,
		Support:     a.OI.Support,
		Resistance:  a.OI.Resistance,
		Guidance:    a.Guidance,
		Flow:        a.Flow,
		Alerts:      alerts,
		Timestamp:   a.Timestamp,
	}, nil
}
