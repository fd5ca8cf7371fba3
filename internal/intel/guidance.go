package intel

import (
	"fmt"
	"math"
)

// TradeIdea is a single buy-side strike suggestion.
type TradeIdea struct {
	Type       string  `json:"type"`
	Strike     float64 `json:"strike"`
	Instrument string  `json:"instrument"`
	Rationale  string  `json:"rationale"`
}

// Guidance is the buy-only strike suggestion set. Option writing is never
// suggested; that is a policy constraint, not an omission.
type Guidance struct {
	Suggested bool        `json:"suggested"`
	Bias      string      `json:"bias,omitempty"`
	Trades    []TradeIdea `json:"trades,omitempty"`
	Note      string      `json:"expert_note,omitempty"`
}

// GenerateStrikeGuidance derives bias from the cluster-type majority and
// emits one ITM and one ATM buy per direction. NEUTRAL bias means no
// trades rather than a forced pick.
func GenerateStrikeGuidance(spotPrice float64, state StateResult, flow FlowResult) Guidance {
	if state.State == StateNoTrade {
		return Guidance{Suggested: false}
	}

	callIntent, putIntent := 0, 0
	for _, c := range flow.Clusters {
		switch c.Type {
		case CallAccumulation:
			callIntent++
		case PutAccumulation:
			putIntent++
		}
	}

	bias := "NEUTRAL"
	if callIntent > putIntent {
		bias = "BULLISH"
	} else if putIntent > callIntent {
		bias = "BEARISH"
	}

	interval := 10.0
	if spotPrice > 500 {
		interval = 50.0
	}
	atmStrike := math.Round(spotPrice/interval) * interval

	var trades []TradeIdea
	switch bias {
	case "BULLISH":
		trades = []TradeIdea{
			{Type: "ITM_BUY", Strike: atmStrike - interval, Instrument: "CE",
				Rationale: "Deep intent CALL accumulation detected"},
			{Type: "ATM_BUY", Strike: atmStrike, Instrument: "CE",
				Rationale: "Capitalize on immediate theta/delta alignment"},
		}
	case "BEARISH":
		trades = []TradeIdea{
			{Type: "ITM_BUY", Strike: atmStrike + interval, Instrument: "PE",
				Rationale: "High-confidence PUT accumulation by Big Money"},
			{Type: "ATM_BUY", Strike: atmStrike, Instrument: "PE",
				Rationale: "Direct bearish directional play"},
		}
	}

	return Guidance{
		Suggested: len(trades) > 0,
		Bias:      bias,
		Trades:    trades,
		Note: fmt.Sprintf("Institutional clusters detected at %d strikes. Intent score: %d%%",
			len(flow.Clusters), flow.IntentScore),
	}
}
