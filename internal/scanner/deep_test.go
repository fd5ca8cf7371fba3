package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/optionrun/internal/domain"
	"github.com/sawpanic/optionrun/internal/intel"
)

func deepSnapshot() *domain.OptionChainSnapshot {
	return &domain.OptionChainSnapshot{
		Symbol:    "NSE:RELIANCE-EQ",
		SpotPrice: 3000,
		ATMStrike: 3000,
		Chain: []domain.StrikeRow{
			{Strike: 2900,
				Call: &domain.ContractQuote{OI: 40_000, IV: 22, Greeks: domain.Greeks{Delta: 0.7, Gamma: 0.004}},
				Put:  &domain.ContractQuote{OI: 180_000, IV: 21, Greeks: domain.Greeks{Delta: -0.3, Gamma: 0.004}}},
			{Strike: 3000,
				Call: &domain.ContractQuote{OI: 90_000, IV: 24, Greeks: domain.Greeks{Delta: 0.5, Gamma: 0.02}},
				Put:  &domain.ContractQuote{OI: 70_000, IV: 20, Greeks: domain.Greeks{Delta: -0.5, Gamma: 0.018}}},
			{Strike: 3100,
				Call: &domain.ContractQuote{OI: 220_000, IV: 26, Greeks: domain.Greeks{Delta: 0.3, Gamma: 0.006}},
				Put:  &domain.ContractQuote{OI: 30_000, IV: 19, Greeks: domain.Greeks{Delta: -0.7, Gamma: 0.005}}},
		},
	}
}

func TestAnalyzeOIConcentrations(t *testing.T) {
	out := AnalyzeOIConcentrations(deepSnapshot())

	assert.Equal(t, 3100.0, out.Resistance, "heaviest call OI above spot")
	assert.Equal(t, int64(220_000), out.ResistanceOI)
	assert.Equal(t, 2900.0, out.Support, "heaviest put OI below spot")
	assert.Equal(t, int64(180_000), out.SupportOI)

	// All three strikes sit within 5% of spot; hotspots sorted by total
	// OI descending.
	require.Len(t, out.Concentrations, 3)
	assert.Equal(t, 3100.0, out.Concentrations[0].Strike)
	assert.Equal(t, int64(250_000), out.Concentrations[0].TotalOI)
}

func TestAnalyzeOIConcentrationsCapsHotspots(t *testing.T) {
	snap := deepSnapshot()
	for i := 0; i < 8; i++ {
		snap.Chain = append(snap.Chain, domain.StrikeRow{
			Strike: 3000 + float64(i)*10,
			Call:   &domain.ContractQuote{OI: int64(10_000 + i)},
		})
	}

	out := AnalyzeOIConcentrations(snap)
	assert.Len(t, out.Concentrations, 5)
}

func TestDetectBreakoutSignals(t *testing.T) {
	snap := deepSnapshot()
	// ATM total OI 160k breaches 100k; call IV 24 vs put IV 20 is a
	// +20% skew; spot 3000 of day high 3010 clears the 0.99 proximity.
	out := DetectBreakoutSignals(snap, 3010)

	assert.Equal(t, 70.0, out.BreakoutScore, "25 + 15 + 30")
	assert.True(t, out.IsBreakout)

	types := make([]string, 0, len(out.Signals))
	for _, s := range out.Signals {
		types = append(types, s.Type)
	}
	assert.Contains(t, types, "HIGH_ATM_ACTIVITY")
	assert.Contains(t, types, "BULLISH_IV_SKEW")
	assert.Contains(t, types, "NEAR_DAY_HIGH")
}

func TestDetectBreakoutSignalsBearishSkewScoresNothing(t *testing.T) {
	snap := deepSnapshot()
	snap.Chain[1].Call.IV = 18
	snap.Chain[1].Put.IV = 24
	snap.Chain[1].Call.OI = 10_000
	snap.Chain[1].Put.OI = 10_000

	out := DetectBreakoutSignals(snap, 0)
	assert.Zero(t, out.BreakoutScore, "bearish skew is reported but not scored")
	assert.False(t, out.IsBreakout)

	var found bool
	for _, s := range out.Signals {
		if s.Type == "BEARISH_IV_SKEW" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestScoreGreeks(t *testing.T) {
	out := ScoreGreeks(deepSnapshot())

	assert.Equal(t, 3000.0, out.MaxGammaStrike)
	assert.Equal(t, 0.02, out.MaxGamma)
	assert.Greater(t, out.DeltaRatio, 0.0)
	assert.Contains(t, []string{"BULLISH", "BEARISH", "NEUTRAL"}, out.DeltaBias)
	assert.LessOrEqual(t, out.Score, 100.0)
}

func TestScoreGreeksBias(t *testing.T) {
	snap := &domain.OptionChainSnapshot{
		SpotPrice: 3000,
		Chain: []domain.StrikeRow{
			{Strike: 3000,
				Call: &domain.ContractQuote{OI: 200_000, Greeks: domain.Greeks{Delta: 0.5}},
				Put:  &domain.ContractQuote{OI: 50_000, Greeks: domain.Greeks{Delta: -0.5}}},
		},
	}
	out := ScoreGreeks(snap)
	assert.Equal(t, "BULLISH", out.DeltaBias, "call delta exposure 4x put")
	assert.Equal(t, 4.0, out.DeltaRatio)
}

func TestRecommendTradeNoTrade(t *testing.T) {
	out := RecommendTrade(3000, 3000, OIConcentration{}, GreeksAnalysis{}, nil)
	assert.Equal(t, "NO_TRADE", out.Action)

	summary := &intel.Summary{Tradable: false, Message: "Trap zone (12:30-2:30 PM) - Wait for clarity"}
	out = RecommendTrade(3000, 3000, OIConcentration{}, GreeksAnalysis{}, summary)
	assert.Equal(t, "NO_TRADE", out.Action)
	assert.Equal(t, summary.Message, out.Reason)
}

func TestRecommendTradeBullish(t *testing.T) {
	oi := OIConcentration{Support: 2900, Resistance: 3100}
	greeks := GreeksAnalysis{DeltaBias: "BULLISH", Score: 60}
	summary := &intel.Summary{Tradable: true}

	out := RecommendTrade(3000, 3000, oi, greeks, summary)
	assert.Equal(t, "BUY", out.Action)
	assert.Equal(t, "CE", out.OptionType)
	assert.Equal(t, 3000.0, out.Strike)
	assert.Equal(t, 2900.0, out.StopLoss, "stop at the put wall")
	assert.Equal(t, 3100.0, out.Target, "target at the call wall")
	assert.Equal(t, "HIGH", out.Confidence)
}

func TestRecommendTradeBearish(t *testing.T) {
	oi := OIConcentration{Support: 2900, Resistance: 3100}
	greeks := GreeksAnalysis{DeltaBias: "BEARISH", Score: 40}
	summary := &intel.Summary{Tradable: true}

	out := RecommendTrade(3000, 3000, oi, greeks, summary)
	assert.Equal(t, "BUY", out.Action)
	assert.Equal(t, "PE", out.OptionType)
	assert.Equal(t, 3100.0, out.StopLoss, "stop at the call wall")
	assert.Equal(t, 2900.0, out.Target)
	assert.Equal(t, "MEDIUM", out.Confidence)
}

func TestRecommendTradeWait(t *testing.T) {
	out := RecommendTrade(3000, 3000, OIConcentration{Support: 2900, Resistance: 3100},
		GreeksAnalysis{DeltaBias: "NEUTRAL"}, &intel.Summary{Tradable: true})
	assert.Equal(t, "WAIT", out.Action)
	assert.NotEmpty(t, out.Suggestion)
}
