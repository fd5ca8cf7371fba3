package intel

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sawpanic/optionrun/internal/domain"
)

func TestAnalyzeATMNoData(t *testing.T) {
	out := AnalyzeATM(nil, 25000)
	assert.Equal(t, statusNoData, out.Status)
}

func TestAnalyzeATMRatios(t *testing.T) {
	row := &domain.StrikeRow{
		Strike: 25000,
		Call:   &domain.ContractQuote{LTP: 90, OI: 100_000},
		Put:    &domain.ContractQuote{LTP: 60, OI: 50_000},
	}

	out := AnalyzeATM(row, 25010)
	assert.Equal(t, statusOK, out.Status)
	assert.InDelta(t, 1.5, out.PremiumRatio, 0.001)
	assert.InDelta(t, 2.0, out.OIRatio, 0.001)
}

func TestAnalyzeATMZeroDenominators(t *testing.T) {
	row := &domain.StrikeRow{
		Strike: 25000,
		Call:   &domain.ContractQuote{LTP: 90, OI: 100_000},
		Put:    &domain.ContractQuote{LTP: 0, OI: 0},
	}

	out := AnalyzeATM(row, 25010)
	assert.Zero(t, out.PremiumRatio, "zero put LTP must not produce infinity")
	assert.InDelta(t, 100_000, out.OIRatio, 0.001, "zero put OI divides by 1")
}

func TestAnalyzeATMMissingLeg(t *testing.T) {
	row := &domain.StrikeRow{
		Strike: 25000,
		Call:   &domain.ContractQuote{LTP: 90, Change: 5},
	}

	out := AnalyzeATM(row, 25010)
	assert.Equal(t, statusOK, out.Status)
	assert.Zero(t, out.PutLTP)
	assert.Equal(t, BehaviorNeutral, out.PremiumBehavior)
}

func TestClassifyPremiumBehavior(t *testing.T) {
	cases := []struct {
		name            string
		callChg, putChg float64
		want            PremiumBehavior
	}{
		{"call up put down", 5, -3, BehaviorBullishPressure},
		{"call down put up", -5, 3, BehaviorBearishPressure},
		{"both bleeding", -5, -3, BehaviorThetaDecay},
		{"both unchanged", 0, 0, BehaviorFlat},
		{"call dominating", 10, 2, BehaviorDistortion},
		{"put dominating", 2, 10, BehaviorDistortion},
		{"both up balanced", 5, 4, BehaviorNeutral},
		{"one side zero", 5, 0, BehaviorNeutral},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, classifyPremiumBehavior(tc.callChg, tc.putChg))
		})
	}
}

func TestGreeksInterpretation(t *testing.T) {
	row := &domain.StrikeRow{
		Strike: 25000,
		Call:   &domain.ContractQuote{LTP: 90, Greeks: domain.Greeks{Delta: 0.55, Gamma: 0.008}},
		Put:    &domain.ContractQuote{LTP: 60, Greeks: domain.Greeks{Delta: -0.45, Gamma: 0.004}},
	}

	out := AnalyzeATM(row, 25010)
	assert.Equal(t, "STRONG", out.DeltaStrength, "|delta| above 0.5 on either leg")
	assert.Equal(t, "HIGH", out.GammaZone, "avg gamma 0.006 above 0.005")

	row.Call.Greeks = domain.Greeks{Delta: 0.4, Gamma: 0.004}
	row.Put.Greeks = domain.Greeks{Delta: -0.4, Gamma: 0.004}
	out = AnalyzeATM(row, 25010)
	assert.Equal(t, "WEAK", out.DeltaStrength)
	assert.Equal(t, "LOW", out.GammaZone)
}
