package sentiment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sawpanic/optionrun/internal/domain"
)

func TestInterpretVIXBands(t *testing.T) {
	cases := []struct {
		vix  float64
		want string
	}{
		{10, "EXTREME_GREED"},
		{13, "LOW_FEAR"},
		{17, "NEUTRAL"},
		{22, "ELEVATED_FEAR"},
		{30, "EXTREME_FEAR"},
	}
	for _, tc := range cases {
		out := InterpretVIX(domain.Quote{LTP: tc.vix})
		assert.Equal(t, tc.want, out.Sentiment, "vix %.0f", tc.vix)
	}
}

func TestInterpretVIXTrend(t *testing.T) {
	assert.Equal(t, "up", InterpretVIX(domain.Quote{LTP: 15, Change: 1.2}).Trend)
	assert.Equal(t, "down", InterpretVIX(domain.Quote{LTP: 15, Change: -0.4}).Trend)
	assert.Equal(t, "flat", InterpretVIX(domain.Quote{LTP: 15}).Trend)
}

func TestInterpretPCRBands(t *testing.T) {
	cases := []struct {
		pcr  float64
		want string
	}{
		{0.4, "EXTREME_BEARISH"},
		{0.6, "BEARISH"},
		{0.8, "NEUTRAL"},
		{1.0, "BULLISH"},
		{1.3, "STRONG_BULLISH"},
		{1.8, "EXTREME_BULLISH"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, InterpretPCR(tc.pcr), "pcr %.1f", tc.pcr)
	}
}

func TestMeasureBreadth(t *testing.T) {
	quotes := []domain.Quote{
		{Change: 1.5}, {Change: 2.0}, {Change: 0.5},
		{Change: -1.0}, {Change: 0},
	}

	b := MeasureBreadth(quotes)
	assert.Equal(t, 3, b.Advances)
	assert.Equal(t, 1, b.Declines)
	assert.Equal(t, 1, b.Unchanged)
	assert.Equal(t, 0.75, b.AdvanceRatio)
	assert.Equal(t, "BROAD_BUYING", b.Sentiment)
}

func TestMeasureBreadthSelling(t *testing.T) {
	quotes := []domain.Quote{{Change: -1}, {Change: -2}, {Change: -3}, {Change: 1}}
	assert.Equal(t, "BROAD_SELLING", MeasureBreadth(quotes).Sentiment)
}

func TestMeasureBreadthEmpty(t *testing.T) {
	b := MeasureBreadth(nil)
	assert.Equal(t, "MIXED", b.Sentiment, "no quotes reads mixed, not selling")
	assert.Zero(t, b.AdvanceRatio)
}

func TestBuildReport(t *testing.T) {
	now := time.Date(2026, 8, 27, 11, 0, 0, 0, time.Local)
	r := BuildReport(domain.Quote{LTP: 17}, 1.0, []domain.Quote{{Change: 2}}, now)

	assert.Equal(t, "NEUTRAL", r.VIX.Sentiment)
	assert.Equal(t, "BULLISH", r.PCRSignal)
	assert.Equal(t, "BROAD_BUYING", r.Breadth.Sentiment)
	assert.Equal(t, now, r.Timestamp)
}

func TestVIXMessageTitleCase(t *testing.T) {
	out := InterpretVIX(domain.Quote{LTP: 30})
	assert.Equal(t, "VIX at 30.0 - Extreme Fear", out.Message)
}
