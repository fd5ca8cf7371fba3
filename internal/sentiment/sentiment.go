package sentiment

import (
	"fmt"
	"strings"
	"time"

	"github.com/sawpanic/optionrun/internal/domain"
)

// VIXReading interprets the India VIX level as a fear/greed band.
type VIXReading struct {
	Value     float64 `json:"value"`
	Change    float64 `json:"change"`
	ChangePct float64 `json:"change_pct"`
	Trend     string  `json:"trend"`
	Sentiment string  `json:"sentiment"`
	Message   string  `json:"message"`
}

// InterpretVIX maps a VIX quote to its sentiment band.
func InterpretVIX(q domain.Quote) VIXReading {
	var label string
	switch {
	case q.LTP < 12:
		label = "EXTREME_GREED"
	case q.LTP < 15:
		label = "LOW_FEAR"
	case q.LTP < 20:
		label = "NEUTRAL"
	case q.LTP < 25:
		label = "ELEVATED_FEAR"
	default:
		label = "EXTREME_FEAR"
	}

	trend := "flat"
	if q.Change > 0 {
		trend = "up"
	} else if q.Change < 0 {
		trend = "down"
	}

	return VIXReading{
		Value:     q.LTP,
		Change:    q.Change,
		ChangePct: q.ChangePct,
		Trend:     trend,
		Sentiment: label,
		Message:   fmt.Sprintf("VIX at %.1f - %s", q.LTP, titleCase(label)),
	}
}

// InterpretPCR maps a put-call ratio to its sentiment band. High PCR reads
// bullish (put writers underneath), extreme PCR is contrarian.
func InterpretPCR(pcr float64) string {
	switch {
	case pcr < 0.5:
		return "EXTREME_BEARISH"
	case pcr < 0.7:
		return "BEARISH"
	case pcr < 0.9:
		return "NEUTRAL"
	case pcr < 1.2:
		return "BULLISH"
	case pcr < 1.5:
		return "STRONG_BULLISH"
	default:
		return "EXTREME_BULLISH"
	}
}

// Breadth summarizes advances vs declines over a quote set.
type Breadth struct {
	Advances     int     `json:"advances"`
	Declines     int     `json:"declines"`
	Unchanged    int     `json:"unchanged"`
	AdvanceRatio float64 `json:"advance_ratio"`
	Sentiment    string  `json:"sentiment"`
}

// MeasureBreadth counts advancing and declining symbols.
func MeasureBreadth(quotes []domain.Quote) Breadth {
	var b Breadth
	for _, q := range quotes {
		switch {
		case q.Change > 0:
			b.Advances++
		case q.Change < 0:
			b.Declines++
		default:
			b.Unchanged++
		}
	}

	total := b.Advances + b.Declines
	if total > 0 {
		b.AdvanceRatio = float64(b.Advances) / float64(total)
	}
	switch {
	case b.AdvanceRatio >= 0.65:
		b.Sentiment = "BROAD_BUYING"
	case b.AdvanceRatio <= 0.35 && total > 0:
		b.Sentiment = "BROAD_SELLING"
	default:
		b.Sentiment = "MIXED"
	}
	return b
}

// Report is the combined sentiment document for the dashboard.
type Report struct {
	VIX       VIXReading `json:"vix"`
	PCR       float64    `json:"pcr"`
	PCRSignal string     `json:"pcr_signal"`
	Breadth   Breadth    `json:"breadth"`
	Timestamp time.Time  `json:"timestamp"`
}

// BuildReport assembles VIX, PCR, and breadth reads into one document.
func BuildReport(vix domain.Quote, pcr float64, quotes []domain.Quote, now time.Time) Report {
	return Report{
		VIX:       InterpretVIX(vix),
		PCR:       pcr,
		PCRSignal: InterpretPCR(pcr),
		Breadth:   MeasureBreadth(quotes),
		Timestamp: now,
	}
}

func titleCase(label string) string {
	words := strings.Split(strings.ToLower(strings.ReplaceAll(label, "_", " ")), " ")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
