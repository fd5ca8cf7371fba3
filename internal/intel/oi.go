package intel

import "github.com/sawpanic/optionrun/internal/domain"

// OIAnalysis summarizes open-interest concentration across the chain.
// The strike carrying maximum call OI acts as resistance, maximum put OI
// as support.
type OIAnalysis struct {
	Resistance   float64 `json:"resistance"`
	ResistanceOI int64   `json:"resistance_oi"`
	Support      float64 `json:"support"`
	SupportOI    int64   `json:"support_oi"`
	RangeWidth   float64 `json:"range_width"`
	SpotInRange  bool    `json:"spot_in_range"`
	Bias         string  `json:"bias"`
}

// AnalyzeOIDistribution scans every strike for the OI walls and derives
// the spot-relative bias. Rows with a missing leg contribute zero OI for
// that side.
func AnalyzeOIDistribution(chain []domain.StrikeRow, spotPrice float64) OIAnalysis {
	var (
		maxCallOI, maxPutOI         int64
		maxCallStrike, maxPutStrike float64
	)

	for i := range chain {
		row := &chain[i]
		if row.Call != nil && row.Call.OI > maxCallOI {
			maxCallOI = row.Call.OI
			maxCallStrike = row.Strike
		}
		if row.Put != nil && row.Put.OI > maxPutOI {
			maxPutOI = row.Put.OI
			maxPutStrike = row.Strike
		}
	}

	spotInRange := false
	if maxPutStrike > 0 && maxCallStrike > 0 && spotPrice > 0 {
		spotInRange = maxPutStrike <= spotPrice && spotPrice <= maxCallStrike
	}

	bias := "NEUTRAL"
	if !spotInRange {
		if spotPrice > maxCallStrike {
			bias = "BULLISH"
		} else {
			bias = "BEARISH"
		}
	}

	return OIAnalysis{
		Resistance:   maxCallStrike,
		ResistanceOI: maxCallOI,
		Support:      maxPutStrike,
		SupportOI:    maxPutOI,
		RangeWidth:   maxCallStrike - maxPutStrike,
		SpotInRange:  spotInRange,
		Bias:         bias,
	}
}
