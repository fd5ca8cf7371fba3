package scanner

import (
	"math"

	"github.com/sawpanic/optionrun/internal/domain"
)

// VolumeStats compares the current bar's volume against the trailing
// average.
type VolumeStats struct {
	CurrentVolume  int64   `json:"current_volume"`
	AvgVolume      float64 `json:"avg_volume"`
	RelativeVolume float64 `json:"relative_volume"`
}

const defaultVolumeLookback = 20

// RelativeVolume computes current-bar volume over the average of the
// prior lookback bars (current bar excluded).
func RelativeVolume(candles []domain.Candle, lookback int) VolumeStats {
	if lookback <= 0 {
		lookback = defaultVolumeLookback
	}
	if len(candles) < 2 {
		return VolumeStats{}
	}

	current := candles[len(candles)-1].Volume
	prev := candles[:len(candles)-1]
	if len(prev) > lookback {
		prev = prev[len(prev)-lookback:]
	}

	var sum int64
	for _, c := range prev {
		sum += c.Volume
	}
	avg := float64(sum) / float64(len(prev))

	rel := 0.0
	if avg > 0 {
		rel = float64(current) / avg
	}

	return VolumeStats{
		CurrentVolume:  current,
		AvgVolume:      math.Round(avg),
		RelativeVolume: round2(rel),
	}
}

// PressureStats describes buying pressure read from the last candle.
type PressureStats struct {
	IsBuying      bool    `json:"is_buying"`
	Strength      int     `json:"strength"`
	Pattern       string  `json:"pattern"`
	ClosePosition float64 `json:"close_position"`
}

// BuyingPressure scores the last candle: bullish body, close parked near
// the high, and how far up the range the close sits.
func BuyingPressure(candles []domain.Candle) PressureStats {
	if len(candles) == 0 {
		return PressureStats{Pattern: "NEUTRAL"}
	}

	last := candles[len(candles)-1]
	isBullish := last.Close > last.Open

	closePosition := 0.5
	if candleRange := last.High - last.Low; candleRange > 0 {
		closePosition = (last.Close - last.Low) / candleRange
	}
	closeNearHigh := closePosition > 0.7

	strength := 0
	if isBullish {
		strength += 40
	}
	if closeNearHigh {
		strength += 30
	}
	strength += int(math.Min(30, closePosition*30))

	pattern := "NEUTRAL"
	switch {
	case isBullish && closeNearHigh:
		pattern = "STRONG_BUYING"
	case isBullish:
		pattern = "BUYING"
	case closeNearHigh:
		pattern = "ACCUMULATION"
	}

	return PressureStats{
		IsBuying:      isBullish,
		Strength:      strength,
		Pattern:       pattern,
		ClosePosition: round2(closePosition),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
