package domain

import "time"

// Candle is one OHLCV bar from the history collaborator. Sequences are
// assumed ascending in time.
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
}

// Quote is a normalized spot quote for an underlying.
type Quote struct {
	Symbol    string  `json:"symbol"`
	LTP       float64 `json:"ltp"`
	PrevClose float64 `json:"prev_close"`
	Change    float64 `json:"change"`
	ChangePct float64 `json:"change_pct"`
	DayHigh   float64 `json:"day_high"`
	DayLow    float64 `json:"day_low"`
}
