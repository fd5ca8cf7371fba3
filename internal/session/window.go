package session

import "time"

// Window identifies a named phase of the NSE trading day. Boundaries are
// fixed minute-of-day cutoffs; the classification has no failure modes.
type Window string

const (
	PreMarket  Window = "pre_market"
	Noise      Window = "noise"      // 09:15-10:30 opening hour
	Structure  Window = "structure"  // 10:30-12:30
	Traps      Window = "traps"      // 12:30-14:30
	Adjustment Window = "adjustment" // 14:30-15:20
	HighRisk   Window = "high_risk"  // last ten minutes
	PostMarket Window = "post_market"
)

type boundary struct {
	beforeMins int
	window     Window
}

// Ordered cutoffs; the first boundary the current minute-of-day falls
// under wins.
var boundaries = []boundary{
	{9*60 + 15, PreMarket},
	{10*60 + 30, Noise},
	{12*60 + 30, Structure},
	{14*60 + 30, Traps},
	{15*60 + 20, Adjustment},
	{15*60 + 30, HighRisk},
}

// Classify maps a wall-clock time to its trading-session window.
func Classify(t time.Time) Window {
	mins := t.Hour()*60 + t.Minute()
	for _, b := range boundaries {
		if mins < b.beforeMins {
			return b.window
		}
	}
	return PostMarket
}

// Closed reports whether the market is shut during this window.
func (w Window) Closed() bool {
	return w == PreMarket || w == PostMarket
}
