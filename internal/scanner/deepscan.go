package scanner

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/optionrun/internal/intel"
	"github.com/sawpanic/optionrun/internal/universe"
)

// DeepScanOptions scope one deep option-chain scan.
type DeepScanOptions struct {
	Symbols     []string // defaults to the full universe
	StrikeCount int      // strikes per side, defaults to 20
	TopCount    int
	Now         time.Time
}

// DeepResult is one symbol's full option-chain read: OI walls, breakout
// preconditions, greeks positioning, the intelligence summary, and the
// synthesized trade recommendation.
type DeepResult struct {
	Symbol         string              `json:"symbol"`
	Name           string              `json:"name"`
	Rank           int                 `json:"rank"`
	SpotPrice      float64             `json:"spot_price"`
	ATMStrike      float64             `json:"atm_strike"`
	CompositeScore float64             `json:"composite_score"`
	Reasons        []string            `json:"reasons"`
	OI             OIConcentration     `json:"oi_concentration"`
	Breakout       BreakoutAnalysis    `json:"breakout"`
	Greeks         GreeksAnalysis      `json:"greeks"`
	Summary        *intel.Summary      `json:"intelligence"`
	Trade          TradeRecommendation `json:"trade_recommendation"`
}

// DeepScanResult is the ranked batch outcome.
type DeepScanResult struct {
	ScanID       string        `json:"scan_id"`
	TotalScanned int           `json:"total_scanned"`
	TopPicks     []DeepResult  `json:"top_picks"`
	Results      []DeepResult  `json:"results"`
	Errors       []SymbolError `json:"errors,omitempty"`
	Timestamp    time.Time     `json:"timestamp"`
}

const (
	defaultStrikeCount  = 20
	oiWallsBothScore    = 25.0
	oiWallsPartialScore = 10.0
	breakoutWeight      = 0.3
	greeksWeight        = 0.2
	intelWeight         = 0.25
)

// DeepScan runs the full chain analysis across the universe and ranks
// symbols by a composite of OI structure, breakout readiness, greeks
// positioning, and intelligence confidence. Session-window restrictions
// are bypassed; cross-sectional ranking is meaningful at any hour.
func (o *Orchestrator) DeepScan(ctx context.Context, opts DeepScanOptions) (*DeepScanResult, error) {
	symbols := opts.Symbols
	if len(symbols) == 0 {
		symbols = o.universe.Symbols()
	}
	if opts.StrikeCount <= 0 {
		opts.StrikeCount = defaultStrikeCount
	}
	if opts.TopCount <= 0 {
		opts.TopCount = 5
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	scanID := uuid.New().String()[:8]
	start := time.Now()

	log.Info().Str("scan_id", scanID).Int("symbols", len(symbols)).Msg("starting deep option scan")

	type slot struct {
		result *DeepResult
		err    *SymbolError
	}
	slots := make([]slot, len(symbols))

	o.forEachSymbol(ctx, symbols, func(i int, symbol string) {
		res, err := o.scanOneDeep(ctx, symbol, opts.StrikeCount, now)
		if err != nil {
			slots[i].err = &SymbolError{Symbol: symbol, Error: err.Error()}
			if o.metrics != nil {
				o.metrics.SymbolErrors.WithLabelValues("deep").Inc()
			}
			return
		}
		slots[i].result = res
	})

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("deep scan cancelled: %w", err)
	}

	out := &DeepScanResult{
		ScanID:    scanID,
		Timestamp: time.Now(),
	}
	for _, s := range slots {
		out.TotalScanned++
		if s.err != nil {
			out.Errors = append(out.Errors, *s.err)
			continue
		}
		if s.result != nil {
			out.Results = append(out.Results, *s.result)
		}
	}

	sort.SliceStable(out.Results, func(i, j int) bool {
		return out.Results[i].CompositeScore > out.Results[j].CompositeScore
	})
	for i := range out.Results {
		out.Results[i].Rank = i + 1
	}
	if len(out.Results) > opts.TopCount {
		out.TopPicks = out.Results[:opts.TopCount]
	} else {
		out.TopPicks = out.Results
	}

	if o.metrics != nil {
		o.metrics.ScanDuration.WithLabelValues("deep").Observe(time.Since(start).Seconds())
		o.metrics.SymbolsScanned.Add(float64(out.TotalScanned))
	}

	log.Info().Str("scan_id", scanID).Int("results", len(out.Results)).
		Int("errors", len(out.Errors)).Dur("elapsed", time.Since(start)).
		Msg("deep option scan complete")

	return out, nil
}

func (o *Orchestrator) scanOneDeep(ctx context.Context, symbol string, strikeCount int, now time.Time) (*DeepResult, error) {
	snap, err := o.provider.OptionChain(ctx, symbol, strikeCount)
	if err != nil {
		return nil, fmt.Errorf("chain fetch failed: %w", err)
	}

	// Day high is best-effort; a missing quote only skips the
	// near-day-high breakout check.
	var dayHigh float64
	if quote, err := o.provider.Quote(ctx, symbol); err == nil && quote != nil {
		dayHigh = quote.DayHigh
	}

	oi := AnalyzeOIConcentrations(snap)
	breakout := DetectBreakoutSignals(snap, dayHigh)
	greeks := ScoreGreeks(snap)

	summary, err := o.engine.Summarize(snap, intel.AnalyzeOptions{Now: now, BypassTimeCheck: true})
	if err != nil {
		return nil, fmt.Errorf("intelligence analysis failed: %w", err)
	}

	composite := oiWallsPartialScore
	var reasons []string
	if oi.Support > 0 && oi.Resistance > 0 {
		composite = oiWallsBothScore
		reasons = append(reasons,
			fmt.Sprintf("Clear OI range %.0f-%.0f", oi.Support, oi.Resistance))
	}
	composite += breakout.BreakoutScore * breakoutWeight
	if breakout.IsBreakout {
		reasons = append(reasons, "Breakout setup forming")
	}
	composite += greeks.Score * greeksWeight
	if greeks.DeltaBias != "NEUTRAL" {
		reasons = append(reasons, fmt.Sprintf("%s delta positioning (ratio %.2f)", greeks.DeltaBias, greeks.DeltaRatio))
	}
	composite += float64(summary.Confidence) * intelWeight
	if summary.Tradable {
		reasons = append(reasons, fmt.Sprintf("Tradable state: %s", summary.State))
	}

	return &DeepResult{
		Symbol:         symbol,
		Name:           universe.DisplayName(symbol),
		SpotPrice:      snap.SpotPrice,
		ATMStrike:      snap.ATMStrike,
		CompositeScore: math.Round(composite*10) / 10,
		Reasons:        reasons,
		OI:             oi,
		Breakout:       breakout,
		Greeks:         greeks,
		Summary:        summary,
		Trade:          RecommendTrade(snap.SpotPrice, snap.ATMStrike, oi, greeks, summary),
	}, nil
}
