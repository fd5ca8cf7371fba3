package scanner

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/optionrun/internal/data"
	"github.com/sawpanic/optionrun/internal/intel"
	"github.com/sawpanic/optionrun/internal/metrics"
	"github.com/sawpanic/optionrun/internal/universe"
)

// SymbolError records a per-symbol failure without aborting the batch.
type SymbolError struct {
	Symbol string `json:"symbol"`
	Error  string `json:"error"`
}

// Orchestrator fans per-symbol fetch+analyze jobs over a bounded worker
// pool. Each symbol's result and error land in independent slots; no
// accumulator is shared between workers.
type Orchestrator struct {
	provider data.Provider
	engine   *intel.Engine
	universe *universe.Manager
	metrics  *metrics.Set
	workers  int
}

const defaultWorkers = 10

// NewOrchestrator wires the multi-symbol scanner. A nil metrics set
// disables instrumentation.
func NewOrchestrator(provider data.Provider, engine *intel.Engine, uni *universe.Manager, m *metrics.Set, workers int) *Orchestrator {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Orchestrator{
		provider: provider,
		engine:   engine,
		universe: uni,
		metrics:  m,
		workers:  workers,
	}
}

// VolumeScanOptions scope one volume scan.
type VolumeScanOptions struct {
	Timeframe string // candle resolution, "15" or "60"
	TopCount  int
	Lookback  int
}

// VolumeResult is one symbol's volume-anomaly read.
type VolumeResult struct {
	Symbol         string        `json:"symbol"`
	Name           string        `json:"name"`
	Cap            universe.Cap  `json:"cap"`
	Price          float64       `json:"price"`
	PriceChangePct float64       `json:"price_change_pct"`
	Volume         VolumeStats   `json:"volume"`
	Pressure       PressureStats `json:"buying_pressure"`
	CompositeScore float64       `json:"composite_score"`
}

// VolumeScanResult is the batch outcome: ranked survivors plus explicit
// per-symbol failures.
type VolumeScanResult struct {
	ScanID          string         `json:"scan_id"`
	Timeframe       string         `json:"timeframe"`
	TotalScanned    int            `json:"total_scanned"`
	HighVolumeCount int            `json:"high_volume_count"`
	TopStocks       []VolumeResult `json:"top_stocks"`
	AllHighVolume   []VolumeResult `json:"all_high_volume"`
	Errors          []SymbolError  `json:"errors,omitempty"`
	Timestamp       time.Time      `json:"timestamp"`
}

const (
	relativeVolumeFilter = 1.5
	volumeScoreWeight    = 0.6
	pressureScoreWeight  = 0.4
)

// ScanHighVolume screens the whole universe for volume anomalies with
// buying pressure, ranks survivors by composite score, and returns the
// top slice. Individual symbol failures are collected, never fatal.
func (o *Orchestrator) ScanHighVolume(ctx context.Context, opts VolumeScanOptions) (*VolumeScanResult, error) {
	if opts.Timeframe == "" {
		opts.Timeframe = "15"
	}
	if opts.TopCount <= 0 {
		opts.TopCount = 5
	}

	symbols := o.universe.Symbols()
	scanID := uuid.New().String()[:8]
	start := time.Now()

	log.Info().Str("scan_id", scanID).Int("symbols", len(symbols)).
		Str("timeframe", opts.Timeframe).Msg("starting high volume scan")

	type slot struct {
		result *VolumeResult
		err    *SymbolError
	}
	slots := make([]slot, len(symbols))

	o.forEachSymbol(ctx, symbols, func(i int, symbol string) {
		res, err := o.scanOneVolume(ctx, symbol, opts)
		if err != nil {
			slots[i].err = &SymbolError{Symbol: symbol, Error: err.Error()}
			if o.metrics != nil {
				o.metrics.SymbolErrors.WithLabelValues("volume").Inc()
			}
			return
		}
		slots[i].result = res
	})

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("volume scan cancelled: %w", err)
	}

	out := &VolumeScanResult{
		ScanID:    scanID,
		Timeframe: opts.Timeframe + "min",
		Timestamp: time.Now(),
	}
	for _, s := range slots {
		out.TotalScanned++
		if s.err != nil {
			out.Errors = append(out.Errors, *s.err)
			continue
		}
		if s.result != nil {
			out.AllHighVolume = append(out.AllHighVolume, *s.result)
		}
	}

	sort.SliceStable(out.AllHighVolume, func(i, j int) bool {
		return out.AllHighVolume[i].CompositeScore > out.AllHighVolume[j].CompositeScore
	})
	out.HighVolumeCount = len(out.AllHighVolume)
	if len(out.AllHighVolume) > opts.TopCount {
		out.TopStocks = out.AllHighVolume[:opts.TopCount]
	} else {
		out.TopStocks = out.AllHighVolume
	}

	if o.metrics != nil {
		o.metrics.ScanDuration.WithLabelValues("volume").Observe(time.Since(start).Seconds())
		o.metrics.SymbolsScanned.Add(float64(out.TotalScanned))
	}

	log.Info().Str("scan_id", scanID).Int("high_volume", out.HighVolumeCount).
		Int("errors", len(out.Errors)).Dur("elapsed", time.Since(start)).
		Msg("high volume scan complete")

	return out, nil
}

// scanOneVolume fetches history for one symbol and applies the
// relative-volume / buying-pressure filter. A nil result with nil error
// means the symbol was healthy but did not pass the filter.
func (o *Orchestrator) scanOneVolume(ctx context.Context, symbol string, opts VolumeScanOptions) (*VolumeResult, error) {
	candles, err := o.provider.History(ctx, symbol, opts.Timeframe, 5)
	if err != nil {
		return nil, fmt.Errorf("history fetch failed: %w", err)
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("no candle data available")
	}

	volume := RelativeVolume(candles, opts.Lookback)
	pressure := BuyingPressure(candles)

	last := candles[len(candles)-1]
	priceChange := 0.0
	if last.Open > 0 {
		priceChange = (last.Close - last.Open) / last.Open * 100
	}

	if volume.RelativeVolume < relativeVolumeFilter && !pressure.IsBuying {
		return nil, nil
	}

	volumeScore := minFloat(100, volume.RelativeVolume*25)
	composite := volumeScore*volumeScoreWeight + float64(pressure.Strength)*pressureScoreWeight

	return &VolumeResult{
		Symbol:         symbol,
		Name:           universe.DisplayName(symbol),
		Cap:            o.universe.Classify(symbol),
		Price:          round2(last.Close),
		PriceChangePct: round2(priceChange),
		Volume:         volume,
		Pressure:       pressure,
		CompositeScore: math.Round(composite*10) / 10,
	}, nil
}

// forEachSymbol runs fn for each symbol over the bounded worker pool.
// fn writes only to its own index; cancellation drains remaining work.
func (o *Orchestrator) forEachSymbol(ctx context.Context, symbols []string, fn func(i int, symbol string)) {
	sem := make(chan struct{}, o.workers)
	var wg sync.WaitGroup

	for i, symbol := range symbols {
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int, symbol string) {
			defer wg.Done()
			defer func() { <-sem }()
			fn(i, symbol)
		}(i, symbol)
	}
	wg.Wait()
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
