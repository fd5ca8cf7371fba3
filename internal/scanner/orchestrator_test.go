package scanner

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/optionrun/internal/domain"
	"github.com/sawpanic/optionrun/internal/intel"
	"github.com/sawpanic/optionrun/internal/metrics"
	"github.com/sawpanic/optionrun/internal/universe"
)

// fakeProvider serves canned data per symbol and records call counts.
type fakeProvider struct {
	mu      sync.Mutex
	chains  map[string]*domain.OptionChainSnapshot
	candles map[string][]domain.Candle
	quotes  map[string]*domain.Quote
	fail    map[string]bool
	calls   int
}

func (f *fakeProvider) bump() {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
}

func (f *fakeProvider) OptionChain(ctx context.Context, symbol string, strikeCount int) (*domain.OptionChainSnapshot, error) {
	f.bump()
	if f.fail[symbol] {
		return nil, fmt.Errorf("upstream rejected %s", symbol)
	}
	snap, ok := f.chains[symbol]
	if !ok {
		return nil, fmt.Errorf("no chain for %s", symbol)
	}
	return snap, nil
}

func (f *fakeProvider) History(ctx context.Context, symbol string, resolution string, days int) ([]domain.Candle, error) {
	f.bump()
	if f.fail[symbol] {
		return nil, fmt.Errorf("upstream rejected %s", symbol)
	}
	return f.candles[symbol], nil
}

func (f *fakeProvider) Quote(ctx context.Context, symbol string) (*domain.Quote, error) {
	f.bump()
	q, ok := f.quotes[symbol]
	if !ok {
		return nil, fmt.Errorf("no quote for %s", symbol)
	}
	return q, nil
}

func testUniverse(symbols ...string) *universe.Manager {
	return universe.New(universe.Config{Stocks: symbols})
}

func surgeCandles(surge bool) []domain.Candle {
	out := make([]domain.Candle, 0, 21)
	for i := 0; i < 20; i++ {
		out = append(out, domain.Candle{Open: 100, High: 101, Low: 99, Close: 100, Volume: 1000})
	}
	last := domain.Candle{Open: 100, High: 104, Low: 99, Close: 104, Volume: 1000}
	if surge {
		last.Volume = 5000
	}
	return append(out, last)
}

func quietCandles() []domain.Candle {
	out := make([]domain.Candle, 0, 21)
	for i := 0; i < 21; i++ {
		out = append(out, domain.Candle{Open: 100, High: 101, Low: 98, Close: 99, Volume: 1000})
	}
	return out
}

func newTestMetrics(t *testing.T) *metrics.Set {
	t.Helper()
	return metrics.NewSet(prometheus.NewRegistry())
}

func TestScanHighVolume(t *testing.T) {
	provider := &fakeProvider{
		candles: map[string][]domain.Candle{
			"NSE:AAA-EQ": surgeCandles(true),  // surge and bullish
			"NSE:BBB-EQ": quietCandles(),      // filtered out
			"NSE:CCC-EQ": surgeCandles(false), // bullish only, passes via pressure
		},
	}
	orch := NewOrchestrator(provider, intel.NewEngine(intel.DefaultConfig()),
		testUniverse("NSE:AAA-EQ", "NSE:BBB-EQ", "NSE:CCC-EQ"), newTestMetrics(t), 2)

	out, err := orch.ScanHighVolume(context.Background(), VolumeScanOptions{})
	require.NoError(t, err)

	assert.Equal(t, 3, out.TotalScanned)
	assert.Equal(t, 2, out.HighVolumeCount)
	assert.Empty(t, out.Errors)
	require.NotEmpty(t, out.TopStocks)
	assert.Equal(t, "NSE:AAA-EQ", out.TopStocks[0].Symbol, "volume surge ranks first")
	assert.Equal(t, "AAA", out.TopStocks[0].Name)
	assert.Equal(t, "15min", out.Timeframe)
}

func TestScanHighVolumePartialFailure(t *testing.T) {
	provider := &fakeProvider{
		candles: map[string][]domain.Candle{
			"NSE:AAA-EQ": surgeCandles(true),
			"NSE:BBB-EQ": surgeCandles(true),
		},
		fail: map[string]bool{"NSE:BBB-EQ": true},
	}
	orch := NewOrchestrator(provider, intel.NewEngine(intel.DefaultConfig()),
		testUniverse("NSE:AAA-EQ", "NSE:BBB-EQ"), nil, 4)

	out, err := orch.ScanHighVolume(context.Background(), VolumeScanOptions{})
	require.NoError(t, err, "one bad symbol never fails the batch")

	assert.Equal(t, 2, out.TotalScanned)
	assert.Equal(t, 1, out.HighVolumeCount)
	require.Len(t, out.Errors, 1)
	assert.Equal(t, "NSE:BBB-EQ", out.Errors[0].Symbol)
	assert.Contains(t, out.Errors[0].Error, "upstream rejected")
}

func TestScanHighVolumeDeterministicRanking(t *testing.T) {
	provider := &fakeProvider{
		candles: map[string][]domain.Candle{
			"NSE:AAA-EQ": surgeCandles(true),
			"NSE:BBB-EQ": surgeCandles(true),
			"NSE:CCC-EQ": surgeCandles(true),
		},
	}
	orch := NewOrchestrator(provider, intel.NewEngine(intel.DefaultConfig()),
		testUniverse("NSE:AAA-EQ", "NSE:BBB-EQ", "NSE:CCC-EQ"), nil, 3)

	first, err := orch.ScanHighVolume(context.Background(), VolumeScanOptions{})
	require.NoError(t, err)
	second, err := orch.ScanHighVolume(context.Background(), VolumeScanOptions{})
	require.NoError(t, err)

	// Equal composite scores keep universe order regardless of worker
	// completion order.
	var a, b []string
	for _, r := range first.AllHighVolume {
		a = append(a, r.Symbol)
	}
	for _, r := range second.AllHighVolume {
		b = append(b, r.Symbol)
	}
	assert.Equal(t, a, b)
	assert.Equal(t, []string{"NSE:AAA-EQ", "NSE:BBB-EQ", "NSE:CCC-EQ"}, a)
}

func TestScanHighVolumeCancellation(t *testing.T) {
	provider := &fakeProvider{candles: map[string][]domain.Candle{}}
	symbols := make([]string, 50)
	for i := range symbols {
		symbols[i] = fmt.Sprintf("NSE:S%02d-EQ", i)
	}
	orch := NewOrchestrator(provider, intel.NewEngine(intel.DefaultConfig()),
		testUniverse(symbols...), nil, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := orch.ScanHighVolume(ctx, VolumeScanOptions{})
	assert.Error(t, err)
}

func TestDeepScan(t *testing.T) {
	provider := &fakeProvider{
		chains: map[string]*domain.OptionChainSnapshot{
			"NSE:AAA-EQ": deepSnapshot(),
			"NSE:BBB-EQ": {
				Symbol:    "NSE:BBB-EQ",
				SpotPrice: 500,
				ATMStrike: 500,
				Chain: []domain.StrikeRow{
					{Strike: 500, Call: &domain.ContractQuote{OI: 1000}, Put: &domain.ContractQuote{OI: 1000}},
				},
			},
		},
		quotes: map[string]*domain.Quote{
			"NSE:AAA-EQ": {Symbol: "NSE:AAA-EQ", DayHigh: 3010},
		},
	}
	orch := NewOrchestrator(provider, intel.NewEngine(intel.DefaultConfig()),
		testUniverse("NSE:AAA-EQ", "NSE:BBB-EQ"), newTestMetrics(t), 2)

	out, err := orch.DeepScan(context.Background(), DeepScanOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, out.TotalScanned)
	require.Len(t, out.Results, 2)
	assert.Equal(t, "NSE:AAA-EQ", out.Results[0].Symbol, "structured chain outranks the flat one")
	assert.Equal(t, 1, out.Results[0].Rank)
	assert.Equal(t, 2, out.Results[1].Rank)
	assert.Greater(t, out.Results[0].CompositeScore, out.Results[1].CompositeScore)
	assert.NotNil(t, out.Results[0].Summary)
	assert.NotEmpty(t, out.Results[0].Reasons)
	assert.NotEmpty(t, out.Results[0].Trade.Action)
}

func TestDeepScanMissingQuoteIsNotFatal(t *testing.T) {
	provider := &fakeProvider{
		chains: map[string]*domain.OptionChainSnapshot{"NSE:AAA-EQ": deepSnapshot()},
	}
	orch := NewOrchestrator(provider, intel.NewEngine(intel.DefaultConfig()),
		testUniverse("NSE:AAA-EQ"), nil, 1)

	out, err := orch.DeepScan(context.Background(), DeepScanOptions{})
	require.NoError(t, err)
	assert.Empty(t, out.Errors)
	require.Len(t, out.Results, 1)
}

func TestDeepScanSymbolSubset(t *testing.T) {
	provider := &fakeProvider{
		chains: map[string]*domain.OptionChainSnapshot{"NSE:AAA-EQ": deepSnapshot()},
	}
	orch := NewOrchestrator(provider, intel.NewEngine(intel.DefaultConfig()),
		testUniverse("NSE:AAA-EQ", "NSE:BBB-EQ"), nil, 2)

	out, err := orch.DeepScan(context.Background(), DeepScanOptions{Symbols: []string{"NSE:AAA-EQ"}})
	require.NoError(t, err)
	assert.Equal(t, 1, out.TotalScanned)
}
