package data

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/optionrun/internal/domain"
)

type flakyProvider struct {
	failures int
	calls    int
}

func (f *flakyProvider) OptionChain(ctx context.Context, symbol string, strikeCount int) (*domain.OptionChainSnapshot, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, fmt.Errorf("upstream error %d", f.calls)
	}
	return &domain.OptionChainSnapshot{Symbol: symbol, SpotPrice: 25000,
		Chain: []domain.StrikeRow{{Strike: 25000}}}, nil
}

func (f *flakyProvider) History(ctx context.Context, symbol string, resolution string, days int) ([]domain.Candle, error) {
	f.calls++
	return []domain.Candle{{Close: 100}}, nil
}

func (f *flakyProvider) Quote(ctx context.Context, symbol string) (*domain.Quote, error) {
	f.calls++
	return &domain.Quote{Symbol: symbol, LTP: 100}, nil
}

func fastGuardConfig() GuardConfig {
	return GuardConfig{
		RequestsPerSecond: 10_000,
		Burst:             10_000,
		BreakerName:       "test",
		FailureThreshold:  3,
		OpenTimeout:       50 * time.Millisecond,
	}
}

func TestGuardedProviderPassesThrough(t *testing.T) {
	g := NewGuardedProvider(&flakyProvider{}, fastGuardConfig())

	snap, err := g.OptionChain(context.Background(), "NSE:NIFTY50-INDEX", 20)
	require.NoError(t, err)
	assert.Equal(t, "NSE:NIFTY50-INDEX", snap.Symbol)

	candles, err := g.History(context.Background(), "NSE:TCS-EQ", "15", 5)
	require.NoError(t, err)
	assert.Len(t, candles, 1)

	q, err := g.Quote(context.Background(), "NSE:TCS-EQ")
	require.NoError(t, err)
	assert.Equal(t, 100.0, q.LTP)
}

func TestGuardedProviderOpensBreaker(t *testing.T) {
	inner := &flakyProvider{failures: 1000}
	g := NewGuardedProvider(inner, fastGuardConfig())

	for i := 0; i < 3; i++ {
		_, err := g.OptionChain(context.Background(), "NSE:X-EQ", 20)
		assert.Error(t, err)
	}

	callsBefore := inner.calls
	_, err := g.OptionChain(context.Background(), "NSE:X-EQ", 20)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unavailable")
	assert.Equal(t, callsBefore, inner.calls, "open breaker sheds the call before the upstream")
}

func TestGuardedProviderRecovers(t *testing.T) {
	inner := &flakyProvider{failures: 3}
	g := NewGuardedProvider(inner, fastGuardConfig())

	for i := 0; i < 3; i++ {
		g.OptionChain(context.Background(), "NSE:X-EQ", 20)
	}

	time.Sleep(80 * time.Millisecond) // half-open after the open timeout

	snap, err := g.OptionChain(context.Background(), "NSE:X-EQ", 20)
	require.NoError(t, err)
	assert.Equal(t, 25000.0, snap.SpotPrice)
}

func TestGuardedProviderHonorsContext(t *testing.T) {
	cfg := fastGuardConfig()
	cfg.RequestsPerSecond = 0.001 // effectively never refills
	cfg.Burst = 1
	g := NewGuardedProvider(&flakyProvider{}, cfg)

	// First call spends the burst token.
	_, err := g.Quote(context.Background(), "NSE:X-EQ")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = g.Quote(ctx, "NSE:X-EQ")
	assert.Error(t, err, "limiter wait aborts with the context")
}
