package data

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/optionrun/internal/domain"
)

func writeFixture(t *testing.T, root, rel string, v any) {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, raw, 0o644))
}

func TestFileProviderChain(t *testing.T) {
	root := t.TempDir()
	snap := &domain.OptionChainSnapshot{
		Symbol:    "NSE:NIFTY50-INDEX",
		SpotPrice: 25010,
		ATMStrike: 25000,
		Chain: []domain.StrikeRow{
			{Strike: 25000, Call: &domain.ContractQuote{LTP: 90}, Put: &domain.ContractQuote{LTP: 85}},
		},
	}
	writeFixture(t, root, filepath.Join("chains", "NSE_NIFTY50-INDEX.json"), snap)

	p, err := NewFileProvider(root)
	require.NoError(t, err)

	got, err := p.OptionChain(context.Background(), "NSE:NIFTY50-INDEX", 20)
	require.NoError(t, err)
	assert.Equal(t, snap.SpotPrice, got.SpotPrice)
	require.Len(t, got.Chain, 1)
	assert.Equal(t, 90.0, got.Chain[0].Call.LTP)
}

func TestFileProviderChainTrimsAroundATM(t *testing.T) {
	root := t.TempDir()
	snap := &domain.OptionChainSnapshot{
		Symbol:    "NSE:NIFTY50-INDEX",
		SpotPrice: 25000,
		ATMStrike: 25000,
	}
	for s := 24000.0; s <= 26000; s += 100 {
		snap.Chain = append(snap.Chain, domain.StrikeRow{Strike: s})
	}
	writeFixture(t, root, filepath.Join("chains", "NSE_NIFTY50-INDEX.json"), snap)

	p, err := NewFileProvider(root)
	require.NoError(t, err)

	got, err := p.OptionChain(context.Background(), "NSE:NIFTY50-INDEX", 3)
	require.NoError(t, err)
	require.Len(t, got.Chain, 7, "three strikes each side of ATM")
	assert.Equal(t, 24700.0, got.Chain[0].Strike)
	assert.Equal(t, 25300.0, got.Chain[6].Strike)
}

func TestFileProviderHistoryAndQuote(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, filepath.Join("history", "NSE_TCS-EQ_15.json"),
		[]domain.Candle{{Close: 3000, Volume: 1000}})
	writeFixture(t, root, filepath.Join("quotes", "NSE_TCS-EQ.json"),
		&domain.Quote{Symbol: "NSE:TCS-EQ", LTP: 3000, DayHigh: 3050})

	p, err := NewFileProvider(root)
	require.NoError(t, err)

	candles, err := p.History(context.Background(), "NSE:TCS-EQ", "15", 5)
	require.NoError(t, err)
	require.Len(t, candles, 1)
	assert.Equal(t, 3000.0, candles[0].Close)

	q, err := p.Quote(context.Background(), "NSE:TCS-EQ")
	require.NoError(t, err)
	assert.Equal(t, 3050.0, q.DayHigh)
}

func TestFileProviderMissingFixture(t *testing.T) {
	p, err := NewFileProvider(t.TempDir())
	require.NoError(t, err)

	_, err = p.OptionChain(context.Background(), "NSE:ABSENT-EQ", 20)
	assert.Error(t, err)
}

func TestNewFileProviderValidatesDir(t *testing.T) {
	_, err := NewFileProvider(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "plain.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	_, err = NewFileProvider(file)
	assert.Error(t, err)
}

func TestFileProviderHonorsContext(t *testing.T) {
	p, err := NewFileProvider(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Quote(ctx, "NSE:TCS-EQ")
	assert.ErrorIs(t, err, context.Canceled)
}
