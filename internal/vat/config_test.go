package vat

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestValidateRejectsBadWeights(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Weights.Gap = 0.5 // sum now 1.2

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weights sum")
}

func TestValidateRejectsBadParams(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Nifty.StrikeStep = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.BankNifty.MinGap = -1
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.StopLossPercent = 100
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.HighConfidenceThreshold = 50 // below medium
	assert.Error(t, cfg.Validate())
}

func TestLoadConfigOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vat.yaml")
	require.NoError(t, os.WriteFile(path, []byte("nifty:\n  min_gap: 9.0\n  strike_step: 50\n  scan_range: 500\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9.0, cfg.Nifty.MinGap)
	assert.Equal(t, 15.0, cfg.BankNifty.MinGap, "untouched sections keep defaults")
	assert.InDelta(t, 1.0, cfg.Weights.Sum(), 0.001)
}

func TestLoadConfigFailsFastOnBadWeights(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vat.yaml")
	require.NoError(t, os.WriteFile(path, []byte("weights:\n  gap: 0.9\n"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err, "silent renormalization is not allowed")
}

func TestParamsFor(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, cfg.BankNifty, cfg.ParamsFor("NSE:NIFTYBANK-INDEX"))
	assert.Equal(t, cfg.BankNifty, cfg.ParamsFor("BANKNIFTY"))
	assert.Equal(t, cfg.Nifty, cfg.ParamsFor("NSE:NIFTY50-INDEX"))
	assert.Equal(t, cfg.Nifty, cfg.ParamsFor("NSE:RELIANCE-EQ"), "stocks scan with Nifty-class parameters")
}

func TestExpiryWeekdayDefaults(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, int(time.Thursday), cfg.Nifty.ExpiryWeekday)
	assert.Equal(t, int(time.Wednesday), cfg.BankNifty.ExpiryWeekday)
}
