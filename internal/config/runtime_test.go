package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRuntimeDefaults(t *testing.T) {
	cfg, err := LoadRuntime()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 30*time.Second, cfg.ChainCacheTTL)
	assert.Equal(t, 10, cfg.ScanWorkers)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.RedisAddr)
	assert.Empty(t, cfg.PostgresDSN)
}

func TestLoadRuntimeOverrides(t *testing.T) {
	t.Setenv("OPTIONRUN_HTTP_ADDR", ":9090")
	t.Setenv("OPTIONRUN_REDIS_ADDR", "localhost:6379")
	t.Setenv("OPTIONRUN_CHAIN_CACHE_TTL", "5s")
	t.Setenv("OPTIONRUN_SCAN_WORKERS", "4")
	t.Setenv("OPTIONRUN_LOG_LEVEL", "debug")

	cfg, err := LoadRuntime()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 5*time.Second, cfg.ChainCacheTTL)
	assert.Equal(t, 4, cfg.ScanWorkers)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadRuntimeRejectsZeroWorkers(t *testing.T) {
	t.Setenv("OPTIONRUN_SCAN_WORKERS", "0")

	_, err := LoadRuntime()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SCAN_WORKERS")
}

func TestLoadRuntimeRejectsMalformedDuration(t *testing.T) {
	t.Setenv("OPTIONRUN_REQUEST_TIMEOUT", "not-a-duration")

	_, err := LoadRuntime()
	assert.Error(t, err)
}
