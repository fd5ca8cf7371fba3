package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Runtime holds process-level settings read from the environment with
// the OPTIONRUN_ prefix. Strategy and classifier tuning live in the YAML
// files instead; the environment only wires infrastructure.
type Runtime struct {
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8080"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`

	RedisAddr     string        `envconfig:"REDIS_ADDR"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	ChainCacheTTL time.Duration `envconfig:"CHAIN_CACHE_TTL" default:"30s"`

	PostgresDSN string `envconfig:"POSTGRES_DSN"`

	DataDir     string `envconfig:"DATA_DIR"`
	ScanWorkers int    `envconfig:"SCAN_WORKERS" default:"10"`

	IntelConfigFile    string `envconfig:"INTEL_CONFIG"`
	VATConfigFile      string `envconfig:"VAT_CONFIG"`
	UniverseConfigFile string `envconfig:"UNIVERSE_CONFIG"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// LoadRuntime reads .env when present, then the OPTIONRUN_ environment.
func LoadRuntime() (*Runtime, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	} else {
		log.Debug().Msg("loaded environment from .env")
	}

	var cfg Runtime
	if err := envconfig.Process("OPTIONRUN", &cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.ScanWorkers <= 0 {
		return nil, fmt.Errorf("OPTIONRUN_SCAN_WORKERS must be positive, got %d", cfg.ScanWorkers)
	}
	return &cfg, nil
}
