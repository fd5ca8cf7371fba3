package intel

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the classifier thresholds. Load-time configuration, not
// environment-coupled business logic: reloading the file is enough to
// retune the engine.
type Config struct {
	IntentScoreThreshold int     `yaml:"intent_score_threshold"`
	TightRangePct        float64 `yaml:"tight_range_pct"`
	HighVIXThreshold     float64 `yaml:"high_vix_threshold"`
	HighPCRAlert         float64 `yaml:"high_pcr_alert"`
	LowPCRAlert          float64 `yaml:"low_pcr_alert"`
}

// DefaultConfig returns the thresholds the engine ships with.
func DefaultConfig() Config {
	return Config{
		IntentScoreThreshold: 40,
		TightRangePct:        2.0,
		HighVIXThreshold:     20,
		HighPCRAlert:         1.3,
		LowPCRAlert:          0.6,
	}
}

// LoadConfig reads and validates classifier thresholds from a YAML file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read intel config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse intel config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("intel config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate fails fast on thresholds that would make classifications
// meaningless.
func (c Config) Validate() error {
	if c.IntentScoreThreshold < 0 || c.IntentScoreThreshold > 100 {
		return fmt.Errorf("intent_score_threshold %d outside [0,100]", c.IntentScoreThreshold)
	}
	if c.TightRangePct <= 0 {
		return fmt.Errorf("tight_range_pct must be positive, got %.2f", c.TightRangePct)
	}
	if c.LowPCRAlert >= c.HighPCRAlert {
		return fmt.Errorf("low_pcr_alert %.2f must be below high_pcr_alert %.2f",
			c.LowPCRAlert, c.HighPCRAlert)
	}
	return nil
}
