package vat

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const weightSumTolerance = 0.001

// IndexParams are the per-underlying-class scan parameters. The minimum
// gap comes from the manuscript: ₹7 for Nifty-class indices, ₹15 for
// BankNifty-class.
type IndexParams struct {
	MinGap        float64 `yaml:"min_gap"`
	StrikeStep    float64 `yaml:"strike_step"`
	ScanRange     float64 `yaml:"scan_range"`
	ExpiryWeekday int     `yaml:"expiry_weekday"` // time.Weekday numbering
}

// Weights are the five confidence-score component weights. They must sum
// to 1.0; validation fails the load otherwise.
type Weights struct {
	Gap      float64 `yaml:"gap"`
	Momentum float64 `yaml:"momentum"`
	Time     float64 `yaml:"time"`
	Greeks   float64 `yaml:"greeks"`
	MaxPain  float64 `yaml:"max_pain"`
}

// Sum returns the total of all component weights.
func (w Weights) Sum() float64 {
	return w.Gap + w.Momentum + w.Time + w.Greeks + w.MaxPain
}

// Config is the immutable VAT strategy configuration, created once at
// startup and read-only thereafter.
type Config struct {
	Nifty     IndexParams `yaml:"nifty"`
	BankNifty IndexParams `yaml:"banknifty"`

	RiskPercent     float64 `yaml:"risk_percent"`
	StopLossPercent float64 `yaml:"stop_loss_percent"`
	Target1Percent  float64 `yaml:"target_1_percent"`
	Target2Percent  float64 `yaml:"target_2_percent"`
	MinRiskReward   float64 `yaml:"min_risk_reward"`

	Weights Weights `yaml:"weights"`

	OptimalStartHour int `yaml:"optimal_start_hour"`
	OptimalEndHour   int `yaml:"optimal_end_hour"`

	HighConfidenceThreshold   int `yaml:"high_confidence_threshold"`
	MediumConfidenceThreshold int `yaml:"medium_confidence_threshold"`
	LowConfidenceThreshold    int `yaml:"low_confidence_threshold"`
}

// DefaultConfig returns the shipped strategy parameters.
func DefaultConfig() Config {
	return Config{
		Nifty: IndexParams{
			MinGap:        7.0,
			StrikeStep:    50,
			ScanRange:     500,
			ExpiryWeekday: int(time.Thursday),
		},
		BankNifty: IndexParams{
			MinGap:        15.0,
			StrikeStep:    100,
			ScanRange:     1000,
			ExpiryWeekday: int(time.Wednesday),
		},
		RiskPercent:     2.5,
		StopLossPercent: 30.0,
		Target1Percent:  25.0,
		Target2Percent:  50.0,
		MinRiskReward:   1.5,
		Weights: Weights{
			Gap:      0.30,
			Momentum: 0.25,
			Time:     0.20,
			Greeks:   0.15,
			MaxPain:  0.10,
		},
		OptimalStartHour:          10,
		OptimalEndHour:            15,
		HighConfidenceThreshold:   80,
		MediumConfidenceThreshold: 60,
		LowConfidenceThreshold:    40,
	}
}

// LoadConfig reads a YAML strategy config over the defaults and validates
// it. Configuration errors are fatal at load time: a silently wrong
// weight vector produces meaningless scores.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read vat config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse vat config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("vat config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate enforces the load-time invariants.
func (c Config) Validate() error {
	for name, p := range map[string]IndexParams{"nifty": c.Nifty, "banknifty": c.BankNifty} {
		if p.StrikeStep <= 0 {
			return fmt.Errorf("%s strike_step must be positive, got %.1f", name, p.StrikeStep)
		}
		if p.ScanRange <= 0 {
			return fmt.Errorf("%s scan_range must be positive, got %.1f", name, p.ScanRange)
		}
		if p.MinGap <= 0 {
			return fmt.Errorf("%s min_gap must be positive, got %.2f", name, p.MinGap)
		}
	}

	if sum := c.Weights.Sum(); math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("scoring weights sum to %.4f, expected 1.0 ± %.3f", sum, weightSumTolerance)
	}

	if c.StopLossPercent <= 0 || c.StopLossPercent >= 100 {
		return fmt.Errorf("stop_loss_percent %.1f outside (0,100)", c.StopLossPercent)
	}
	if c.MinRiskReward <= 0 {
		return fmt.Errorf("min_risk_reward must be positive, got %.2f", c.MinRiskReward)
	}
	if !(c.HighConfidenceThreshold > c.MediumConfidenceThreshold &&
		c.MediumConfidenceThreshold > c.LowConfidenceThreshold) {
		return fmt.Errorf("confidence thresholds must be strictly ordered high>medium>low, got %d/%d/%d",
			c.HighConfidenceThreshold, c.MediumConfidenceThreshold, c.LowConfidenceThreshold)
	}
	return nil
}

// ParamsFor selects the index-class parameters for a symbol. BankNifty
// variants route to the BankNifty class; everything else scans with
// Nifty-class parameters.
func (c Config) ParamsFor(symbol string) IndexParams {
	upper := strings.ToUpper(symbol)
	if strings.Contains(upper, "BANKNIFTY") || strings.Contains(upper, "NIFTYBANK") {
		return c.BankNifty
	}
	return c.Nifty
}
