package universe

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Cap classifies an underlying by market capitalization tier.
type Cap string

const (
	LargeCap Cap = "LARGE_CAP"
	MidCap   Cap = "MID_CAP"
)

// Stock is one scannable F&O underlying with metadata.
type Stock struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Cap    Cap    `json:"cap"`
}

// Index is one tradable index underlying.
type Index struct {
	Symbol string `yaml:"symbol" json:"symbol"`
	Class  string `yaml:"class" json:"class"` // nifty | banknifty
}

// Config is the YAML shape of the universe file.
type Config struct {
	Universe struct {
		Name        string `yaml:"name"`
		LastUpdated string `yaml:"last_updated"`
	} `yaml:"universe"`
	Indices   []Index  `yaml:"indices"`
	Stocks    []string `yaml:"stocks"`
	LargeCaps []string `yaml:"large_caps"`
}

// Manager holds the loaded F&O universe. Immutable after load.
type Manager struct {
	indices   []Index
	stocks    []string
	largeCaps map[string]bool
}

// Load reads the universe from a YAML file.
func Load(path string) (*Manager, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read universe file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse universe file: %w", err)
	}
	if len(cfg.Stocks) == 0 {
		return nil, fmt.Errorf("universe file %s lists no stocks", path)
	}

	return New(cfg), nil
}

// New builds a manager from an already-parsed config.
func New(cfg Config) *Manager {
	caps := make(map[string]bool, len(cfg.LargeCaps))
	for _, s := range cfg.LargeCaps {
		caps[s] = true
	}
	return &Manager{
		indices:   cfg.Indices,
		stocks:    cfg.Stocks,
		largeCaps: caps,
	}
}

// Default returns a built-in universe covering the liquid NSE F&O names,
// used when no universe file is configured.
func Default() *Manager {
	cfg := Config{
		Indices: []Index{
			{Symbol: "NSE:NIFTY50-INDEX", Class: "nifty"},
			{Symbol: "NSE:NIFTYBANK-INDEX", Class: "banknifty"},
		},
		Stocks: []string{
			"NSE:HDFCBANK-EQ", "NSE:ICICIBANK-EQ", "NSE:SBIN-EQ", "NSE:KOTAKBANK-EQ",
			"NSE:AXISBANK-EQ", "NSE:INDUSINDBK-EQ", "NSE:BAJFINANCE-EQ", "NSE:BAJAJFINSV-EQ",
			"NSE:RELIANCE-EQ", "NSE:TCS-EQ", "NSE:INFY-EQ", "NSE:WIPRO-EQ", "NSE:HCLTECH-EQ",
			"NSE:TECHM-EQ", "NSE:LT-EQ", "NSE:ITC-EQ", "NSE:HINDUNILVR-EQ", "NSE:ASIANPAINT-EQ",
			"NSE:MARUTI-EQ", "NSE:TATAMOTORS-EQ", "NSE:M&M-EQ", "NSE:TITAN-EQ", "NSE:SUNPHARMA-EQ",
			"NSE:DRREDDY-EQ", "NSE:CIPLA-EQ", "NSE:DIVISLAB-EQ", "NSE:TATASTEEL-EQ",
			"NSE:JSWSTEEL-EQ", "NSE:HINDALCO-EQ", "NSE:COALINDIA-EQ", "NSE:ONGC-EQ", "NSE:BPCL-EQ",
			"NSE:NTPC-EQ", "NSE:POWERGRID-EQ", "NSE:BHARTIARTL-EQ", "NSE:ADANIENT-EQ",
			"NSE:ADANIPORTS-EQ", "NSE:ULTRACEMCO-EQ", "NSE:GRASIM-EQ", "NSE:NESTLEIND-EQ",
			"NSE:BRITANNIA-EQ", "NSE:PNB-EQ", "NSE:BANKBARODA-EQ", "NSE:FEDERALBNK-EQ",
			"NSE:CHOLAFIN-EQ", "NSE:MUTHOOTFIN-EQ", "NSE:PFC-EQ", "NSE:RECLTD-EQ",
		},
		LargeCaps: []string{
			"NSE:RELIANCE-EQ", "NSE:TCS-EQ", "NSE:HDFCBANK-EQ", "NSE:ICICIBANK-EQ",
			"NSE:INFY-EQ", "NSE:HINDUNILVR-EQ", "NSE:SBIN-EQ", "NSE:BHARTIARTL-EQ",
			"NSE:ITC-EQ", "NSE:KOTAKBANK-EQ", "NSE:LT-EQ", "NSE:AXISBANK-EQ",
			"NSE:BAJFINANCE-EQ", "NSE:ASIANPAINT-EQ", "NSE:MARUTI-EQ", "NSE:TITAN-EQ",
			"NSE:SUNPHARMA-EQ", "NSE:TATAMOTORS-EQ", "NSE:NTPC-EQ", "NSE:POWERGRID-EQ",
			"NSE:WIPRO-EQ", "NSE:HCLTECH-EQ", "NSE:ULTRACEMCO-EQ", "NSE:NESTLEIND-EQ",
			"NSE:TECHM-EQ", "NSE:TATASTEEL-EQ", "NSE:ADANIENT-EQ", "NSE:ADANIPORTS-EQ",
			"NSE:M&M-EQ", "NSE:BAJAJFINSV-EQ", "NSE:DRREDDY-EQ", "NSE:CIPLA-EQ",
			"NSE:GRASIM-EQ", "NSE:JSWSTEEL-EQ", "NSE:HINDALCO-EQ", "NSE:COALINDIA-EQ",
			"NSE:BRITANNIA-EQ", "NSE:DIVISLAB-EQ", "NSE:ONGC-EQ", "NSE:BPCL-EQ",
		},
	}
	return New(cfg)
}

// Symbols returns all stock symbols in the universe.
func (m *Manager) Symbols() []string {
	out := make([]string, len(m.stocks))
	copy(out, m.stocks)
	return out
}

// Indices returns the index underlyings.
func (m *Manager) Indices() []Index {
	out := make([]Index, len(m.indices))
	copy(out, m.indices)
	return out
}

// Stocks returns all underlyings with display names and cap tiers.
func (m *Manager) Stocks() []Stock {
	out := make([]Stock, 0, len(m.stocks))
	for _, s := range m.stocks {
		out = append(out, Stock{
			Symbol: s,
			Name:   DisplayName(s),
			Cap:    m.Classify(s),
		})
	}
	return out
}

// Classify returns the cap tier for a symbol.
func (m *Manager) Classify(symbol string) Cap {
	if m.largeCaps[symbol] {
		return LargeCap
	}
	return MidCap
}

// DisplayName strips the exchange prefix and segment suffix.
func DisplayName(symbol string) string {
	name := strings.TrimPrefix(symbol, "NSE:")
	name = strings.TrimSuffix(name, "-EQ")
	return strings.TrimSuffix(name, "-INDEX")
}
