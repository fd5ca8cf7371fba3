package vat

import (
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/optionrun/internal/domain"
)

// SignalType names the undervalued leg the strategy buys.
type SignalType string

const (
	SignalNone  SignalType = "NONE"
	SignalBuyCE SignalType = "BUY_CE"
	SignalBuyPE SignalType = "BUY_PE"
)

// Signal is one equidistant strike-pair evaluation. Pairs below the gap
// threshold stay in the audit list with SignalNone and no scores.
type Signal struct {
	Offset            float64         `json:"offset"`
	CallStrike        float64         `json:"call_strike"`
	PutStrike         float64         `json:"put_strike"`
	CallLTP           float64         `json:"ce_ltp"`
	PutLTP            float64         `json:"pe_ltp"`
	Gap               float64         `json:"gap"`
	GapPct            float64         `json:"gap_pct"`
	Opportunity       bool            `json:"is_opportunity"`
	Type              SignalType      `json:"signal"`
	UndervaluedStrike float64         `json:"undervalued_strike,omitempty"`
	EntryPrice        float64         `json:"entry_price,omitempty"`
	TargetPremium     float64         `json:"theoretical_target,omitempty"`
	Scores            ComponentScores `json:"scores"`
	Confidence        int             `json:"confidence"`
	Strength          SignalStrength  `json:"strength"`
	Trade             TradeParams     `json:"trade_params"`
	Tradeable         bool            `json:"tradeable"`
}

// ScanOptions scope one scan call.
type ScanOptions struct {
	Now           time.Time
	MinConfidence int // caller-supplied tradeability floor
	MaxPerBucket  int // cap per confidence bucket; 0 means default
	Candles       []domain.Candle
}

const defaultMaxPerBucket = 5

// ScanResult partitions scored signals by strength and keeps the full
// unfiltered pair list for audit.
type ScanResult struct {
	Symbol        string        `json:"symbol"`
	SpotPrice     float64       `json:"spot_price"`
	AnchorStrike  float64       `json:"anchor_strike"`
	Context       MarketContext `json:"context"`
	High          []Signal      `json:"high_confidence"`
	Medium        []Signal      `json:"medium_confidence"`
	Low           []Signal      `json:"low_confidence"`
	All           []Signal      `json:"full_analysis"`
	Best          *Signal       `json:"best_signal,omitempty"`
	Opportunities int           `json:"total_opportunities"`
}

// Scanner evaluates premium dislocation between strikes equidistant from
// the anchor. Immutable config only; shareable across requests.
type Scanner struct {
	cfg Config
}

// NewScanner creates a VAT scanner with the given strategy config.
func NewScanner(cfg Config) *Scanner {
	return &Scanner{cfg: cfg}
}

// Config exposes the scanner's immutable configuration.
func (s *Scanner) Config() Config {
	return s.cfg
}

// Scan walks offsets of one strike step up to the scan range, comparing
// the call premium above the anchor against the put premium the same
// distance below. The cheaper leg of a wide enough gap is the buy.
func (s *Scanner) Scan(snap *domain.OptionChainSnapshot, opts ScanOptions) (*ScanResult, error) {
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	maxPerBucket := opts.MaxPerBucket
	if maxPerBucket <= 0 {
		maxPerBucket = defaultMaxPerBucket
	}

	params := s.cfg.ParamsFor(snap.Symbol)
	mctx := BuildContext(s.cfg, snap.Symbol, snap.SpotPrice, snap.IndiaVIX, opts.Candles, now)

	rows := make(map[float64]*domain.StrikeRow, len(snap.Chain))
	for i := range snap.Chain {
		rows[snap.Chain[i].Strike] = &snap.Chain[i]
	}

	result := &ScanResult{
		Symbol:       snap.Symbol,
		SpotPrice:    snap.SpotPrice,
		AnchorStrike: mctx.AnchorStrike,
		Context:      mctx,
	}

	for offset := params.StrikeStep; offset <= params.ScanRange; offset += params.StrikeStep {
		callStrike := mctx.AnchorStrike + offset
		putStrike := mctx.AnchorStrike - offset

		var call, put *domain.ContractQuote
		if row := rows[callStrike]; row != nil {
			call = row.Call
		}
		if row := rows[putStrike]; row != nil {
			put = row.Put
		}
		if call == nil || put == nil || call.LTP <= 0 || put.LTP <= 0 {
			continue
		}

		sig := s.evaluatePair(offset, callStrike, putStrike, call, put, params, mctx, opts.MinConfidence)
		result.All = append(result.All, sig)

		if !sig.Opportunity {
			continue
		}
		result.Opportunities++

		switch sig.Strength {
		case StrengthHigh:
			if len(result.High) < maxPerBucket {
				result.High = append(result.High, sig)
			}
		case StrengthMedium:
			if len(result.Medium) < maxPerBucket {
				result.Medium = append(result.Medium, sig)
			}
		case StrengthLow:
			if len(result.Low) < maxPerBucket {
				result.Low = append(result.Low, sig)
			}
		}

		if sig.Tradeable && (result.Best == nil || sig.Confidence > result.Best.Confidence) {
			best := sig
			result.Best = &best
		}
	}

	log.Debug().
		Str("symbol", snap.Symbol).
		Float64("anchor", mctx.AnchorStrike).
		Int("pairs", len(result.All)).
		Int("opportunities", result.Opportunities).
		Msg("vat scan complete")

	return result, nil
}

func (s *Scanner) evaluatePair(offset, callStrike, putStrike float64, call, put *domain.ContractQuote,
	params IndexParams, mctx MarketContext, minConfidence int) Signal {

	gap := math.Abs(call.LTP - put.LTP)
	avgPremium := (call.LTP + put.LTP) / 2
	gapPct := 0.0
	if avgPremium > 0 {
		gapPct = gap / avgPremium * 100
	}

	sig := Signal{
		Offset:     offset,
		CallStrike: callStrike,
		PutStrike:  putStrike,
		CallLTP:    call.LTP,
		PutLTP:     put.LTP,
		Gap:        round2(gap),
		GapPct:     round2(gapPct),
		Type:       SignalNone,
		Strength:   StrengthSkip,
	}

	if gap < params.MinGap {
		return sig
	}

	sig.Opportunity = true
	var legQuote *domain.ContractQuote
	if call.LTP < put.LTP {
		sig.Type = SignalBuyCE
		sig.UndervaluedStrike = callStrike
		sig.EntryPrice = call.LTP
		sig.TargetPremium = put.LTP
		legQuote = call
	} else {
		sig.Type = SignalBuyPE
		sig.UndervaluedStrike = putStrike
		sig.EntryPrice = put.LTP
		sig.TargetPremium = call.LTP
		legQuote = put
	}

	sig.Scores = ComponentScores{
		Gap:      GapScore(gap, params.MinGap, avgPremium),
		Momentum: MomentumScore(sig.Type, mctx.Momentum),
		Time:     TimeScore(mctx.ExpiryPhase, mctx.OptimalWindow),
		Greeks:   GreeksScore(legQuote),
		MaxPain:  MaxPainScore(),
	}
	sig.Confidence, sig.Strength = s.cfg.ConfidenceScore(sig.Scores)
	sig.Trade = s.cfg.ComputeTradeParams(sig.EntryPrice, sig.TargetPremium)
	sig.Tradeable = sig.Type != SignalNone &&
		sig.Confidence >= minConfidence &&
		sig.Trade.RiskReward >= s.cfg.MinRiskReward

	return sig
}
