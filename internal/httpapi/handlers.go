package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/optionrun/internal/domain"
	"github.com/sawpanic/optionrun/internal/intel"
	"github.com/sawpanic/optionrun/internal/scanner"
	"github.com/sawpanic/optionrun/internal/sentiment"
	"github.com/sawpanic/optionrun/internal/vat"
)

const (
	vixSymbol        = "NSE:INDIAVIX-INDEX"
	niftySymbol      = "NSE:NIFTY50-INDEX"
	defaultStrikeCnt = 20
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Version:   version,
		Cache:     s.deps.Cached,
		Journal:   s.deps.Journal != nil,
		Timestamp: time.Now(),
	})
}

func (s *Server) handleUniverse(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"indices": s.deps.Universe.Indices(),
		"stocks":  s.deps.Universe.Stocks(),
	})
}

func queryInt(r *http.Request, key string, def int) int {
	if raw := r.URL.Query().Get(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return def
}

func queryBool(r *http.Request, key string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return v
}

func (s *Server) fetchChain(r *http.Request, symbol string) (*domain.OptionChainSnapshot, int, error) {
	strikes := queryInt(r, "strikes", defaultStrikeCnt)
	snap, err := s.deps.Provider.OptionChain(r.Context(), symbol, strikes)
	if err != nil {
		return nil, http.StatusBadGateway, err
	}
	return snap, http.StatusOK, nil
}

func mapAnalysisError(err error) int {
	if errors.Is(err, domain.ErrNoSpotPrice) || errors.Is(err, domain.ErrEmptyChain) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	snap, status, err := s.fetchChain(r, symbol)
	if err != nil {
		writeError(w, r, status, err.Error())
		return
	}

	analysis, err := s.deps.Engine.Analyze(snap, intel.AnalyzeOptions{
		BypassTimeCheck: queryBool(r, "bypass_time_check"),
	})
	if err != nil {
		writeError(w, r, mapAnalysisError(err), err.Error())
		return
	}

	if s.deps.Metrics != nil {
		s.deps.Metrics.Analyses.WithLabelValues(string(analysis.MarketState)).Inc()
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	snap, status, err := s.fetchChain(r, symbol)
	if err != nil {
		writeError(w, r, status, err.Error())
		return
	}

	summary, err := s.deps.Engine.Summarize(snap, intel.AnalyzeOptions{
		BypassTimeCheck: queryBool(r, "bypass_time_check"),
	})
	if err != nil {
		writeError(w, r, mapAnalysisError(err), err.Error())
		return
	}

	if s.deps.Metrics != nil {
		s.deps.Metrics.Analyses.WithLabelValues(string(summary.State)).Inc()
	}
	s.hub.Broadcast(StreamEvent{Type: "summary", Symbol: symbol, Payload: summary})
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleVATScan(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	snap, status, err := s.fetchChain(r, symbol)
	if err != nil {
		writeError(w, r, status, err.Error())
		return
	}

	// Intraday momentum context comes from recent five-minute candles;
	// missing history degrades to neutral momentum.
	candles, err := s.deps.Provider.History(r.Context(), symbol, "5", 1)
	if err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Msg("momentum history unavailable")
	}

	result, err := s.deps.VAT.Scan(snap, vat.ScanOptions{
		MinConfidence: queryInt(r, "min_confidence", s.deps.VAT.Config().MediumConfidenceThreshold),
		Candles:       candles,
	})
	if err != nil {
		writeError(w, r, mapAnalysisError(err), err.Error())
		return
	}

	if result.Best != nil && s.deps.Journal != nil {
		if err := s.deps.Journal.InsertVATSignal(r.Context(), symbol, result.Best); err != nil {
			log.Error().Err(err).Str("symbol", symbol).Msg("signal journaling failed")
		}
	}
	if result.Best != nil {
		s.hub.Broadcast(StreamEvent{Type: "vat_signal", Symbol: symbol, Payload: result.Best})
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleVolumeScan(w http.ResponseWriter, r *http.Request) {
	// An empty body means all defaults.
	var req volumeScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := s.deps.Scans.ScanHighVolume(r.Context(), scanner.VolumeScanOptions{
		Timeframe: req.Timeframe,
		TopCount:  req.TopCount,
		Lookback:  req.Lookback,
	})
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	if s.deps.Journal != nil {
		if err := s.deps.Journal.InsertVolumeScan(r.Context(), result); err != nil {
			log.Error().Err(err).Msg("volume scan journaling failed")
		}
	}
	s.hub.Broadcast(StreamEvent{Type: "volume_scan", Payload: result})
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleDeepScan(w http.ResponseWriter, r *http.Request) {
	var req deepScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := s.deps.Scans.DeepScan(r.Context(), scanner.DeepScanOptions{
		Symbols:     req.Symbols,
		StrikeCount: req.StrikeCount,
		TopCount:    req.TopCount,
	})
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	if s.deps.Journal != nil {
		if err := s.deps.Journal.InsertDeepScan(r.Context(), result); err != nil {
			log.Error().Err(err).Msg("deep scan journaling failed")
		}
	}
	s.hub.Broadcast(StreamEvent{Type: "deep_scan", Payload: result})
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSentiment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	vix, err := s.deps.Provider.Quote(ctx, vixSymbol)
	if err != nil {
		writeError(w, r, http.StatusBadGateway, "vix quote unavailable: "+err.Error())
		return
	}

	// PCR comes from the index chain; breadth from stock quotes. Both
	// are best-effort.
	var pcr float64
	if snap, err := s.deps.Provider.OptionChain(ctx, niftySymbol, defaultStrikeCnt); err == nil {
		pcr = snap.PCR
	} else {
		log.Warn().Err(err).Msg("index chain unavailable for pcr")
	}

	var quotes []domain.Quote
	for _, symbol := range s.deps.Universe.Symbols() {
		q, err := s.deps.Provider.Quote(ctx, symbol)
		if err != nil {
			continue
		}
		quotes = append(quotes, *q)
	}

	writeJSON(w, http.StatusOK, sentiment.BuildReport(*vix, pcr, quotes, time.Now()))
}

func (s *Server) handleSignals(w http.ResponseWriter, r *http.Request) {
	if s.deps.Journal == nil {
		writeError(w, r, http.StatusServiceUnavailable, "signal journal not configured")
		return
	}

	signals, err := s.deps.Journal.RecentSignals(r.Context(),
		r.URL.Query().Get("symbol"), queryInt(r, "limit", 20))
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"signals": signals, "count": len(signals)})
}
