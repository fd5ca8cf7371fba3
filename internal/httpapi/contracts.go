package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// errorEnvelope is the uniform error body for all endpoints.
type errorEnvelope struct {
	Error     string    `json:"error"`
	Code      int       `json:"code"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// healthResponse reports process liveness and wiring.
type healthResponse struct {
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	Cache     bool      `json:"cache_enabled"`
	Journal   bool      `json:"journal_enabled"`
	Timestamp time.Time `json:"timestamp"`
}

// volumeScanRequest scopes a POST /v1/scan/volume call.
type volumeScanRequest struct {
	Timeframe string `json:"timeframe"`
	TopCount  int    `json:"top_count"`
	Lookback  int    `json:"lookback"`
}

// deepScanRequest scopes a POST /v1/scan/deep call.
type deepScanRequest struct {
	Symbols     []string `json:"symbols"`
	StrikeCount int      `json:"strike_count"`
	TopCount    int      `json:"top_count"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("response encoding failed")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, status, errorEnvelope{
		Error:     msg,
		Code:      status,
		RequestID: requestIDFrom(r),
		Timestamp: time.Now(),
	})
}
