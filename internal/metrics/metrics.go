package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Set bundles the instrumentation exposed on /metrics. One Set is shared
// by the scan orchestrator, the HTTP layer, and the stream hub.
type Set struct {
	ScanDuration   *prometheus.HistogramVec
	SymbolsScanned prometheus.Counter
	SymbolErrors   *prometheus.CounterVec
	Analyses       *prometheus.CounterVec
	HTTPRequests   *prometheus.CounterVec
	StreamClients  prometheus.Gauge
}

// NewSet creates and registers the metric set on the given registerer.
func NewSet(reg prometheus.Registerer) *Set {
	s := &Set{
		ScanDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "optionrun",
			Name:      "scan_duration_seconds",
			Help:      "End-to-end duration of multi-symbol scans.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"scan_type"}),
		SymbolsScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "optionrun",
			Name:      "symbols_scanned_total",
			Help:      "Symbols processed across all scans.",
		}),
		SymbolErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "optionrun",
			Name:      "symbol_errors_total",
			Help:      "Per-symbol fetch or analysis failures by scan type.",
		}, []string{"scan_type"}),
		Analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "optionrun",
			Name:      "analyses_total",
			Help:      "Option-chain analyses by resulting market state.",
		}, []string{"state"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "optionrun",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		StreamClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "optionrun",
			Name:      "stream_clients",
			Help:      "Connected websocket stream clients.",
		}),
	}

	reg.MustRegister(
		s.ScanDuration,
		s.SymbolsScanned,
		s.SymbolErrors,
		s.Analyses,
		s.HTTPRequests,
		s.StreamClients,
	)
	return s
}
