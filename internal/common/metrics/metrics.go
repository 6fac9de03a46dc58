// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests handled",
		},
		[]string{"route", "method", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "Duration of HTTP request handling in seconds",
		},
		[]string{"route"},
	)

	ScriptRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "script_runs_total",
			Help: "Total number of script invocations by outcome",
		},
		[]string{"script", "outcome"},
	)

	ScriptRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "script_run_duration_seconds",
			Help: "Duration of script runs in seconds",
			// Model runs take minutes; the default buckets top out too early.
			Buckets: []float64{1, 5, 15, 60, 180, 600, 1800},
		},
		[]string{"script"},
	)

	ScriptRunsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "script_runs_active",
			Help: "Number of script invocations currently running",
		},
	)

	ChatRepliesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_replies_total",
			Help: "Total number of chat replies by path",
		},
		[]string{"path"}, // recommendation | general | fallback
	)
)
