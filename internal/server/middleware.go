// internal/server/middleware.go
package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"cryptoreed-server/internal/common/logger"
	"cryptoreed-server/internal/common/metrics"
	"cryptoreed-server/internal/common/observability"
)

// statusWriter captures the status code for logging and metrics.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// instrument wraps a handler with request ID, access logging and the
// request metrics for one named route.
func instrument(route string, log logger.Logger, obs *observability.Observability, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", requestID)

		sw := &statusWriter{ResponseWriter: w}
		start := time.Now()
		next(sw, r)
		elapsed := time.Since(start)

		if sw.status == 0 {
			sw.status = http.StatusOK
		}
		status := strconv.Itoa(sw.status)

		metrics.HTTPRequestsTotal.WithLabelValues(route, r.Method, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
		if obs != nil {
			obs.RecordRequest(r.Context(), route, status)
			obs.RecordRequestDuration(r.Context(), route, elapsed)
		}

		log.Info("request handled", map[string]interface{}{
			"request_id": requestID,
			"route":      route,
			"method":     r.Method,
			"status":     sw.status,
			"elapsed_ms": elapsed.Milliseconds(),
		})
	}
}
