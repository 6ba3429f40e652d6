package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/tallyhq/tally/internal/metrics"
)

// statusRecorder captures the response status for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Logging logs every request and feeds the latency histogram.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		metrics.RequestDuration.WithLabelValues(r.URL.Path, r.Method).Observe(elapsed.Seconds())

		logger := slog.Info
		if rec.status >= 500 {
			logger = slog.Error
		} else if rec.status >= 400 {
			logger = slog.Warn
		}
		logger("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"member_id", GetMemberID(r.Context()),
			"duration_ms", elapsed.Milliseconds(),
		)
	})
}
