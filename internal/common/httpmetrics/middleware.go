package httpmetrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/androidmontreal/rhok-server/internal/observability/metrics"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Wrap instruments a handler with request count, in-flight and duration
// metrics. Paths are normalized so per-id routes do not explode the label
// cardinality.
func Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		method := r.Method
		path := NormalizePath(r.URL.Path)

		metrics.AccountsRequestsTotal.WithLabelValues(method, path).Inc()
		metrics.AccountsRequestsInFlight.Inc()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		statusClass := fmt.Sprintf("%dxx", rec.status/100)

		metrics.AccountsRequestsInFlight.Dec()
		metrics.AccountsRequestDurationSeconds.WithLabelValues(method, path, statusClass).Observe(elapsed.Seconds())
	})
}
