package service

import (
	"github.com/androidmontreal/rhok-server/internal/observability/metrics"
)

func incrementSessionsCreated() {
	metrics.SessionsCreated.Inc()
}

func incrementSessionsSuperseded() {
	metrics.SessionsSuperseded.Inc()
}

func incrementSessionsInvalidated() {
	metrics.SessionsInvalidated.Inc()
}

func incrementSessionConflicts() {
	metrics.SessionConflicts.Inc()
	metrics.DuplicateRecordFaults.WithLabelValues("active_session").Inc()
}
