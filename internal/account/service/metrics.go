package service

import (
	"github.com/androidmontreal/rhok-server/internal/observability/metrics"
)

func incrementLoginsGranted() {
	metrics.LoginsGranted.Inc()
}

func incrementLoginsDenied() {
	metrics.LoginsDenied.Inc()
}

func incrementUsersCreated() {
	metrics.UsersCreated.Inc()
}

func incrementUsersArchived() {
	metrics.UsersArchived.Inc()
}

func incrementPasswordResetsRequested() {
	metrics.PasswordResetsRequested.Inc()
}

func incrementPasswordResetsCompleted() {
	metrics.PasswordResetsCompleted.Inc()
}

func incrementDuplicateEmailFaults() {
	metrics.DuplicateRecordFaults.WithLabelValues("email").Inc()
}
