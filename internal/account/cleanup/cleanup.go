package cleanup

import (
	"context"
	"time"

	"github.com/androidmontreal/rhok-server/internal/common/constants"
	"github.com/androidmontreal/rhok-server/internal/common/logger"
	"github.com/androidmontreal/rhok-server/internal/observability/metrics"
)

type ExpiredDeleter interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// StartResetTokenCleanup deletes expired password reset tokens on an
// hourly cadence until ctx is cancelled. Sessions need no such sweep:
// their validity is evaluated at read time.
func StartResetTokenCleanup(ctx context.Context, repo ExpiredDeleter, log *logger.Logger) {
	ticker := time.NewTicker(constants.ResetTokenCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := repo.DeleteExpired(ctx)
			if err != nil {
				log.Errorf("reset token cleanup failed: %v", err)
				continue
			}
			if deleted > 0 {
				metrics.ResetTokensCleanupDeleted.Add(float64(deleted))
				log.Infof("reset token cleanup: deleted %d expired tokens", deleted)
			}
		}
	}
}
