package domain

import (
	"time"

	userdomain "github.com/androidmontreal/rhok-server/internal/user/domain"
)

// ResetToken is a single-use credential for the out-of-band password reset
// flow. Only the SHA-256 hash of the raw token is ever stored; the raw form
// exists solely on its way to the delivery channel.
type ResetToken struct {
	ID        string
	TokenHash string
	UserID    userdomain.ID
	ExpiresAt time.Time
	CreatedAt time.Time
}
