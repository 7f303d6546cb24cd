package domain

import (
	"time"

	userdomain "github.com/androidmontreal/rhok-server/internal/user/domain"
)

type ID string

// Session is a persisted login session. Rows are append-only: a session is
// never deleted, it is invalidated by LoggedOut or goes stale by timeout.
//
// A session moves through exactly one of two terminal states. Expiry is
// detected lazily whenever the session is checked; logout is explicit and
// permanent, set either by the owner logging out or by a newer login for
// the same user.
type Session struct {
	ID           ID
	UserID       userdomain.ID
	SessionKey   string
	StartTime    time.Time
	LastActivity time.Time
	Timeout      time.Duration
	LoggedOut    bool
}

// ExpiresAt is the instant the session times out, measured from last
// activity.
func (s Session) ExpiresAt() time.Time {
	return s.LastActivity.Add(s.Timeout)
}

// Valid reports whether the session can still authenticate requests:
// not logged out, and not past its timeout.
func (s Session) Valid(now time.Time) bool {
	return !s.LoggedOut && now.Before(s.ExpiresAt())
}
