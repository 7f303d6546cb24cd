package domain

import "time"

type ID string

// User is the persisted account record. Email is the business key; its
// uniqueness is backed by a unique index, but reads still guard against
// duplicates (see the repositories).
type User struct {
	ID           ID
	Email        string
	PasswordHash string
	Username     string
	FirstName    string
	LastName     string
	Confirmed    bool
	Archived     bool
	// ReferalID points at the inviting user, when there is one. Plain
	// identifier, not an embedded record.
	ReferalID      ID
	LastEmailCheck time.Time
	CreatedAt      time.Time
}

// UnconfirmedOverdue reports whether the account has gone unconfirmed for
// longer than the allowed grace period.
func (u User) UnconfirmedOverdue(now time.Time, maxAge time.Duration) bool {
	return !u.Confirmed && now.Sub(u.LastEmailCheck) > maxAge
}
