package constants

import "time"

const (
	// Session keys are raw random bytes, hex encoded.
	SessionKeySize = 32

	// Default timeout applied to freshly created sessions, measured from
	// last activity.
	DefaultSessionTimeout = time.Hour

	// Maximum number of days a user can keep using the system without
	// confirming their email address.
	UnconfirmedMaxDays = 7

	PasswordResetTokenSize = 32
	PasswordResetTokenTTL  = 30 * time.Minute

	BcryptCost = 12

	DefaultMaxRequestSize = 1 << 20

	DBPoolMaxOpenConns    = 25
	DBPoolMinOpenConns    = 5
	DBPoolConnMaxLifetime = time.Hour
	DBPoolConnMaxIdleTime = 30 * time.Minute
	DBPoolHealthCheck     = time.Minute
	DBPoolConnectTimeout  = 5 * time.Second
	DBPoolMaxAttempts     = 10
	DBPoolRetryDelay      = time.Second
	DBPoolMetricsInterval = 30 * time.Second
	DBQueryTimeout        = 30 * time.Second

	ServerReadHeaderTimeout = 10 * time.Second
	ServerReadTimeout       = 30 * time.Second
	ServerWriteTimeout      = 30 * time.Second
	ServerIdleTimeout       = 120 * time.Second

	ShutdownTimeout = 30 * time.Second
	DrainTimeout    = 10 * time.Second

	ResetTokenCleanupInterval = time.Hour
)
