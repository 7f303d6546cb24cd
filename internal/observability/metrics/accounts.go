package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AccountsRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accounts_requests_total",
			Help: "Total number of account service requests",
		},
		[]string{"method", "path"},
	)

	AccountsRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "accounts_requests_in_flight",
			Help: "Number of account service requests currently being processed",
		},
	)

	AccountsRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "accounts_request_duration_seconds",
			Help:    "Duration of account service requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	LoginsGranted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "logins_granted_total",
			Help: "Total number of successful authentications",
		},
	)

	LoginsDenied = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "logins_denied_total",
			Help: "Total number of denied authentications",
		},
	)

	SessionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sessions_created_total",
			Help: "Total number of sessions created",
		},
	)

	SessionsSuperseded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sessions_superseded_total",
			Help: "Total number of sessions invalidated by a newer login",
		},
	)

	SessionsInvalidated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sessions_invalidated_total",
			Help: "Total number of sessions invalidated by explicit logout",
		},
	)

	SessionConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "session_conflicts_total",
			Help: "Total number of times more than one valid session was found for a user",
		},
	)

	DuplicateRecordFaults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duplicate_record_faults_total",
			Help: "Total number of duplicate-record integrity faults detected",
		},
		[]string{"key"},
	)

	UsersCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "users_created_total",
			Help: "Total number of user accounts created",
		},
	)

	UsersArchived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "users_archived_total",
			Help: "Total number of user accounts archived",
		},
	)

	PasswordResetsRequested = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "password_resets_requested_total",
			Help: "Total number of password reset flows initiated",
		},
	)

	PasswordResetsCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "password_resets_completed_total",
			Help: "Total number of password reset flows completed with a new password",
		},
	)

	ResetTokensCleanupDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reset_tokens_cleanup_deleted_total",
			Help: "Total number of expired password reset tokens deleted during cleanup",
		},
	)

	DBQueryDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Duration of database queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_query_errors_total",
			Help: "Total number of database query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	DBPoolTotalConns = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_pool_total_conns",
			Help: "Total number of connections in the database pool",
		},
	)

	DBPoolIdleConns = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_pool_idle_conns",
			Help: "Number of idle connections in the database pool",
		},
	)

	DBPoolAcquiredConns = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_pool_acquired_conns",
			Help: "Number of currently acquired connections in the database pool",
		},
	)
)
