package repository

import (
	"context"
	"errors"
	"time"

	pgx "github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/androidmontreal/rhok-server/internal/common/constants"
	"github.com/androidmontreal/rhok-server/internal/common/db"
	"github.com/androidmontreal/rhok-server/internal/session/domain"
	userdomain "github.com/androidmontreal/rhok-server/internal/user/domain"
)

const sessionColumns = `id, user_id, session_key, start_time, last_activity, timeout_ms, logged_out`

// Validity is evaluated in SQL at query time: not logged out, and now is
// still before last_activity plus the timeout. Expired rows are left in
// place.
const activeSessionFilter = `user_id = $1
	 AND NOT logged_out
	 AND $2 < last_activity + make_interval(secs => timeout_ms / 1000.0)`

type Repository interface {
	FindActiveByUserID(ctx context.Context, userID userdomain.ID, now time.Time) ([]domain.Session, error)
	FindBySessionKey(ctx context.Context, key string) (domain.Session, error)
	MarkLoggedOut(ctx context.Context, id domain.ID) error
	TxManager() TxManagerInterface
}

type TxManagerInterface interface {
	WithTx(ctx context.Context, fn func(context.Context, Tx) error) error
}

// Tx is the transactional surface used by session creation. LockUser
// serializes concurrent logins for one user on the user row itself, which
// is what keeps the at-most-one-active-session invariant under concurrent
// identical requests.
type Tx interface {
	LockUser(ctx context.Context, userID userdomain.ID) error
	FindActiveByUserIDForUpdate(ctx context.Context, userID userdomain.ID, now time.Time) ([]domain.Session, error)
	MarkLoggedOut(ctx context.Context, id domain.ID) error
	Insert(ctx context.Context, session domain.Session) error
}

var ErrSessionNotFound = pgx.ErrNoRows

var ErrSessionUserNotFound = errors.New("session owner not found")

type PgRepository struct {
	pool  *pgxpool.Pool
	txMgr *TxManager
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{
		pool:  pool,
		txMgr: NewTxManager(pool),
	}
}

func (r *PgRepository) TxManager() TxManagerInterface {
	return r.txMgr
}

func (r *PgRepository) FindActiveByUserID(ctx context.Context, userID userdomain.ID, now time.Time) ([]domain.Session, error) {
	start := time.Now()
	rows, err := r.pool.Query(
		ctx,
		`SELECT `+sessionColumns+` FROM user_sessions WHERE `+activeSessionFilter,
		string(userID),
		now,
	)
	if err != nil {
		return nil, db.HandleQueryError(err, nil, "find active sessions", start)
	}
	defer rows.Close()

	sessions, err := scanSessions(rows)
	if err != nil {
		return nil, db.HandleQueryError(err, nil, "find active sessions", start)
	}
	db.MeasureQueryDuration("find active sessions", start)
	return sessions, nil
}

func (r *PgRepository) FindBySessionKey(ctx context.Context, key string) (domain.Session, error) {
	start := time.Now()
	row := r.pool.QueryRow(
		ctx,
		`SELECT `+sessionColumns+` FROM user_sessions WHERE session_key = $1`,
		key,
	)

	session, err := scanSession(row)
	if err := db.HandleQueryError(err, ErrSessionNotFound, "find session by key", start); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

func (r *PgRepository) MarkLoggedOut(ctx context.Context, id domain.ID) error {
	start := time.Now()
	_, err := r.pool.Exec(
		ctx,
		`UPDATE user_sessions SET logged_out = TRUE WHERE id = $1`,
		string(id),
	)
	return db.HandleExecError(err, "mark session logged out", start)
}

type txBeginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

type TxManager struct {
	pool txBeginner
}

func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return &TxManager{pool: pool}
}

// WithTx names its error result so the deferred commit can report failure.
func (m *TxManager) WithTx(ctx context.Context, fn func(context.Context, Tx) error) (err error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DBQueryTimeout)
	defer cancel()

	tx, err := m.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}

	sessionTx := &pgSessionTx{tx: tx}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		} else if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = fn(ctx, sessionTx)
	return err
}

type pgSessionTx struct {
	tx pgx.Tx
}

func (t *pgSessionTx) LockUser(ctx context.Context, userID userdomain.ID) error {
	start := time.Now()
	var id string
	err := t.tx.QueryRow(
		ctx,
		`SELECT id FROM users WHERE id = $1 FOR UPDATE`,
		string(userID),
	).Scan(&id)
	return db.HandleQueryError(err, ErrSessionUserNotFound, "lock user row in tx", start)
}

func (t *pgSessionTx) FindActiveByUserIDForUpdate(ctx context.Context, userID userdomain.ID, now time.Time) ([]domain.Session, error) {
	start := time.Now()
	rows, err := t.tx.Query(
		ctx,
		`SELECT `+sessionColumns+` FROM user_sessions WHERE `+activeSessionFilter+` FOR UPDATE`,
		string(userID),
		now,
	)
	if err != nil {
		return nil, db.HandleQueryError(err, nil, "find active sessions in tx", start)
	}
	defer rows.Close()

	sessions, err := scanSessions(rows)
	if err != nil {
		return nil, db.HandleQueryError(err, nil, "find active sessions in tx", start)
	}
	db.MeasureQueryDuration("find active sessions in tx", start)
	return sessions, nil
}

func (t *pgSessionTx) MarkLoggedOut(ctx context.Context, id domain.ID) error {
	start := time.Now()
	_, err := t.tx.Exec(
		ctx,
		`UPDATE user_sessions SET logged_out = TRUE WHERE id = $1`,
		string(id),
	)
	return db.HandleExecError(err, "mark session logged out in tx", start)
}

func (t *pgSessionTx) Insert(ctx context.Context, session domain.Session) error {
	start := time.Now()
	_, err := t.tx.Exec(
		ctx,
		`INSERT INTO user_sessions (id, user_id, session_key, start_time, last_activity, timeout_ms, logged_out)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		string(session.ID),
		string(session.UserID),
		session.SessionKey,
		session.StartTime,
		session.LastActivity,
		session.Timeout.Milliseconds(),
		session.LoggedOut,
	)
	return db.HandleExecError(err, "insert session in tx", start)
}

func scanSession(row pgx.Row) (domain.Session, error) {
	var session domain.Session
	var timeoutMs int64
	err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.SessionKey,
		&session.StartTime,
		&session.LastActivity,
		&timeoutMs,
		&session.LoggedOut,
	)
	if err != nil {
		return domain.Session{}, err
	}
	session.Timeout = time.Duration(timeoutMs) * time.Millisecond
	return session, nil
}

func scanSessions(rows pgx.Rows) ([]domain.Session, error) {
	var sessions []domain.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}
