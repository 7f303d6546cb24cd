package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	pgx "github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/androidmontreal/rhok-server/internal/common/constants"
	"github.com/androidmontreal/rhok-server/internal/common/db"
	"github.com/androidmontreal/rhok-server/internal/user/domain"
)

const userColumns = `id, email, password_hash, username, first_name, last_name,
	 confirmed, archived, referal_id, last_email_check, created_at`

type Repository interface {
	FindAllByEmail(ctx context.Context, email string) ([]domain.User, error)
	FindByID(ctx context.Context, id domain.ID) (domain.User, error)
	UpdatePasswordHash(ctx context.Context, id domain.ID, hash string) error
	TxManager() TxManagerInterface
}

type TxManagerInterface interface {
	WithTx(ctx context.Context, fn func(context.Context, Tx) error) error
}

// Tx covers the lookup-then-write flows of user management. Everything in
// one of these closures runs inside a single database transaction.
type Tx interface {
	FindAllByEmail(ctx context.Context, email string) ([]domain.User, error)
	Insert(ctx context.Context, user domain.User) error
	FindByIDForUpdate(ctx context.Context, id domain.ID) (domain.User, error)
	SetArchived(ctx context.Context, id domain.ID) error
}

var ErrUserNotFound = pgx.ErrNoRows

var ErrEmailAlreadyExists = errors.New("email already exists")

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

func (r *PgRepository) FindAllByEmail(ctx context.Context, email string) ([]domain.User, error) {
	start := time.Now()
	rows, err := r.pool.Query(
		ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`,
		email,
	)
	if err != nil {
		return nil, db.HandleQueryError(err, nil, "find users by email", start)
	}
	defer rows.Close()

	users, err := scanUsers(rows)
	if err != nil {
		return nil, db.HandleQueryError(err, nil, "find users by email", start)
	}
	db.MeasureQueryDuration("find users by email", start)
	return users, nil
}

func (r *PgRepository) FindByID(ctx context.Context, id domain.ID) (domain.User, error) {
	start := time.Now()
	row := r.pool.QueryRow(
		ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		string(id),
	)

	user, err := scanUser(row)
	if err := db.HandleQueryError(err, ErrUserNotFound, "find user by id", start); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (r *PgRepository) UpdatePasswordHash(ctx context.Context, id domain.ID, hash string) error {
	start := time.Now()
	res, err := r.pool.Exec(
		ctx,
		`UPDATE users SET password_hash = $2 WHERE id = $1`,
		string(id),
		hash,
	)
	if err != nil {
		return db.HandleExecError(err, "update user password", start)
	}
	db.MeasureQueryDuration("update user password", start)
	if res.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
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

	userTx := &pgUserTx{tx: tx}
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

	err = fn(ctx, userTx)
	return err
}

type pgUserTx struct {
	tx pgx.Tx
}

func (t *pgUserTx) FindAllByEmail(ctx context.Context, email string) ([]domain.User, error) {
	start := time.Now()
	rows, err := t.tx.Query(
		ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`,
		email,
	)
	if err != nil {
		return nil, db.HandleQueryError(err, nil, "find users by email in tx", start)
	}
	defer rows.Close()

	users, err := scanUsers(rows)
	if err != nil {
		return nil, db.HandleQueryError(err, nil, "find users by email in tx", start)
	}
	db.MeasureQueryDuration("find users by email in tx", start)
	return users, nil
}

func (t *pgUserTx) Insert(ctx context.Context, user domain.User) error {
	start := time.Now()
	var referalID *string
	if user.ReferalID != "" {
		s := string(user.ReferalID)
		referalID = &s
	}
	_, err := t.tx.Exec(
		ctx,
		`INSERT INTO users (id, email, password_hash, username, first_name, last_name,
		 confirmed, archived, referal_id, last_email_check, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		string(user.ID),
		user.Email,
		user.PasswordHash,
		user.Username,
		user.FirstName,
		user.LastName,
		user.Confirmed,
		user.Archived,
		referalID,
		user.LastEmailCheck,
		user.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrEmailAlreadyExists
		}
		return db.HandleExecError(err, "insert user in tx", start)
	}
	db.MeasureQueryDuration("insert user in tx", start)
	return nil
}

func (t *pgUserTx) FindByIDForUpdate(ctx context.Context, id domain.ID) (domain.User, error) {
	start := time.Now()
	row := t.tx.QueryRow(
		ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`,
		string(id),
	)

	user, err := scanUser(row)
	if err := db.HandleQueryError(err, ErrUserNotFound, "find user by id in tx", start); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (t *pgUserTx) SetArchived(ctx context.Context, id domain.ID) error {
	start := time.Now()
	_, err := t.tx.Exec(
		ctx,
		`UPDATE users SET archived = TRUE WHERE id = $1`,
		string(id),
	)
	return db.HandleExecError(err, "archive user in tx", start)
}

func scanUser(row pgx.Row) (domain.User, error) {
	var user domain.User
	var referalID *string
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Username,
		&user.FirstName,
		&user.LastName,
		&user.Confirmed,
		&user.Archived,
		&referalID,
		&user.LastEmailCheck,
		&user.CreatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}
	if referalID != nil {
		user.ReferalID = domain.ID(*referalID)
	}
	return user, nil
}

func scanUsers(rows pgx.Rows) ([]domain.User, error) {
	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}
