package repository

import (
	"context"
	"time"

	pgx "github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/androidmontreal/rhok-server/internal/account/domain"
	"github.com/androidmontreal/rhok-server/internal/common/db"
)

// ResetTokenRepository stores password reset tokens. Only the SHA-256 hash
// of a token is persisted; the raw token leaves the process exactly once,
// toward the delivery channel.
type ResetTokenRepository interface {
	Create(ctx context.Context, token domain.ResetToken) error
	// Consume deletes the token with the given hash and returns it. At most
	// one caller ever receives a given token, whatever the concurrency.
	Consume(ctx context.Context, hash string) (domain.ResetToken, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

var ErrResetTokenNotFound = pgx.ErrNoRows

type PgResetTokenRepository struct {
	pool *pgxpool.Pool
}

func NewPgResetTokenRepository(pool *pgxpool.Pool) *PgResetTokenRepository {
	return &PgResetTokenRepository{pool: pool}
}

func (r *PgResetTokenRepository) Create(ctx context.Context, token domain.ResetToken) error {
	start := time.Now()
	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO password_reset_tokens (id, token_hash, user_id, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		token.ID,
		token.TokenHash,
		string(token.UserID),
		token.ExpiresAt,
		token.CreatedAt,
	)
	return db.HandleExecError(err, "create reset token", start)
}

// Consume removes the row and returns its contents in a single statement,
// so two racing callers cannot both redeem the same token.
func (r *PgResetTokenRepository) Consume(ctx context.Context, hash string) (domain.ResetToken, error) {
	start := time.Now()
	row := r.pool.QueryRow(
		ctx,
		`DELETE FROM password_reset_tokens
		 WHERE token_hash = $1
		 RETURNING id, token_hash, user_id, expires_at, created_at`,
		hash,
	)

	var token domain.ResetToken
	err := row.Scan(&token.ID, &token.TokenHash, &token.UserID, &token.ExpiresAt, &token.CreatedAt)
	if err := db.HandleQueryError(err, ErrResetTokenNotFound, "consume reset token", start); err != nil {
		return domain.ResetToken{}, err
	}
	return token, nil
}

func (r *PgResetTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	start := time.Now()
	res, err := r.pool.Exec(
		ctx,
		`DELETE FROM password_reset_tokens WHERE expires_at < NOW()`,
	)
	if err != nil {
		return 0, db.HandleExecError(err, "delete expired reset tokens", start)
	}
	db.MeasureQueryDuration("delete expired reset tokens", start)
	return res.RowsAffected(), nil
}
