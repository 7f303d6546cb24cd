package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	accountdomain "github.com/androidmontreal/rhok-server/internal/account/domain"
	accountrepo "github.com/androidmontreal/rhok-server/internal/account/repository"
	"github.com/androidmontreal/rhok-server/internal/common/clock"
	"github.com/androidmontreal/rhok-server/internal/common/constants"
	commoncrypto "github.com/androidmontreal/rhok-server/internal/common/crypto"
	"github.com/androidmontreal/rhok-server/internal/common/logger"
	sessiondomain "github.com/androidmontreal/rhok-server/internal/session/domain"
	userdomain "github.com/androidmontreal/rhok-server/internal/user/domain"
	userrepo "github.com/androidmontreal/rhok-server/internal/user/repository"
)

// SessionManager is the slice of the session lifecycle the authentication
// service needs: opening a session (which supersedes any existing one) and
// closing one by key.
type SessionManager interface {
	CreateSession(ctx context.Context, userID userdomain.ID, timeout time.Duration) (sessiondomain.Session, error)
	InvalidateByKey(ctx context.Context, sessionKey string) error
}

type AuthService struct {
	users          userrepo.Repository
	sessions       SessionManager
	resetTokens    accountrepo.ResetTokenRepository
	hasher         commoncrypto.PasswordHasher
	keys           commoncrypto.KeyGenerator
	idGen          commoncrypto.IDGenerator
	clock          clock.Clock
	validator      *FieldValidator
	log            *logger.Logger
	sessionTimeout time.Duration
	resetTokenTTL  time.Duration
}

func NewAuthService(
	users userrepo.Repository,
	sessions SessionManager,
	resetTokens accountrepo.ResetTokenRepository,
	hasher commoncrypto.PasswordHasher,
	keys commoncrypto.KeyGenerator,
	idGen commoncrypto.IDGenerator,
	clk clock.Clock,
	sessionTimeout time.Duration,
	resetTokenTTL time.Duration,
	log *logger.Logger,
) *AuthService {
	return &AuthService{
		users:          users,
		sessions:       sessions,
		resetTokens:    resetTokens,
		hasher:         hasher,
		keys:           keys,
		idGen:          idGen,
		clock:          clk,
		validator:      NewFieldValidator(),
		log:            log,
		sessionTimeout: sessionTimeout,
		resetTokenTTL:  resetTokenTTL,
	}
}

type AuthenticateInput struct {
	Email    string
	Password string
}

type AuthResult struct {
	SessionKey string
}

// Authenticate checks the credentials and opens a session, transparently
// logging out any session the user already holds. Every denial surfaces as
// ErrInvalidCredentials; the reason is only visible in the logs.
func (s *AuthService) Authenticate(ctx context.Context, input AuthenticateInput) (AuthResult, error) {
	s.log.WithFields(ctx, logger.Fields{
		"email":  input.Email,
		"action": "authenticate_attempt",
	}).Info("authenticate attempt")

	found, err := s.users.FindAllByEmail(ctx, input.Email)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"email":  input.Email,
			"action": "authenticate_lookup_failed",
		}).Errorf("authenticate failed: %v", err)
		return AuthResult{}, err
	}

	user, ok, err := singleUserByEmail(ctx, s.log, input.Email, found)
	if err != nil {
		incrementLoginsDenied()
		return AuthResult{}, ErrInvalidCredentials.WithCause(err)
	}

	if !ok {
		incrementLoginsDenied()
		s.log.WithFields(ctx, logger.Fields{
			"email":  input.Email,
			"action": "authenticate_user_not_found",
		}).Info("authenticate denied: user not found")
		return AuthResult{}, ErrInvalidCredentials
	}

	if err := s.hasher.Compare(user.PasswordHash, input.Password); err != nil {
		incrementLoginsDenied()
		s.log.WithFields(ctx, logger.Fields{
			"email":  input.Email,
			"action": "authenticate_invalid_password",
		}).Info("authenticate denied: password mismatch")
		return AuthResult{}, ErrInvalidCredentials
	}

	session, err := s.sessions.CreateSession(ctx, user.ID, s.sessionTimeout)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"email":   input.Email,
			"user_id": string(user.ID),
			"action":  "authenticate_session_failed",
		}).Errorf("authenticate failed: session creation error: %v", err)
		return AuthResult{}, err
	}

	incrementLoginsGranted()
	s.log.WithFields(ctx, logger.Fields{
		"email":   input.Email,
		"user_id": string(user.ID),
		"action":  "authenticate_success",
	}).Info("authenticate granted")

	return AuthResult{SessionKey: session.SessionKey}, nil
}

// Logout permanently invalidates the session behind the given key.
func (s *AuthService) Logout(ctx context.Context, sessionKey string) error {
	if err := s.sessions.InvalidateByKey(ctx, sessionKey); err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"action": "logout_failed",
		}).Warnf("logout failed: %v", err)
		return err
	}

	s.log.WithFields(ctx, logger.Fields{
		"action": "logout_success",
	}).Info("session logged out")
	return nil
}

// ForgottenPassword starts the out-of-band reset flow. The outcome looks
// identical for known and unknown emails so the endpoint cannot be used to
// enumerate accounts; token delivery is out of scope here.
func (s *AuthService) ForgottenPassword(ctx context.Context, email string) error {
	found, err := s.users.FindAllByEmail(ctx, email)
	if err != nil {
		return err
	}

	user, ok, err := singleUserByEmail(ctx, s.log, email, found)
	if err != nil || !ok {
		s.log.WithFields(ctx, logger.Fields{
			"action": "password_reset_no_account",
		}).Info("password reset requested for unknown or ambiguous email")
		return nil
	}

	raw, err := s.keys.NewKey(constants.PasswordResetTokenSize)
	if err != nil {
		return err
	}

	id, err := s.idGen.NewID()
	if err != nil {
		return err
	}

	now := s.clock.Now()
	token := accountdomain.ResetToken{
		ID:        id,
		TokenHash: hashResetToken(raw),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.resetTokenTTL),
		CreatedAt: now,
	}

	if err := s.resetTokens.Create(ctx, token); err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": string(user.ID),
			"action":  "password_reset_store_failed",
		}).Errorf("failed to store reset token: %v", err)
		return err
	}

	incrementPasswordResetsRequested()
	s.log.WithFields(ctx, logger.Fields{
		"user_id": string(user.ID),
		"action":  "password_reset_initiated",
	}).Info("password reset initiated")

	return nil
}

// ResetPassword finishes the reset flow: the token is single-use and is
// consumed whether it was still live or already expired. Validation
// failures come back as field results, not as an error.
func (s *AuthService) ResetPassword(ctx context.Context, rawToken, newPassword string) ([]ValidationResult, error) {
	if failures := s.validator.ValidatePassword(newPassword); len(failures) > 0 {
		return failures, nil
	}

	// Consuming first makes the token single-use even under concurrent
	// requests: only one caller ever gets the row back.
	token, err := s.resetTokens.Consume(ctx, hashResetToken(rawToken))
	if err != nil {
		if errors.Is(err, accountrepo.ErrResetTokenNotFound) {
			s.log.WithFields(ctx, logger.Fields{
				"action": "password_reset_unknown_token",
			}).Info("password reset rejected: unknown token")
			return nil, ErrInvalidResetToken
		}
		return nil, err
	}

	if s.clock.Now().After(token.ExpiresAt) {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": string(token.UserID),
			"action":  "password_reset_expired_token",
		}).Info("password reset rejected: expired token")
		return nil, ErrInvalidResetToken
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return nil, err
	}

	if err := s.users.UpdatePasswordHash(ctx, token.UserID, hash); err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": string(token.UserID),
			"action":  "password_reset_update_failed",
		}).Errorf("failed to update password: %v", err)
		return nil, err
	}

	incrementPasswordResetsCompleted()
	s.log.WithFields(ctx, logger.Fields{
		"user_id": string(token.UserID),
		"action":  "password_reset_completed",
	}).Info("password reset completed")

	return nil, nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
