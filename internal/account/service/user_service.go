package service

import (
	"context"
	"errors"
	"time"

	"github.com/androidmontreal/rhok-server/internal/common/clock"
	commoncrypto "github.com/androidmontreal/rhok-server/internal/common/crypto"
	commonerrors "github.com/androidmontreal/rhok-server/internal/common/errors"
	"github.com/androidmontreal/rhok-server/internal/common/logger"
	userdomain "github.com/androidmontreal/rhok-server/internal/user/domain"
	userrepo "github.com/androidmontreal/rhok-server/internal/user/repository"
)

// CreateUserCode is the outcome of the create-or-recognize signup flow.
type CreateUserCode string

const (
	CodeUserCreated               CreateUserCode = "USER_CREATED"
	CodeExistsGoodCreds           CreateUserCode = "EXISTS_GOOD_CREDS"
	CodeExistsBadCreds            CreateUserCode = "EXISTS_BAD_CREDS"
	CodeExistsUnconfirmedEmailDue CreateUserCode = "EXISTS_UNCONFIRMED_EMAIL_DUE"
	CodeValidationFailed          CreateUserCode = "VALIDATION_FAILED"
)

type CreateUserInput struct {
	Email    string
	Password string
}

type CreateUserResult struct {
	Code              CreateUserCode
	ValidationResults []ValidationResult
}

// UserService implements account signup with create-or-recognize
// semantics: a login attempt from an unknown email becomes an account
// creation, so subscription stays frictionless. It never opens a session;
// that is the authentication service's job.
type UserService struct {
	users             userrepo.Repository
	txMgr             userrepo.TxManagerInterface
	hasher            commoncrypto.PasswordHasher
	idGen             commoncrypto.IDGenerator
	clock             clock.Clock
	validator         *FieldValidator
	log               *logger.Logger
	unconfirmedMaxAge time.Duration
}

func NewUserService(
	users userrepo.Repository,
	hasher commoncrypto.PasswordHasher,
	idGen commoncrypto.IDGenerator,
	clk clock.Clock,
	unconfirmedMaxAge time.Duration,
	log *logger.Logger,
) *UserService {
	return &UserService{
		users:             users,
		txMgr:             users.TxManager(),
		hasher:            hasher,
		idGen:             idGen,
		clock:             clk,
		validator:         NewFieldValidator(),
		log:               log,
		unconfirmedMaxAge: unconfirmedMaxAge,
	}
}

// CreateUser runs the whole lookup-then-create flow in one transaction so
// that two concurrent signups for the same email cannot both pass the
// "not found" check; the unique index on email backstops the race, and a
// violation is treated like any other duplicate-record fault.
func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput) (CreateUserResult, error) {
	s.log.WithFields(ctx, logger.Fields{
		"email":  input.Email,
		"action": "create_user_attempt",
	}).Info("create user attempt")

	var result CreateUserResult

	err := s.txMgr.WithTx(ctx, func(ctx context.Context, tx userrepo.Tx) error {
		found, err := tx.FindAllByEmail(ctx, input.Email)
		if err != nil {
			return err
		}

		existing, ok, err := singleUserByEmail(ctx, s.log, input.Email, found)
		if err != nil {
			return err
		}

		if ok {
			result = s.recognizeExisting(ctx, existing, input.Password)
			return nil
		}

		return s.createNew(ctx, tx, input, &result)
	})
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"email":  input.Email,
			"action": "create_user_failed",
		}).Errorf("create user failed: %v", err)
		return CreateUserResult{}, err
	}

	s.log.WithFields(ctx, logger.Fields{
		"email":  input.Email,
		"result": string(result.Code),
		"action": "create_user_result",
	}).Info("create user finished")

	return result, nil
}

// recognizeExisting classifies a signup against an account that already
// exists. No session is created on any of these branches.
func (s *UserService) recognizeExisting(ctx context.Context, existing userdomain.User, password string) CreateUserResult {
	if err := s.hasher.Compare(existing.PasswordHash, password); err != nil {
		return CreateUserResult{Code: CodeExistsBadCreds}
	}

	if existing.UnconfirmedOverdue(s.clock.Now(), s.unconfirmedMaxAge) {
		return CreateUserResult{Code: CodeExistsUnconfirmedEmailDue}
	}

	return CreateUserResult{Code: CodeExistsGoodCreds}
}

func (s *UserService) createNew(ctx context.Context, tx userrepo.Tx, input CreateUserInput, result *CreateUserResult) error {
	// Only the constrained fields are validated at signup; profile fields
	// arrive later through other flows.
	if failures := s.validator.ValidateNewUser(input.Email, input.Password); len(failures) > 0 {
		*result = CreateUserResult{
			Code:              CodeValidationFailed,
			ValidationResults: failures,
		}
		return nil
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return err
	}

	id, err := s.idGen.NewID()
	if err != nil {
		return err
	}

	now := s.clock.Now()
	user := userdomain.User{
		ID:             userdomain.ID(id),
		Email:          input.Email,
		PasswordHash:   hash,
		Confirmed:      false,
		Archived:       false,
		LastEmailCheck: now,
		CreatedAt:      now,
	}

	if err := tx.Insert(ctx, user); err != nil {
		if errors.Is(err, userrepo.ErrEmailAlreadyExists) {
			// A concurrent signup won the insert between our lookup and
			// now. Same treatment as any duplicate-key fault.
			incrementDuplicateEmailFaults()
			s.log.WithFields(ctx, logger.Fields{
				"email":  input.Email,
				"action": "create_user_insert_conflict",
			}).Error("concurrent signup hit the email unique index")
			return commonerrors.ErrDuplicateRecord.WithCause(err)
		}
		return err
	}

	incrementUsersCreated()
	*result = CreateUserResult{Code: CodeUserCreated}
	return nil
}

// ArchiveUser soft-deletes the account: the record is flagged, never
// removed. Archiving an already-archived account is a no-op.
func (s *UserService) ArchiveUser(ctx context.Context, userID userdomain.ID) error {
	err := s.txMgr.WithTx(ctx, func(ctx context.Context, tx userrepo.Tx) error {
		user, err := tx.FindByIDForUpdate(ctx, userID)
		if err != nil {
			if errors.Is(err, userrepo.ErrUserNotFound) {
				return commonerrors.ErrUserNotFound
			}
			return err
		}

		if user.Archived {
			return nil
		}

		return tx.SetArchived(ctx, userID)
	})
	if err != nil {
		if !errors.Is(err, commonerrors.ErrUserNotFound) {
			s.log.WithFields(ctx, logger.Fields{
				"user_id": string(userID),
				"action":  "archive_user_failed",
			}).Errorf("archive user failed: %v", err)
		}
		return err
	}

	incrementUsersArchived()
	s.log.WithFields(ctx, logger.Fields{
		"user_id": string(userID),
		"action":  "user_archived",
	}).Info("user archived")

	return nil
}

// InviteUser is not implemented yet. The confirmed-inviter guard is the
// settled part of the contract, so it is enforced already; the flow behind
// it is pending product work.
func (s *UserService) InviteUser(ctx context.Context, inviterID userdomain.ID, email string) error {
	inviter, err := s.users.FindByID(ctx, inviterID)
	if err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			return commonerrors.ErrUserNotFound
		}
		return err
	}

	if !inviter.Confirmed {
		return ErrInviteNotAllowed
	}

	return commonerrors.ErrNotImplemented
}
