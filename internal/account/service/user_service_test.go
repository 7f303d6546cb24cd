package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/androidmontreal/rhok-server/internal/account/service"
	"github.com/androidmontreal/rhok-server/internal/common/clock"
	commonerrors "github.com/androidmontreal/rhok-server/internal/common/errors"
	"github.com/androidmontreal/rhok-server/internal/common/logger"
	userdomain "github.com/androidmontreal/rhok-server/internal/user/domain"
	userrepo "github.com/androidmontreal/rhok-server/internal/user/repository"
)

func setupUserService(t *testing.T) (*service.UserService, *mockUserRepo, *mockHasher, *clock.MockClock) {
	t.Helper()

	users := newMockUserRepo()
	hasher := &mockHasher{}
	idGen := &mockIDGenerator{}
	clk := clock.NewMockClock(time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC))
	log := logger.NewStderr("test")

	svc := service.NewUserService(users, hasher, idGen, clk, 7*24*time.Hour, log)
	return svc, users, hasher, clk
}

func TestCreateUser_NewAccount(t *testing.T) {
	svc, users, _, clk := setupUserService(t)

	var inserted userdomain.User
	users.tx.insertFunc = func(ctx context.Context, u userdomain.User) error {
		inserted = u
		return nil
	}

	result, err := svc.CreateUser(context.Background(), service.CreateUserInput{
		Email:    "alice@example.com",
		Password: "Secret1",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if result.Code != service.CodeUserCreated {
		t.Fatalf("expected USER_CREATED, got %s", result.Code)
	}
	if inserted.Email != "alice@example.com" {
		t.Errorf("expected email persisted, got %q", inserted.Email)
	}
	if inserted.PasswordHash == "Secret1" || inserted.PasswordHash == "" {
		t.Error("password must be stored hashed")
	}
	if inserted.Confirmed || inserted.Archived {
		t.Error("new account starts unconfirmed and unarchived")
	}
	if !inserted.LastEmailCheck.Equal(clk.Now()) {
		t.Errorf("expected last email check now, got %v", inserted.LastEmailCheck)
	}
}

func TestCreateUser_ExistingGoodCredentials(t *testing.T) {
	svc, users, _, _ := setupUserService(t)

	users.tx.findAllByEmailFunc = func(ctx context.Context, email string) ([]userdomain.User, error) {
		return []userdomain.User{testUser("user-1", email)}, nil
	}
	users.tx.insertFunc = func(ctx context.Context, u userdomain.User) error {
		t.Error("existing account must not be recreated")
		return nil
	}

	result, err := svc.CreateUser(context.Background(), service.CreateUserInput{
		Email:    "alice@example.com",
		Password: "Secret1",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Code != service.CodeExistsGoodCreds {
		t.Fatalf("expected EXISTS_GOOD_CREDS, got %s", result.Code)
	}
}

func TestCreateUser_ExistingBadCredentials(t *testing.T) {
	svc, users, _, _ := setupUserService(t)

	users.tx.findAllByEmailFunc = func(ctx context.Context, email string) ([]userdomain.User, error) {
		return []userdomain.User{testUser("user-1", email)}, nil
	}

	result, err := svc.CreateUser(context.Background(), service.CreateUserInput{
		Email:    "alice@example.com",
		Password: "WrongPass9",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Code != service.CodeExistsBadCreds {
		t.Fatalf("expected EXISTS_BAD_CREDS, got %s", result.Code)
	}
}

func TestCreateUser_ExistingUnconfirmedOverdue(t *testing.T) {
	svc, users, _, clk := setupUserService(t)

	users.tx.findAllByEmailFunc = func(ctx context.Context, email string) ([]userdomain.User, error) {
		u := testUser("user-1", email)
		u.Confirmed = false
		u.LastEmailCheck = clk.Now().Add(-8 * 24 * time.Hour)
		return []userdomain.User{u}, nil
	}

	result, err := svc.CreateUser(context.Background(), service.CreateUserInput{
		Email:    "alice@example.com",
		Password: "Secret1",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Code != service.CodeExistsUnconfirmedEmailDue {
		t.Fatalf("expected EXISTS_UNCONFIRMED_EMAIL_DUE, got %s", result.Code)
	}
}

func TestCreateUser_ExistingUnconfirmedWithinGracePeriod(t *testing.T) {
	svc, users, _, clk := setupUserService(t)

	users.tx.findAllByEmailFunc = func(ctx context.Context, email string) ([]userdomain.User, error) {
		u := testUser("user-1", email)
		u.Confirmed = false
		u.LastEmailCheck = clk.Now().Add(-3 * 24 * time.Hour)
		return []userdomain.User{u}, nil
	}

	result, err := svc.CreateUser(context.Background(), service.CreateUserInput{
		Email:    "alice@example.com",
		Password: "Secret1",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Code != service.CodeExistsGoodCreds {
		t.Fatalf("expected EXISTS_GOOD_CREDS within grace period, got %s", result.Code)
	}
}

func TestCreateUser_ValidationFailure(t *testing.T) {
	svc, users, _, _ := setupUserService(t)

	users.tx.insertFunc = func(ctx context.Context, u userdomain.User) error {
		t.Error("invalid input must not reach the insert")
		return nil
	}

	result, err := svc.CreateUser(context.Background(), service.CreateUserInput{
		Email:    "not-an-email",
		Password: "short",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Code != service.CodeValidationFailed {
		t.Fatalf("expected VALIDATION_FAILED, got %s", result.Code)
	}

	fields := map[string]bool{}
	for _, v := range result.ValidationResults {
		fields[v.FieldName] = true
		if v.Message == "" {
			t.Errorf("field %s must carry a message", v.FieldName)
		}
	}
	if !fields["email"] || !fields["password"] {
		t.Errorf("expected failures for email and password, got %v", result.ValidationResults)
	}
}

func TestCreateUser_DuplicateEmailFault(t *testing.T) {
	svc, users, hasher, _ := setupUserService(t)

	users.tx.findAllByEmailFunc = func(ctx context.Context, email string) ([]userdomain.User, error) {
		return []userdomain.User{testUser("user-1", email), testUser("user-2", email)}, nil
	}
	hasher.compareFunc = func(hash, password string) error {
		t.Error("duplicate-email fault must fail before any password check")
		return nil
	}
	users.tx.insertFunc = func(ctx context.Context, u userdomain.User) error {
		t.Error("duplicate-email fault must not insert")
		return nil
	}

	_, err := svc.CreateUser(context.Background(), service.CreateUserInput{
		Email:    "alice@example.com",
		Password: "Secret1",
	})
	if !errors.Is(err, commonerrors.ErrDuplicateRecord) {
		t.Fatalf("expected ErrDuplicateRecord, got %v", err)
	}
}

func TestCreateUser_ConcurrentInsertConflict(t *testing.T) {
	svc, users, _, _ := setupUserService(t)

	users.tx.insertFunc = func(ctx context.Context, u userdomain.User) error {
		return userrepo.ErrEmailAlreadyExists
	}

	_, err := svc.CreateUser(context.Background(), service.CreateUserInput{
		Email:    "alice@example.com",
		Password: "Secret1",
	})
	if !errors.Is(err, commonerrors.ErrDuplicateRecord) {
		t.Fatalf("expected ErrDuplicateRecord, got %v", err)
	}
}

func TestArchiveUser_Success(t *testing.T) {
	svc, users, _, _ := setupUserService(t)

	users.tx.findByIDForUpdateFunc = func(ctx context.Context, id userdomain.ID) (userdomain.User, error) {
		return testUser(string(id), "alice@example.com"), nil
	}

	var archived []userdomain.ID
	users.tx.setArchivedFunc = func(ctx context.Context, id userdomain.ID) error {
		archived = append(archived, id)
		return nil
	}

	if err := svc.ArchiveUser(context.Background(), "user-1"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(archived) != 1 || archived[0] != "user-1" {
		t.Errorf("expected user-1 archived, got %v", archived)
	}
}

func TestArchiveUser_AlreadyArchivedIsNoOp(t *testing.T) {
	svc, users, _, _ := setupUserService(t)

	users.tx.findByIDForUpdateFunc = func(ctx context.Context, id userdomain.ID) (userdomain.User, error) {
		u := testUser(string(id), "alice@example.com")
		u.Archived = true
		return u, nil
	}
	users.tx.setArchivedFunc = func(ctx context.Context, id userdomain.ID) error {
		t.Error("archived account must not be written again")
		return nil
	}

	if err := svc.ArchiveUser(context.Background(), "user-1"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestArchiveUser_UnknownUser(t *testing.T) {
	svc, _, _, _ := setupUserService(t)

	err := svc.ArchiveUser(context.Background(), "missing")
	if !errors.Is(err, commonerrors.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestInviteUser_UnconfirmedInviterRejected(t *testing.T) {
	svc, users, _, _ := setupUserService(t)

	users.findByIDFunc = func(ctx context.Context, id userdomain.ID) (userdomain.User, error) {
		u := testUser(string(id), "alice@example.com")
		u.Confirmed = false
		return u, nil
	}

	err := svc.InviteUser(context.Background(), "user-1", "bob@example.com")
	if !errors.Is(err, service.ErrInviteNotAllowed) {
		t.Fatalf("expected ErrInviteNotAllowed, got %v", err)
	}
}

func TestInviteUser_ConfirmedInviterHitsUnimplementedFlow(t *testing.T) {
	svc, users, _, _ := setupUserService(t)

	users.findByIDFunc = func(ctx context.Context, id userdomain.ID) (userdomain.User, error) {
		return testUser(string(id), "alice@example.com"), nil
	}

	err := svc.InviteUser(context.Background(), "user-1", "bob@example.com")
	if !errors.Is(err, commonerrors.ErrNotImplemented) {
		t.Fatalf("expected ErrNotImplemented, got %v", err)
	}
}

func TestInviteUser_UnknownInviter(t *testing.T) {
	svc, _, _, _ := setupUserService(t)

	err := svc.InviteUser(context.Background(), "missing", "bob@example.com")
	if !errors.Is(err, commonerrors.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
