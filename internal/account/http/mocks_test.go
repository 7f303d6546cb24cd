package http_test

import (
	"context"
	"errors"
	"time"

	accountdomain "github.com/androidmontreal/rhok-server/internal/account/domain"
	accountrepo "github.com/androidmontreal/rhok-server/internal/account/repository"
	sessiondomain "github.com/androidmontreal/rhok-server/internal/session/domain"
	userdomain "github.com/androidmontreal/rhok-server/internal/user/domain"
	userrepo "github.com/androidmontreal/rhok-server/internal/user/repository"
)

type mockUserTx struct {
	findAllByEmailFunc    func(ctx context.Context, email string) ([]userdomain.User, error)
	insertFunc            func(ctx context.Context, user userdomain.User) error
	findByIDForUpdateFunc func(ctx context.Context, id userdomain.ID) (userdomain.User, error)
	setArchivedFunc       func(ctx context.Context, id userdomain.ID) error
}

func (m *mockUserTx) FindAllByEmail(ctx context.Context, email string) ([]userdomain.User, error) {
	if m.findAllByEmailFunc != nil {
		return m.findAllByEmailFunc(ctx, email)
	}
	return nil, nil
}

func (m *mockUserTx) Insert(ctx context.Context, user userdomain.User) error {
	if m.insertFunc != nil {
		return m.insertFunc(ctx, user)
	}
	return nil
}

func (m *mockUserTx) FindByIDForUpdate(ctx context.Context, id userdomain.ID) (userdomain.User, error) {
	if m.findByIDForUpdateFunc != nil {
		return m.findByIDForUpdateFunc(ctx, id)
	}
	return userdomain.User{}, userrepo.ErrUserNotFound
}

func (m *mockUserTx) SetArchived(ctx context.Context, id userdomain.ID) error {
	if m.setArchivedFunc != nil {
		return m.setArchivedFunc(ctx, id)
	}
	return nil
}

type mockUserRepo struct {
	tx                     *mockUserTx
	findAllByEmailFunc     func(ctx context.Context, email string) ([]userdomain.User, error)
	findByIDFunc           func(ctx context.Context, id userdomain.ID) (userdomain.User, error)
	updatePasswordHashFunc func(ctx context.Context, id userdomain.ID, hash string) error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{tx: &mockUserTx{}}
}

func (m *mockUserRepo) FindAllByEmail(ctx context.Context, email string) ([]userdomain.User, error) {
	if m.findAllByEmailFunc != nil {
		return m.findAllByEmailFunc(ctx, email)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id userdomain.ID) (userdomain.User, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return userdomain.User{}, userrepo.ErrUserNotFound
}

func (m *mockUserRepo) UpdatePasswordHash(ctx context.Context, id userdomain.ID, hash string) error {
	if m.updatePasswordHashFunc != nil {
		return m.updatePasswordHashFunc(ctx, id, hash)
	}
	return nil
}

func (m *mockUserRepo) TxManager() userrepo.TxManagerInterface {
	return &mockUserTxManager{tx: m.tx}
}

type mockUserTxManager struct {
	tx *mockUserTx
}

func (m *mockUserTxManager) WithTx(ctx context.Context, fn func(context.Context, userrepo.Tx) error) error {
	return fn(ctx, m.tx)
}

type mockSessionManager struct {
	createSessionFunc   func(ctx context.Context, userID userdomain.ID, timeout time.Duration) (sessiondomain.Session, error)
	invalidateByKeyFunc func(ctx context.Context, sessionKey string) error
}

func (m *mockSessionManager) CreateSession(ctx context.Context, userID userdomain.ID, timeout time.Duration) (sessiondomain.Session, error) {
	if m.createSessionFunc != nil {
		return m.createSessionFunc(ctx, userID, timeout)
	}
	return sessiondomain.Session{
		ID:         "session-1",
		UserID:     userID,
		SessionKey: "test-session-key",
		Timeout:    timeout,
	}, nil
}

func (m *mockSessionManager) InvalidateByKey(ctx context.Context, sessionKey string) error {
	if m.invalidateByKeyFunc != nil {
		return m.invalidateByKeyFunc(ctx, sessionKey)
	}
	return nil
}

type mockResetTokenRepo struct {
	createFunc  func(ctx context.Context, token accountdomain.ResetToken) error
	consumeFunc func(ctx context.Context, hash string) (accountdomain.ResetToken, error)
}

func (m *mockResetTokenRepo) Create(ctx context.Context, token accountdomain.ResetToken) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, token)
	}
	return nil
}

func (m *mockResetTokenRepo) Consume(ctx context.Context, hash string) (accountdomain.ResetToken, error) {
	if m.consumeFunc != nil {
		return m.consumeFunc(ctx, hash)
	}
	return accountdomain.ResetToken{}, accountrepo.ErrResetTokenNotFound
}

func (m *mockResetTokenRepo) DeleteExpired(ctx context.Context) (int64, error) {
	return 0, nil
}

type mockHasher struct{}

func (m *mockHasher) Hash(password string) (string, error) {
	return "hashed_" + password, nil
}

func (m *mockHasher) Compare(hash, password string) error {
	if hash != "hashed_"+password {
		return errors.New("password mismatch")
	}
	return nil
}

type mockKeyGenerator struct{}

func (m *mockKeyGenerator) NewKey(size int) (string, error) {
	return "test-key", nil
}

type mockIDGenerator struct{}

func (m *mockIDGenerator) NewID() (string, error) {
	return "test-id", nil
}
