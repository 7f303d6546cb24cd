package service_test

import (
	"context"
	"time"

	"github.com/androidmontreal/rhok-server/internal/session/domain"
	"github.com/androidmontreal/rhok-server/internal/session/repository"
	userdomain "github.com/androidmontreal/rhok-server/internal/user/domain"
)

type mockSessionTx struct {
	lockUserFunc                    func(ctx context.Context, userID userdomain.ID) error
	findActiveByUserIDForUpdateFunc func(ctx context.Context, userID userdomain.ID, now time.Time) ([]domain.Session, error)
	markLoggedOutFunc               func(ctx context.Context, id domain.ID) error
	insertFunc                      func(ctx context.Context, session domain.Session) error
}

func (m *mockSessionTx) LockUser(ctx context.Context, userID userdomain.ID) error {
	if m.lockUserFunc != nil {
		return m.lockUserFunc(ctx, userID)
	}
	return nil
}

func (m *mockSessionTx) FindActiveByUserIDForUpdate(ctx context.Context, userID userdomain.ID, now time.Time) ([]domain.Session, error) {
	if m.findActiveByUserIDForUpdateFunc != nil {
		return m.findActiveByUserIDForUpdateFunc(ctx, userID, now)
	}
	return nil, nil
}

func (m *mockSessionTx) MarkLoggedOut(ctx context.Context, id domain.ID) error {
	if m.markLoggedOutFunc != nil {
		return m.markLoggedOutFunc(ctx, id)
	}
	return nil
}

func (m *mockSessionTx) Insert(ctx context.Context, session domain.Session) error {
	if m.insertFunc != nil {
		return m.insertFunc(ctx, session)
	}
	return nil
}

type mockSessionRepo struct {
	tx                     *mockSessionTx
	findActiveByUserIDFunc func(ctx context.Context, userID userdomain.ID, now time.Time) ([]domain.Session, error)
	findBySessionKeyFunc   func(ctx context.Context, key string) (domain.Session, error)
	markLoggedOutFunc      func(ctx context.Context, id domain.ID) error
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{tx: &mockSessionTx{}}
}

func (m *mockSessionRepo) FindActiveByUserID(ctx context.Context, userID userdomain.ID, now time.Time) ([]domain.Session, error) {
	if m.findActiveByUserIDFunc != nil {
		return m.findActiveByUserIDFunc(ctx, userID, now)
	}
	return nil, nil
}

func (m *mockSessionRepo) FindBySessionKey(ctx context.Context, key string) (domain.Session, error) {
	if m.findBySessionKeyFunc != nil {
		return m.findBySessionKeyFunc(ctx, key)
	}
	return domain.Session{}, repository.ErrSessionNotFound
}

func (m *mockSessionRepo) MarkLoggedOut(ctx context.Context, id domain.ID) error {
	if m.markLoggedOutFunc != nil {
		return m.markLoggedOutFunc(ctx, id)
	}
	return nil
}

func (m *mockSessionRepo) TxManager() repository.TxManagerInterface {
	return &mockTxManager{tx: m.tx}
}

type mockTxManager struct {
	tx *mockSessionTx
}

func (m *mockTxManager) WithTx(ctx context.Context, fn func(context.Context, repository.Tx) error) error {
	return fn(ctx, m.tx)
}

type mockKeyGenerator struct {
	newKeyFunc func(size int) (string, error)
}

func (m *mockKeyGenerator) NewKey(size int) (string, error) {
	if m.newKeyFunc != nil {
		return m.newKeyFunc(size)
	}
	return "test-session-key", nil
}

type mockIDGenerator struct {
	newIDFunc func() (string, error)
}

func (m *mockIDGenerator) NewID() (string, error) {
	if m.newIDFunc != nil {
		return m.newIDFunc()
	}
	return "test-id", nil
}
