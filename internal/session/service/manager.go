package service

import (
	"context"
	"errors"
	"time"

	"github.com/androidmontreal/rhok-server/internal/common/clock"
	"github.com/androidmontreal/rhok-server/internal/common/constants"
	commoncrypto "github.com/androidmontreal/rhok-server/internal/common/crypto"
	"github.com/androidmontreal/rhok-server/internal/common/logger"
	"github.com/androidmontreal/rhok-server/internal/session/domain"
	"github.com/androidmontreal/rhok-server/internal/session/repository"
	userdomain "github.com/androidmontreal/rhok-server/internal/user/domain"
)

// Manager enforces the single-active-session policy: each user holds at
// most one valid session at any time, and creating a session logs out the
// previous one.
type Manager struct {
	repo  repository.Repository
	txMgr repository.TxManagerInterface
	keys  commoncrypto.KeyGenerator
	idGen commoncrypto.IDGenerator
	clock clock.Clock
	log   *logger.Logger
}

func NewManager(
	repo repository.Repository,
	keys commoncrypto.KeyGenerator,
	idGen commoncrypto.IDGenerator,
	clk clock.Clock,
	log *logger.Logger,
) *Manager {
	return &Manager{
		repo:  repo,
		txMgr: repo.TxManager(),
		keys:  keys,
		idGen: idGen,
		clock: clk,
		log:   log,
	}
}

// FindActiveSession returns the user's single valid session. More than one
// valid session is an integrity fault from an earlier bug: it is reported
// and nothing is mutated.
func (m *Manager) FindActiveSession(ctx context.Context, userID userdomain.ID) (domain.Session, error) {
	sessions, err := m.repo.FindActiveByUserID(ctx, userID, m.clock.Now())
	if err != nil {
		m.log.WithFields(ctx, logger.Fields{
			"user_id": string(userID),
			"action":  "find_active_session_failed",
		}).Errorf("failed to query active sessions: %v", err)
		return domain.Session{}, err
	}

	if len(sessions) > 1 {
		incrementSessionConflicts()
		m.log.WithFields(ctx, logger.Fields{
			"user_id":  string(userID),
			"sessions": len(sessions),
			"action":   "session_conflict",
		}).Error("multiple valid sessions found for user, operator intervention required")
		return domain.Session{}, ErrSessionConflict
	}

	if len(sessions) == 0 {
		return domain.Session{}, ErrNoActiveSession
	}

	return sessions[0], nil
}

// Invalidate marks the session logged out. Calling it on an already
// logged-out session is a no-op.
func (m *Manager) Invalidate(ctx context.Context, session domain.Session) error {
	if session.LoggedOut {
		return nil
	}

	if err := m.repo.MarkLoggedOut(ctx, session.ID); err != nil {
		m.log.WithFields(ctx, logger.Fields{
			"session_id": string(session.ID),
			"action":     "invalidate_session_failed",
		}).Errorf("failed to invalidate session: %v", err)
		return err
	}

	incrementSessionsInvalidated()
	return nil
}

// InvalidateByKey logs out the session identified by its key. Supports the
// logout operation; unknown keys report ErrUnknownSessionKey.
func (m *Manager) InvalidateByKey(ctx context.Context, sessionKey string) error {
	session, err := m.repo.FindBySessionKey(ctx, sessionKey)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return ErrUnknownSessionKey
		}
		return err
	}

	return m.Invalidate(ctx, session)
}

// CreateSession opens a new session for the user, logging out any valid
// session that already exists. The whole flow runs in one transaction,
// serialized per user on the user row, so two concurrent logins cannot
// both observe "no active session" and end up with two.
func (m *Manager) CreateSession(ctx context.Context, userID userdomain.ID, timeout time.Duration) (domain.Session, error) {
	key, err := m.keys.NewKey(constants.SessionKeySize)
	if err != nil {
		m.log.WithFields(ctx, logger.Fields{
			"user_id": string(userID),
			"action":  "session_key_generation_failed",
		}).Errorf("failed to generate session key: %v", err)
		return domain.Session{}, err
	}

	id, err := m.idGen.NewID()
	if err != nil {
		return domain.Session{}, err
	}

	var created domain.Session

	err = m.txMgr.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if err := tx.LockUser(ctx, userID); err != nil {
			if errors.Is(err, repository.ErrSessionUserNotFound) {
				return ErrSessionUserNotFound
			}
			return err
		}

		now := m.clock.Now()

		active, err := tx.FindActiveByUserIDForUpdate(ctx, userID, now)
		if err != nil {
			return err
		}

		if len(active) > 1 {
			incrementSessionConflicts()
			m.log.WithFields(ctx, logger.Fields{
				"user_id":  string(userID),
				"sessions": len(active),
				"action":   "session_conflict",
			}).Error("multiple valid sessions found for user, operator intervention required")
			return ErrSessionConflict
		}

		if len(active) == 1 {
			if err := tx.MarkLoggedOut(ctx, active[0].ID); err != nil {
				return err
			}
			incrementSessionsSuperseded()
			m.log.WithFields(ctx, logger.Fields{
				"user_id":    string(userID),
				"session_id": string(active[0].ID),
				"action":     "session_superseded",
			}).Info("previous session logged out by new login")
		}

		created = domain.Session{
			ID:           domain.ID(id),
			UserID:       userID,
			SessionKey:   key,
			StartTime:    now,
			LastActivity: now,
			Timeout:      timeout,
			LoggedOut:    false,
		}

		return tx.Insert(ctx, created)
	})
	if err != nil {
		return domain.Session{}, err
	}

	incrementSessionsCreated()
	m.log.WithFields(ctx, logger.Fields{
		"user_id":    string(userID),
		"session_id": string(created.ID),
		"action":     "session_created",
	}).Info("session created")

	return created, nil
}
