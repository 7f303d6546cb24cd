package service

import (
	"net/http"

	commonerrors "github.com/androidmontreal/rhok-server/internal/common/errors"
)

var (
	ErrNoActiveSession = commonerrors.NewDomainError(
		"NO_ACTIVE_SESSION",
		commonerrors.CategoryNotFound,
		http.StatusNotFound,
		"no active session for user",
	)

	// ErrSessionConflict means more than one valid session exists for a
	// user. That must never happen under correct operation; it is flagged
	// for operator intervention and the request performs no mutation.
	ErrSessionConflict = commonerrors.NewDomainError(
		"SESSION_CONFLICT",
		commonerrors.CategoryIntegrity,
		http.StatusInternalServerError,
		"multiple valid sessions found for user",
	)

	ErrUnknownSessionKey = commonerrors.NewDomainError(
		"UNKNOWN_SESSION_KEY",
		commonerrors.CategoryNotFound,
		http.StatusNotFound,
		"session key not recognized",
	)

	ErrSessionUserNotFound = commonerrors.NewDomainError(
		"SESSION_USER_NOT_FOUND",
		commonerrors.CategoryNotFound,
		http.StatusNotFound,
		"user not found for session creation",
	)
)
