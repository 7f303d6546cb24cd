package service

import (
	"net/http"

	commonerrors "github.com/androidmontreal/rhok-server/internal/common/errors"
)

var (
	// ErrInvalidCredentials covers every denial on the authenticate path:
	// unknown email, wrong password, and the duplicate-email integrity
	// fault. Which of those happened is deliberately not revealed.
	ErrInvalidCredentials = commonerrors.NewDomainError(
		"INVALID_CREDENTIALS",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"invalid email or password",
	)

	// ErrInvalidResetToken covers unknown, expired and already-used reset
	// tokens alike.
	ErrInvalidResetToken = commonerrors.NewDomainError(
		"INVALID_RESET_TOKEN",
		commonerrors.CategoryAuth,
		http.StatusBadRequest,
		"reset token is invalid or expired",
	)

	ErrInviteNotAllowed = commonerrors.NewDomainError(
		"INVITE_NOT_ALLOWED",
		commonerrors.CategoryAuth,
		http.StatusForbidden,
		"only confirmed users may send invitations",
	)
)
