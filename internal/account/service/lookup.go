package service

import (
	"context"

	commonerrors "github.com/androidmontreal/rhok-server/internal/common/errors"
	"github.com/androidmontreal/rhok-server/internal/common/logger"
	userdomain "github.com/androidmontreal/rhok-server/internal/user/domain"
)

// singleUserByEmail reduces an email lookup to at most one record. Email is
// a unique business key; more than one row is an integrity fault that is
// alert-logged for the operators and fails the request without mutation.
func singleUserByEmail(ctx context.Context, log *logger.Logger, email string, users []userdomain.User) (userdomain.User, bool, error) {
	if len(users) > 1 {
		incrementDuplicateEmailFaults()
		log.WithFields(ctx, logger.Fields{
			"email":   email,
			"records": len(users),
			"action":  "duplicate_email_fault",
		}).Error("multiple user accounts share this email, cannot continue processing this request")
		return userdomain.User{}, false, commonerrors.ErrDuplicateRecord
	}

	if len(users) == 0 {
		return userdomain.User{}, false, nil
	}

	return users[0], true, nil
}
