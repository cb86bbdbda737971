package bot

import (
	"context"
	"errors"

	"github.com/robalyx/invitegate/internal/apperr"
	"github.com/robalyx/invitegate/internal/locale"
)

// errorKey picks the text shown to a user for a failed operation.
func errorKey(err error) locale.Key {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return locale.KeyInvalidRange
	case apperr.KindPermission:
		return locale.KeyPermissionError
	case apperr.KindTransient, apperr.KindPermanentService, apperr.KindUnreachable:
		return locale.KeyGeneralError
	case apperr.KindNotFound, apperr.KindUnknown:
		return locale.KeyDatabaseError
	default:
		return locale.KeyGeneralError
	}
}

// isTransient reports whether a platform call is worth retrying.
func isTransient(err error) bool {
	return apperr.IsTransient(err)
}

// isCancelled reports whether err comes from the handler context ending.
func isCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
