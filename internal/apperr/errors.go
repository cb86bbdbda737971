package apperr

import "errors"

var (
	// ErrValidation is returned when input is outside its allowed range.
	ErrValidation = errors.New("validation failed")
	// ErrPermission is returned when the bot lacks rights for a platform action.
	ErrPermission = errors.New("insufficient platform permissions")
	// ErrNotFound is returned when a group or member record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrTransient marks a failure that may succeed on retry.
	ErrTransient = errors.New("transient service failure")
	// ErrPermanentService marks a failure that will not succeed on retry.
	ErrPermanentService = errors.New("permanent service failure")
	// ErrUnreachable is returned when a member cannot receive private messages.
	ErrUnreachable = errors.New("recipient unreachable")
)

// Kind identifies the category of an error for boundary handling.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindPermission
	KindNotFound
	KindTransient
	KindPermanentService
	KindUnreachable
)

// KindOf returns the first known category found in the error chain.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrPermission):
		return KindPermission
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrUnreachable):
		return KindUnreachable
	case errors.Is(err, ErrPermanentService):
		return KindPermanentService
	case errors.Is(err, ErrTransient):
		return KindTransient
	default:
		return KindUnknown
	}
}

// IsTransient reports whether the error is worth retrying.
func IsTransient(err error) bool {
	return KindOf(err) == KindTransient
}
