package domain

import "errors"

// Error kinds. Every concrete domain error unwraps to exactly one of these, so
// callers can classify with errors.Is(err, domain.ErrAuth) and friends.
var (
	ErrAuth        = errors.New("authentication error")
	ErrNotFound    = errors.New("not found")
	ErrValidation  = errors.New("validation error")
	ErrConflict    = errors.New("conflict")
	ErrConsistency = errors.New("consistency error")
)

// Error is a domain error carrying a client-safe message and its kind.
type Error struct {
	msg  string
	kind error
}

func newError(kind error, msg string) *Error {
	return &Error{msg: msg, kind: kind}
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.kind }

var (
	ErrInvalidCredentials = newError(ErrAuth, "invalid username or password")
	ErrNotAuthenticated   = newError(ErrAuth, "not authenticated")

	ErrUserNotFound    = newError(ErrNotFound, "user not found")
	ErrPartnerNotFound = newError(ErrNotFound, "partner not found")

	ErrMissingField = newError(ErrValidation, "username, password and role are required")
	ErrInvalidRole  = newError(ErrValidation, "role must be boyfriend or girlfriend")
	ErrSelfLink     = newError(ErrValidation, "cannot link to yourself")

	ErrPasswordTooLong = newError(ErrValidation, "password must be at most 72 bytes")

	ErrUserExists    = newError(ErrConflict, "user already exists")
	ErrAlreadyLinked = newError(ErrConflict, "you are already linked to a partner")
	ErrPartnerTaken  = newError(ErrConflict, "partner is already linked to someone else")
	ErrNotLinked     = newError(ErrConflict, "you are not linked to a partner")
	ErrLinkConflict  = newError(ErrConflict, "partner link changed concurrently, retry")

	ErrAsymmetricLink = newError(ErrConsistency, "partner link is not mutual")
)
