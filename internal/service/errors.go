package service

import "errors"

// Domain errors returned by the identity resolver and the account service.
// The transport layer maps each of them to exactly one response; anything
// else reaching it is an internal failure.
var (
	ErrNotFound               = errors.New("user not found")
	ErrDuplicateUsername      = errors.New("a user with this username already exists")
	ErrIncorrectCredentials   = errors.New("incorrect username or password")
	ErrInactiveAccount        = errors.New("inactive user")
	ErrInvalidIdentifier      = errors.New("invalid account identifier")
	ErrSecurityAnswerMismatch = errors.New("security answer does not match")
	ErrInvalidTargetAccount   = errors.New("can only update the authenticated account")
	ErrUpdateConflict         = errors.New("account was not updated")
)
