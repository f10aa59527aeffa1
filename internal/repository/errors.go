// Package repository defines the account store and its error types.  The
// sentinel values below are the only failure kinds a store reports besides
// wrapped driver errors; the service layer translates them into domain
// errors.
package repository

import "errors"

// ErrNotFound is returned when a lookup matches no account.
var ErrNotFound = errors.New("not found")

// ErrDuplicateKey is returned when an insert or update would violate the
// unique index on user_name.
var ErrDuplicateKey = errors.New("duplicate key")

// ErrNoRowsAffected is returned when an update or delete matched nothing.
var ErrNoRowsAffected = errors.New("no rows affected")
