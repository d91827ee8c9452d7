package repositories

import "errors"

var (
	// ErrDuplicateUsername is returned when registration collides with an
	// existing identity.
	ErrDuplicateUsername = errors.New("username already exists")

	// ErrNotFound is returned when an update matched zero rows for a record
	// the caller named explicitly.
	ErrNotFound = errors.New("record not found")

	// ErrActionFailed is returned when an approval transition matched zero
	// rows: unknown identity, or the identity's role is not 'registered'
	// (the master account cannot be approved or reverted).
	ErrActionFailed = errors.New("approval action failed")
)
