package repositories

import "errors"

var (
	// ErrDuplicateEmail is returned when a user with the same email already exists.
	// It surfaces the unique constraint violation on users.email.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrUserNotFound is returned when no user row matches the lookup.
	ErrUserNotFound = errors.New("user not found")

	// ErrStoreUnavailable is returned when the database cannot be reached.
	// It is never retried here; callers decide what to do.
	ErrStoreUnavailable = errors.New("store unavailable")
)
