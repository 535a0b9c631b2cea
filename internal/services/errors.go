package services

import "errors"

var (
	// ErrUnknownRole is returned when a signup carries a role outside
	// the closed USER/ADMIN/SUPER set. It aborts the whole signup: an
	// account with no valid permission set must not exist.
	ErrUnknownRole = errors.New("unknown role")

	// ErrInvalidCredentials covers both an unregistered email and a
	// wrong password. The two cases are deliberately indistinguishable
	// so responses cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
