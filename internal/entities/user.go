package entities

import (
	"fmt"
	"strings"
	"time"
)

// Role is the closed set of account privilege levels.
// Any value outside this set is rejected at signup.
type Role string

const (
	// RoleUser is a regular account with read-only access.
	RoleUser Role = "USER"
	// RoleAdmin can additionally update resources.
	RoleAdmin Role = "ADMIN"
	// RoleSuper has the full set of grants including create and delete.
	RoleSuper Role = "SUPER"
)

// ParseRole converts a string into a Role.
// Returns an error for anything outside the closed set.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleSuper:
		return RoleSuper, nil
	default:
		return "", fmt.Errorf("unknown role: %q", s)
	}
}

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuper:
		return true
	}
	return false
}

// User represents a registered account.
// Email is the unique identity and is immutable after creation.
// PasswordHash is the argon2id encoded hash, never the plaintext.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Role         Role
	FirstName    string
	LastName     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Validate checks if the user is valid for persistence.
func (u *User) Validate() error {
	if u.Email == "" {
		return fmt.Errorf("email is required")
	}
	if u.PasswordHash == "" {
		return fmt.Errorf("password hash is required")
	}
	if !u.Role.Valid() {
		return fmt.Errorf("unknown role: %q", u.Role)
	}
	return nil
}

// SanitizedUser is the response projection of a User.
// It is constructed explicitly so the password hash can never leak
// into a response by accident.
type SanitizedUser struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// Sanitized returns the response projection of the user.
func (u *User) Sanitized() SanitizedUser {
	return SanitizedUser{
		ID:        u.ID,
		Email:     u.Email,
		Role:      u.Role,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}
