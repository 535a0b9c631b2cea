package repositories

import (
	"context"

	"github.com/asakaida/monban/internal/entities"
)

// UserRepository defines the interface for user credential data access
type UserRepository interface {
	// Create persists a new user and fills in the assigned ID and timestamps.
	// Returns ErrDuplicateEmail if the email is already registered.
	Create(ctx context.Context, user *entities.User) error

	// GetByEmail retrieves a user by email.
	// Returns ErrUserNotFound if no user matches.
	GetByEmail(ctx context.Context, email string) (*entities.User, error)

	// Delete removes a user row by ID.
	// Permissions referencing the user are removed by the FK cascade.
	Delete(ctx context.Context, id int64) error
}
