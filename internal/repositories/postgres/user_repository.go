package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/asakaida/monban/internal/entities"
	"github.com/asakaida/monban/internal/repositories"
)

// uniqueViolation is the PostgreSQL error code for unique constraint violations
const uniqueViolation = "23505"

// PostgresUserRepository implements UserRepository using PostgreSQL
type PostgresUserRepository struct {
	db *sql.DB
}

// NewPostgresUserRepository creates a new PostgreSQL user repository
func NewPostgresUserRepository(db *sql.DB) repositories.UserRepository {
	return &PostgresUserRepository{db: db}
}

// Create persists a new user row and fills in the assigned ID.
// A duplicate email maps to ErrDuplicateEmail: uniqueness is enforced
// by the users_email_key constraint, not by a read-then-write check,
// so two concurrent signups for the same email cannot both succeed.
func (r *PostgresUserRepository) Create(ctx context.Context, user *entities.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("invalid user: %w", err)
	}

	query := `
		INSERT INTO users (email, password_hash, role, first_name, last_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		user.Email, user.PasswordHash, string(user.Role),
		user.FirstName, user.LastName, now, now,
	).Scan(&user.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return repositories.ErrDuplicateEmail
		}
		return storeError("failed to create user", err)
	}

	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

// GetByEmail retrieves a user by email
func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	query := `
		SELECT id, email, password_hash, role, first_name, last_name, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	var user entities.User
	var role string
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &role,
		&user.FirstName, &user.LastName, &user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, repositories.ErrUserNotFound
	}
	if err != nil {
		return nil, storeError("failed to get user", err)
	}

	user.Role = entities.Role(role)
	return &user, nil
}

// Delete removes a user row by ID. Deleting an already absent row is not an error.
func (r *PostgresUserRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM users WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return storeError("failed to delete user", err)
	}
	return nil
}

// storeError wraps a database error. Connection-class failures are
// marked repositories.ErrStoreUnavailable so callers can surface an
// outage without parsing driver details; anything else (constraint or
// data errors) keeps its own identity and surfaces as a plain server
// error, not an outage.
func storeError(msg string, err error) error {
	if isUnavailable(err) {
		return fmt.Errorf("%s: %w: %v", msg, repositories.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// isUnavailable reports whether err indicates the store itself is
// unreachable rather than a problem with the statement.
func isUnavailable(err error) bool {
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// Class 08: connection exception. 57P01..57P03: server
		// shutdown / crash / cannot-connect-now.
		return strings.HasPrefix(string(pqErr.Code), "08") ||
			strings.HasPrefix(string(pqErr.Code), "57P")
	}
	return false
}
