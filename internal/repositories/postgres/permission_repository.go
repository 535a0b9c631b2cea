package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/asakaida/monban/internal/entities"
	"github.com/asakaida/monban/internal/repositories"
)

// PostgresPermissionRepository implements PermissionRepository using PostgreSQL
type PostgresPermissionRepository struct {
	db *sql.DB
}

// NewPostgresPermissionRepository creates a new PostgreSQL permission repository
func NewPostgresPermissionRepository(db *sql.DB) repositories.PermissionRepository {
	return &PostgresPermissionRepository{db: db}
}

// CreateBatch persists all permission rows in a single transaction, in slice order.
// If any insert fails the transaction rolls back and no grants remain committed.
func (r *PostgresPermissionRepository) CreateBatch(ctx context.Context, permissions []*entities.Permission) error {
	if len(permissions) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storeError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO permissions (role_label, http_verb, url, email, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return storeError("failed to prepare statement", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, permission := range permissions {
		if err := permission.Validate(); err != nil {
			return fmt.Errorf("invalid permission: %w", err)
		}

		err := stmt.QueryRowContext(ctx,
			permission.RoleLabel, permission.HTTPVerb, permission.URL,
			permission.Email, permission.UserID, now,
		).Scan(&permission.ID)
		if err != nil {
			return storeError("failed to write permission", err)
		}
		permission.CreatedAt = now
	}

	if err := tx.Commit(); err != nil {
		return storeError("failed to commit transaction", err)
	}

	return nil
}

// GetGrantsByEmail retrieves the (http verb, url) pairs belonging to the
// given owner email. Only the projection columns are selected; hashes,
// role labels and internal IDs never travel through this path.
func (r *PostgresPermissionRepository) GetGrantsByEmail(ctx context.Context, email string) ([]entities.Grant, error) {
	query := `
		SELECT http_verb, url
		FROM permissions
		WHERE email = $1
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, email)
	if err != nil {
		return nil, storeError("failed to query grants", err)
	}
	defer rows.Close()

	grants := []entities.Grant{}
	for rows.Next() {
		var grant entities.Grant
		if err := rows.Scan(&grant.HTTPVerb, &grant.URL); err != nil {
			return nil, storeError("failed to scan grant", err)
		}
		grants = append(grants, grant)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("failed to read grants", err)
	}

	return grants, nil
}
