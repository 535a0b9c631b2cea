package repositories

import (
	"context"

	"github.com/asakaida/monban/internal/entities"
)

// PermissionRepository defines the interface for permission grant data access
type PermissionRepository interface {
	// CreateBatch persists all permissions in a single transaction,
	// in slice order, and fills in the assigned IDs.
	// Either every row is committed or none are.
	CreateBatch(ctx context.Context, permissions []*entities.Permission) error

	// GetGrantsByEmail retrieves the (http verb, url) grants belonging
	// to the given owner email. An empty result is not an error.
	GetGrantsByEmail(ctx context.Context, email string) ([]entities.Grant, error)
}
