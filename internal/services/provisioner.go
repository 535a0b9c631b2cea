package services

import (
	"context"
	"fmt"

	"github.com/asakaida/monban/internal/entities"
	"github.com/asakaida/monban/internal/repositories"
)

// Provisioner materializes a role's grants as permission rows at
// account creation time.
type Provisioner struct {
	permissions repositories.PermissionRepository
}

// NewProvisioner creates a new Provisioner
func NewProvisioner(permissions repositories.PermissionRepository) *Provisioner {
	return &Provisioner{permissions: permissions}
}

// Provision expands the user's role through the policy table, persists
// one permission row per grant, and returns the written grants in
// table order. The repository writes the batch in one transaction, so
// either the full grant set for the role is committed or none of it.
//
// The returned slice doubles as the initial permission set handed back
// to the signup caller, saving a redundant read-back.
func (p *Provisioner) Provision(ctx context.Context, user *entities.User) ([]entities.Grant, error) {
	if user.ID == 0 {
		return nil, fmt.Errorf("user must be persisted before provisioning")
	}
	if user.Email == "" {
		return nil, fmt.Errorf("user email is required")
	}

	specs, err := GrantsFor(user.Role)
	if err != nil {
		return nil, err
	}

	permissions := make([]*entities.Permission, len(specs))
	for i, spec := range specs {
		permissions[i] = &entities.Permission{
			RoleLabel: spec.RoleLabel,
			HTTPVerb:  spec.HTTPVerb,
			URL:       spec.URL,
			Email:     user.Email,
			UserID:    user.ID,
		}
	}

	if err := p.permissions.CreateBatch(ctx, permissions); err != nil {
		return nil, fmt.Errorf("failed to provision permissions: %w", err)
	}

	grants := make([]entities.Grant, len(permissions))
	for i, permission := range permissions {
		grants[i] = permission.Grant()
	}
	return grants, nil
}
