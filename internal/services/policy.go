package services

import (
	"fmt"

	"github.com/asakaida/monban/internal/entities"
)

// The fixed resource paths covered by the permission scheme.
// Every grant ever provisioned points at one of these four URLs.
const (
	GetURL    = "/get/sample"
	PostURL   = "/create/sample"
	PutURL    = "/update/sample"
	DeleteURL = "/delete/sample"
)

// GrantSpec describes one grant a role is entitled to: the role label
// recorded on the permission row plus the (http verb, url) pair.
type GrantSpec struct {
	RoleLabel string
	HTTPVerb  string
	URL       string
}

// rolePolicy is the static role policy table. Grant sets are strict
// supersets as privilege increases: USER ⊂ ADMIN ⊂ SUPER for the
// get/put grants, and SUPER additionally gets post and delete.
// Order matters: rows are provisioned in exactly this order.
var rolePolicy = map[entities.Role][]GrantSpec{
	entities.RoleUser: {
		{RoleLabel: "user", HTTPVerb: "get", URL: GetURL},
	},
	entities.RoleAdmin: {
		{RoleLabel: "admin", HTTPVerb: "get", URL: GetURL},
		{RoleLabel: "admin", HTTPVerb: "put", URL: PutURL},
	},
	entities.RoleSuper: {
		{RoleLabel: "super-admin", HTTPVerb: "get", URL: GetURL},
		{RoleLabel: "super-admin", HTTPVerb: "put", URL: PutURL},
		{RoleLabel: "super-admin", HTTPVerb: "post", URL: PostURL},
		{RoleLabel: "super-admin", HTTPVerb: "delete", URL: DeleteURL},
	},
}

// GrantsFor returns the ordered grant list for a role.
// It is a pure lookup: same input, same output, no side effects.
// An unknown role is an error, not an empty list — "no permissions"
// and "bad input" are different conditions and callers need to tell
// them apart.
func GrantsFor(role entities.Role) ([]GrantSpec, error) {
	specs, ok := rolePolicy[role]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}

	// Return a copy so callers cannot mutate the policy table
	out := make([]GrantSpec, len(specs))
	copy(out, specs)
	return out, nil
}
