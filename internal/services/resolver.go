package services

import (
	"context"
	"fmt"
	"time"

	"github.com/asakaida/monban/internal/entities"
	"github.com/asakaida/monban/internal/repositories"
	"github.com/asakaida/monban/pkg/cache"
)

// Resolver retrieves the already-provisioned grants belonging to a
// user. It runs on the signin path, after the caller has been
// authenticated, so an empty result is a valid state (the caller then
// denies all protected actions), not an error.
type Resolver struct {
	permissions repositories.PermissionRepository
	cache       cache.Cache // Optional cache for grant lookups
	cacheTTL    time.Duration
}

// NewResolver creates a new Resolver.
// c may be nil, in which case every lookup goes to the store.
func NewResolver(permissions repositories.PermissionRepository, c cache.Cache, cacheTTL time.Duration) *Resolver {
	return &Resolver{
		permissions: permissions,
		cache:       c,
		cacheTTL:    cacheTTL,
	}
}

// Resolve returns the grants owned by the given email.
// Grants never change after provisioning, so cached results can only
// go stale when an account is created between lookups; Invalidate
// covers that case.
func (r *Resolver) Resolve(ctx context.Context, email string) ([]entities.Grant, error) {
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}

	key := grantCacheKey(email)
	if r.cache != nil {
		if cached, found := r.cache.Get(ctx, key); found {
			if grants, ok := cached.([]entities.Grant); ok {
				return cloneGrants(grants), nil
			}
		}
	}

	grants, err := r.permissions.GetGrantsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve grants: %w", err)
	}

	if r.cache != nil {
		_ = r.cache.Set(ctx, key, grants, r.cacheTTL)
		// The cached slice is shared between lookups; hand callers a
		// copy so they cannot mutate it
		return cloneGrants(grants), nil
	}
	return grants, nil
}

func cloneGrants(grants []entities.Grant) []entities.Grant {
	out := make([]entities.Grant, len(grants))
	copy(out, grants)
	return out
}

// Invalidate drops the cached grants for an email, if any.
func (r *Resolver) Invalidate(ctx context.Context, email string) {
	if r.cache != nil {
		_ = r.cache.Delete(ctx, grantCacheKey(email))
	}
}

func grantCacheKey(email string) string {
	return "grants:" + email
}
