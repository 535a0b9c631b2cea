package entities

import (
	"fmt"
	"time"
)

// Permission represents one persisted grant of an (http verb, url)
// pair to a user. Rows are created in bulk at signup and never
// updated afterwards.
//
// RoleLabel is intentionally a free-form string ("user", "admin",
// "super-admin") mirroring the role at provisioning time, not the
// Role enum: the label is descriptive data on the grant, not the
// account's privilege level.
type Permission struct {
	ID        int64
	RoleLabel string
	HTTPVerb  string
	URL       string
	Email     string // denormalized owner email, used for lookup
	UserID    int64  // back-reference to the owning user row
	CreatedAt time.Time
}

// Validate checks if the permission is valid for persistence.
func (p *Permission) Validate() error {
	if p.RoleLabel == "" {
		return fmt.Errorf("role label is required")
	}
	if p.HTTPVerb == "" {
		return fmt.Errorf("http verb is required")
	}
	if p.URL == "" {
		return fmt.Errorf("url is required")
	}
	if p.Email == "" {
		return fmt.Errorf("email is required")
	}
	if p.UserID == 0 {
		return fmt.Errorf("user ID is required")
	}
	return nil
}

// Grant is the (http verb, url) projection of a Permission, as
// returned by the signin path when resolving a user's permission set.
type Grant struct {
	HTTPVerb string `json:"httpVerb"`
	URL      string `json:"url"`
}

// Grant returns the projection of this permission.
func (p *Permission) Grant() Grant {
	return Grant{HTTPVerb: p.HTTPVerb, URL: p.URL}
}

// ProvisionedGrant is the write-path projection of a Grant: the shape
// the signup response uses for the freshly provisioned permission
// set. Same data as Grant, different wire keys — the two paths have
// always named the fields differently and clients depend on both.
type ProvisionedGrant struct {
	RequestMethod string `json:"requestMethod"`
	RequestURL    string `json:"requestUrl"`
}

// Provisioned returns the write-path projection of the grant.
func (g Grant) Provisioned() ProvisionedGrant {
	return ProvisionedGrant{RequestMethod: g.HTTPVerb, RequestURL: g.URL}
}
