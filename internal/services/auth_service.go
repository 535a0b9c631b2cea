package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/asakaida/monban/internal/entities"
	"github.com/asakaida/monban/internal/repositories"
)

// PasswordHasher is the one-way hashing capability consumed by the
// auth flows. The hash output format is opaque to this package.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password string, encoded string) (bool, error)
}

// TokenIssuer signs a compact claims payload with an expiry.
type TokenIssuer interface {
	Issue(userID int64, email string, ttl time.Duration) (string, error)
}

// SignupRequest carries the fields needed to register an account.
type SignupRequest struct {
	Email     string
	Password  string
	Role      string
	FirstName string
	LastName  string
}

// SigninRequest carries login credentials.
// Extended selects the longer-lived token variant.
type SigninRequest struct {
	Email    string
	Password string
	Extended bool
}

// SignupResult is the signup response: a signed bearer token, the
// sanitized account, and the freshly provisioned permission set in
// its write-path shape (requestMethod/requestUrl keys).
type SignupResult struct {
	Token string                      `json:"token"`
	User  entities.SanitizedUser      `json:"user"`
	Perms []entities.ProvisionedGrant `json:"permissions"`
}

// AuthResult is the signin response: a signed bearer token, the
// sanitized account, and the account's resolved grants.
type AuthResult struct {
	Token string                 `json:"token"`
	User  entities.SanitizedUser `json:"user"`
	Perms []entities.Grant       `json:"permissions"`
}

// AuthService composes hashing, persistence, provisioning, resolution
// and token signing into the two public flows, signup and signin.
type AuthService struct {
	users       repositories.UserRepository
	hasher      PasswordHasher
	issuer      TokenIssuer
	provisioner *Provisioner
	resolver    *Resolver
	accessTTL   time.Duration
	extendedTTL time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	users repositories.UserRepository,
	hasher PasswordHasher,
	issuer TokenIssuer,
	provisioner *Provisioner,
	resolver *Resolver,
	accessTTL time.Duration,
	extendedTTL time.Duration,
) *AuthService {
	return &AuthService{
		users:       users,
		hasher:      hasher,
		issuer:      issuer,
		provisioner: provisioner,
		resolver:    resolver,
		accessTTL:   accessTTL,
		extendedTTL: extendedTTL,
	}
}

// Signup registers a new account: hash the password, persist the user,
// provision the role's permission rows, and issue a token.
//
// Signup is all or nothing. The role is validated before any write, so
// an unknown role never creates a row. If provisioning fails after the
// user row was committed (a store failure mid-flow), the row is
// deleted again so no account can exist in an undefined authorization
// state.
func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (*SignupResult, error) {
	role, err := entities.ParseRole(req.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, req.Role)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entities.User{
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// ErrDuplicateEmail passes through untouched
		return nil, err
	}

	grants, err := s.provisioner.Provision(ctx, user)
	if err != nil {
		if delErr := s.users.Delete(ctx, user.ID); delErr != nil {
			return nil, fmt.Errorf("provisioning failed: %w (user cleanup also failed: %v)", err, delErr)
		}
		return nil, err
	}
	s.resolver.Invalidate(ctx, user.Email)

	token, err := s.issuer.Issue(user.ID, user.Email, s.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	provisioned := make([]entities.ProvisionedGrant, len(grants))
	for i, grant := range grants {
		provisioned[i] = grant.Provisioned()
	}

	return &SignupResult{
		Token: token,
		User:  user.Sanitized(),
		Perms: provisioned,
	}, nil
}

// Signin verifies credentials and returns a token plus the account's
// resolved grants. An unregistered email and a wrong password both
// fail with ErrInvalidCredentials so the response cannot be used to
// probe which emails are registered.
func (s *AuthService) Signin(ctx context.Context, req SigninRequest) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := s.hasher.Verify(req.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	grants, err := s.resolver.Resolve(ctx, user.Email)
	if err != nil {
		return nil, err
	}

	ttl := s.accessTTL
	if req.Extended {
		ttl = s.extendedTTL
	}
	token, err := s.issuer.Issue(user.ID, user.Email, ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &AuthResult{
		Token: token,
		User:  user.Sanitized(),
		Perms: grants,
	}, nil
}

// IssueToken signs a token for an already-authenticated subject with
// an explicit lifetime. Both TTL policies in use (the 15 minute
// default and the 30 minute extended session) go through here.
func (s *AuthService) IssueToken(userID int64, email string, ttl time.Duration) (string, error) {
	return s.issuer.Issue(userID, email, ttl)
}
