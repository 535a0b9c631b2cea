package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/asakaida/monban/internal/repositories"
)

func newTestAuthService(users *mockUserRepository, permissions *mockPermissionRepository, issuer *mockIssuer) *AuthService {
	return NewAuthService(
		users,
		&mockHasher{},
		issuer,
		NewProvisioner(permissions),
		NewResolver(permissions, nil, 0),
		15*time.Minute,
		30*time.Minute,
	)
}

func TestAuthService_Signup(t *testing.T) {
	ctx := context.Background()

	t.Run("USER signup returns token, sanitized user and one grant", func(t *testing.T) {
		users := newMockUserRepository()
		permissions := newMockPermissionRepository()
		issuer := &mockIssuer{}
		service := newTestAuthService(users, permissions, issuer)

		result, err := service.Signup(ctx, SignupRequest{
			Email:     "alice@example.com",
			Password:  "s3cret",
			Role:      "USER",
			FirstName: "Alice",
			LastName:  "Example",
		})
		if err != nil {
			t.Fatalf("Signup failed: %v", err)
		}
		if result.Token != "token-for-alice@example.com" {
			t.Errorf("unexpected token: %q", result.Token)
		}
		if result.User.Email != "alice@example.com" || result.User.Role != "USER" {
			t.Errorf("unexpected user: %+v", result.User)
		}
		if result.User.ID == 0 {
			t.Error("expected assigned user ID")
		}
		if len(result.Perms) != 1 {
			t.Fatalf("expected 1 grant for USER, got %d", len(result.Perms))
		}
		if result.Perms[0].RequestMethod != "get" || result.Perms[0].RequestURL != GetURL {
			t.Errorf("unexpected grant: %+v", result.Perms[0])
		}
		if issuer.lastTTL != 15*time.Minute {
			t.Errorf("expected 15m token TTL on signup, got %v", issuer.lastTTL)
		}
	})

	t.Run("SUPER signup provisions four grants", func(t *testing.T) {
		users := newMockUserRepository()
		permissions := newMockPermissionRepository()
		service := newTestAuthService(users, permissions, &mockIssuer{})

		result, err := service.Signup(ctx, SignupRequest{
			Email:    "root@example.com",
			Password: "s3cret",
			Role:     "SUPER",
		})
		if err != nil {
			t.Fatalf("Signup failed: %v", err)
		}
		if len(result.Perms) != 4 {
			t.Fatalf("expected 4 grants for SUPER, got %d", len(result.Perms))
		}
		if len(permissions.rows) != 4 {
			t.Fatalf("expected 4 persisted rows, got %d", len(permissions.rows))
		}
	})

	t.Run("role is accepted case-insensitively", func(t *testing.T) {
		users := newMockUserRepository()
		service := newTestAuthService(users, newMockPermissionRepository(), &mockIssuer{})

		result, err := service.Signup(ctx, SignupRequest{
			Email:    "alice@example.com",
			Password: "s3cret",
			Role:     "admin",
		})
		if err != nil {
			t.Fatalf("Signup failed: %v", err)
		}
		if result.User.Role != "ADMIN" {
			t.Errorf("expected normalized role ADMIN, got %q", result.User.Role)
		}
	})

	t.Run("unknown role writes nothing", func(t *testing.T) {
		users := newMockUserRepository()
		permissions := newMockPermissionRepository()
		service := newTestAuthService(users, permissions, &mockIssuer{})

		_, err := service.Signup(ctx, SignupRequest{
			Email:    "bob@example.com",
			Password: "s3cret",
			Role:     "MODERATOR",
		})
		if !errors.Is(err, ErrUnknownRole) {
			t.Fatalf("expected ErrUnknownRole, got %v", err)
		}
		if len(users.users) != 0 {
			t.Error("expected no user row for unknown role")
		}
		if len(permissions.rows) != 0 {
			t.Error("expected no permission rows for unknown role")
		}
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		users := newMockUserRepository()
		service := newTestAuthService(users, newMockPermissionRepository(), &mockIssuer{})

		req := SignupRequest{Email: "alice@example.com", Password: "s3cret", Role: "USER"}
		if _, err := service.Signup(ctx, req); err != nil {
			t.Fatalf("first Signup failed: %v", err)
		}
		_, err := service.Signup(ctx, req)
		if !errors.Is(err, repositories.ErrDuplicateEmail) {
			t.Fatalf("expected ErrDuplicateEmail, got %v", err)
		}
	})

	t.Run("provisioning failure removes the user row again", func(t *testing.T) {
		users := newMockUserRepository()
		permissions := newMockPermissionRepository()
		permissions.createErr = errors.New("connection reset")
		service := newTestAuthService(users, permissions, &mockIssuer{})

		_, err := service.Signup(ctx, SignupRequest{
			Email:    "alice@example.com",
			Password: "s3cret",
			Role:     "USER",
		})
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if len(users.users) != 0 {
			t.Error("expected user row to be cleaned up after provisioning failure")
		}
		if len(users.deleted) != 1 {
			t.Errorf("expected 1 compensating delete, got %d", len(users.deleted))
		}
	})

	t.Run("result never carries the password hash", func(t *testing.T) {
		users := newMockUserRepository()
		service := newTestAuthService(users, newMockPermissionRepository(), &mockIssuer{})

		result, err := service.Signup(ctx, SignupRequest{
			Email:    "alice@example.com",
			Password: "s3cret",
			Role:     "USER",
		})
		if err != nil {
			t.Fatalf("Signup failed: %v", err)
		}
		// SanitizedUser has no hash field at all; check the stored row kept it
		if users.users["alice@example.com"].PasswordHash == "" {
			t.Error("expected password hash to be persisted")
		}
		if result.User.Email == "" {
			t.Error("expected sanitized user to be populated")
		}
	})
}

func TestAuthService_GrantWireShapes(t *testing.T) {
	ctx := context.Background()
	users := newMockUserRepository()
	service := newTestAuthService(users, newMockPermissionRepository(), &mockIssuer{})

	signupResult, err := service.Signup(ctx, SignupRequest{
		Email:    "alice@example.com",
		Password: "s3cret",
		Role:     "USER",
	})
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	signinResult, err := service.Signin(ctx, SigninRequest{
		Email:    "alice@example.com",
		Password: "s3cret",
	})
	if err != nil {
		t.Fatalf("Signin failed: %v", err)
	}

	// Signup reports the freshly provisioned set with the write-path
	// keys; signin reports the resolved set with the read-path keys.
	signupJSON, err := json.Marshal(signupResult.Perms)
	if err != nil {
		t.Fatalf("failed to marshal signup grants: %v", err)
	}
	signinJSON, err := json.Marshal(signinResult.Perms)
	if err != nil {
		t.Fatalf("failed to marshal signin grants: %v", err)
	}

	for _, key := range []string{"requestMethod", "requestUrl"} {
		if !strings.Contains(string(signupJSON), `"`+key+`"`) {
			t.Errorf("signup grants missing key %q: %s", key, signupJSON)
		}
		if strings.Contains(string(signinJSON), `"`+key+`"`) {
			t.Errorf("signin grants must not carry key %q: %s", key, signinJSON)
		}
	}
	for _, key := range []string{"httpVerb", "url"} {
		if !strings.Contains(string(signinJSON), `"`+key+`"`) {
			t.Errorf("signin grants missing key %q: %s", key, signinJSON)
		}
	}
}

func TestAuthService_Signin(t *testing.T) {
	ctx := context.Background()

	signup := func(t *testing.T, service *AuthService, email, password, role string) {
		t.Helper()
		if _, err := service.Signup(ctx, SignupRequest{Email: email, Password: password, Role: role}); err != nil {
			t.Fatalf("Signup failed: %v", err)
		}
	}

	t.Run("signin after signup returns the same grants", func(t *testing.T) {
		users := newMockUserRepository()
		permissions := newMockPermissionRepository()
		issuer := &mockIssuer{}
		service := newTestAuthService(users, permissions, issuer)
		signup(t, service, "admin@example.com", "s3cret", "ADMIN")

		result, err := service.Signin(ctx, SigninRequest{
			Email:    "admin@example.com",
			Password: "s3cret",
		})
		if err != nil {
			t.Fatalf("Signin failed: %v", err)
		}
		if len(result.Perms) != 2 {
			t.Fatalf("expected 2 grants for ADMIN, got %d", len(result.Perms))
		}
		if result.User.Email != "admin@example.com" {
			t.Errorf("unexpected user: %+v", result.User)
		}
		if issuer.lastTTL != 15*time.Minute {
			t.Errorf("expected 15m TTL for default signin, got %v", issuer.lastTTL)
		}
	})

	t.Run("extended signin uses the 30 minute TTL", func(t *testing.T) {
		users := newMockUserRepository()
		issuer := &mockIssuer{}
		service := newTestAuthService(users, newMockPermissionRepository(), issuer)
		signup(t, service, "alice@example.com", "s3cret", "USER")

		if _, err := service.Signin(ctx, SigninRequest{
			Email:    "alice@example.com",
			Password: "s3cret",
			Extended: true,
		}); err != nil {
			t.Fatalf("Signin failed: %v", err)
		}
		if issuer.lastTTL != 30*time.Minute {
			t.Errorf("expected 30m TTL for extended signin, got %v", issuer.lastTTL)
		}
	})

	t.Run("unknown email and wrong password are indistinguishable", func(t *testing.T) {
		users := newMockUserRepository()
		service := newTestAuthService(users, newMockPermissionRepository(), &mockIssuer{})
		signup(t, service, "alice@example.com", "s3cret", "USER")

		_, unknownErr := service.Signin(ctx, SigninRequest{
			Email:    "nobody@example.com",
			Password: "s3cret",
		})
		_, wrongErr := service.Signin(ctx, SigninRequest{
			Email:    "alice@example.com",
			Password: "wrong",
		})
		if !errors.Is(unknownErr, ErrInvalidCredentials) {
			t.Errorf("unknown email: expected ErrInvalidCredentials, got %v", unknownErr)
		}
		if !errors.Is(wrongErr, ErrInvalidCredentials) {
			t.Errorf("wrong password: expected ErrInvalidCredentials, got %v", wrongErr)
		}
		if unknownErr == nil || wrongErr == nil || unknownErr.Error() != wrongErr.Error() {
			t.Errorf("expected identical errors, got %v / %v", unknownErr, wrongErr)
		}
	})

	t.Run("store failure is not masked as bad credentials", func(t *testing.T) {
		users := newMockUserRepository()
		users.getErr = repositories.ErrStoreUnavailable
		service := newTestAuthService(users, newMockPermissionRepository(), &mockIssuer{})

		_, err := service.Signin(ctx, SigninRequest{Email: "alice@example.com", Password: "s3cret"})
		if !errors.Is(err, repositories.ErrStoreUnavailable) {
			t.Fatalf("expected ErrStoreUnavailable, got %v", err)
		}
		if errors.Is(err, ErrInvalidCredentials) {
			t.Error("store failure must not look like bad credentials")
		}
	})
}
