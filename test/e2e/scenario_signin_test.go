package e2e

import (
	"net/http"
	"testing"
	"time"

	"github.com/asakaida/monban/internal/services"
)

// Scenario: a registered account signs in, gets the same grants it
// was provisioned with, and the token lifetime follows the extended
// flag.
func TestScenario_SigninFlow(t *testing.T) {
	ts := SetupE2ETest(t)

	signup := map[string]interface{}{
		"email":    "admin@example.com",
		"password": "long-enough-password",
		"role":     "ADMIN",
	}
	if status := ts.PostJSON(t, "/auth/signup", signup, nil); status != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d", status)
	}

	t.Run("grants survive the round trip", func(t *testing.T) {
		var result services.AuthResult
		status := ts.PostJSON(t, "/auth/signin", map[string]interface{}{
			"email":    "admin@example.com",
			"password": "long-enough-password",
		}, &result)
		if status != http.StatusOK {
			t.Fatalf("expected 200, got %d", status)
		}
		if len(result.Perms) != 2 {
			t.Fatalf("expected 2 grants for ADMIN, got %d", len(result.Perms))
		}
		if result.User.Email != "admin@example.com" || result.User.Role != "ADMIN" {
			t.Errorf("unexpected user: %+v", result.User)
		}
	})

	t.Run("extended signin issues a longer-lived token", func(t *testing.T) {
		var normal, extended services.AuthResult
		if status := ts.PostJSON(t, "/auth/signin", map[string]interface{}{
			"email":    "admin@example.com",
			"password": "long-enough-password",
		}, &normal); status != http.StatusOK {
			t.Fatalf("signin: expected 200, got %d", status)
		}
		if status := ts.PostJSON(t, "/auth/signin", map[string]interface{}{
			"email":    "admin@example.com",
			"password": "long-enough-password",
			"extended": true,
		}, &extended); status != http.StatusOK {
			t.Fatalf("extended signin: expected 200, got %d", status)
		}

		normalClaims, err := ts.Issuer.Parse(normal.Token)
		if err != nil {
			t.Fatalf("failed to parse token: %v", err)
		}
		extendedClaims, err := ts.Issuer.Parse(extended.Token)
		if err != nil {
			t.Fatalf("failed to parse extended token: %v", err)
		}

		gap := extendedClaims.ExpiresAt.Time.Sub(normalClaims.ExpiresAt.Time)
		if gap < 10*time.Minute {
			t.Errorf("expected extended token to live noticeably longer, gap was %v", gap)
		}
	})

	t.Run("wrong password and unknown email are both forbidden", func(t *testing.T) {
		wrong := ts.PostJSON(t, "/auth/signin", map[string]interface{}{
			"email":    "admin@example.com",
			"password": "not-the-password",
		}, nil)
		unknown := ts.PostJSON(t, "/auth/signin", map[string]interface{}{
			"email":    "nobody@example.com",
			"password": "long-enough-password",
		}, nil)
		if wrong != http.StatusForbidden || unknown != http.StatusForbidden {
			t.Errorf("expected 403/403, got %d/%d", wrong, unknown)
		}
	})
}
