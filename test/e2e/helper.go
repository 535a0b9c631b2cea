package e2e

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/asakaida/monban/internal/handlers"
	"github.com/asakaida/monban/internal/infrastructure/config"
	"github.com/asakaida/monban/internal/infrastructure/database"
	"github.com/asakaida/monban/internal/infrastructure/token"
	"github.com/asakaida/monban/internal/repositories/postgres"
	"github.com/asakaida/monban/internal/services"
	"github.com/asakaida/monban/pkg/cache/memorycache"
	"github.com/asakaida/monban/pkg/passhash"
)

// E2ETestServer runs the full HTTP stack against the test database.
type E2ETestServer struct {
	Server *httptest.Server
	Issuer *token.Issuer
	DB     *sql.DB
}

// SetupE2ETest sets up an end-to-end test environment.
// Skips the test when the test database is not reachable.
func SetupE2ETest(t *testing.T) *E2ETestServer {
	t.Helper()

	if err := config.InitConfig("test"); err != nil {
		t.Skipf("skipping e2e test: config unavailable: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		t.Skipf("skipping e2e test: config unavailable: %v", err)
	}

	pg, err := database.NewPostgres(&cfg.Database)
	if err != nil {
		t.Skipf("skipping e2e test: database unavailable: %v", err)
	}

	projectRoot, err := findProjectRoot()
	if err != nil {
		t.Fatalf("failed to find project root: %v", err)
	}
	migrationsPath := projectRoot + "/internal/infrastructure/database/migrations/postgres"
	if err := pg.RunMigrations(migrationsPath); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	cleanupDatabase(t, pg.DB)

	userRepo := postgres.NewPostgresUserRepository(pg.DB)
	permissionRepo := postgres.NewPostgresPermissionRepository(pg.DB)

	hasher, err := passhash.New(passhash.DefaultParams())
	if err != nil {
		t.Fatalf("failed to create hasher: %v", err)
	}
	issuer, err := token.NewIssuer(cfg.Auth.JWTSecret)
	if err != nil {
		t.Fatalf("failed to create token issuer: %v", err)
	}

	grantCache, err := memorycache.New(&memorycache.Config{
		MaxEntries: 128,
		DefaultTTL: time.Minute,
	})
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}

	authService := services.NewAuthService(
		userRepo,
		hasher,
		issuer,
		services.NewProvisioner(permissionRepo),
		services.NewResolver(permissionRepo, grantCache, time.Minute),
		cfg.Auth.AccessTTL,
		cfg.Auth.ExtendedTTL,
	)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	authHandler := handlers.NewAuthHandler(logger, authService, nil, nil)

	r := chi.NewRouter()
	authHandler.MountRoutes(r)
	server := httptest.NewServer(r)

	t.Cleanup(func() {
		server.Close()
		grantCache.Close()
		pg.Close()
	})

	return &E2ETestServer{
		Server: server,
		Issuer: issuer,
		DB:     pg.DB,
	}
}

// PostJSON posts a JSON body to a path on the test server and decodes
// the response into out (if out is non-nil).
func (s *E2ETestServer) PostJSON(t *testing.T, path string, body interface{}, out interface{}) int {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}

	resp, err := http.Post(s.Server.URL+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			t.Fatalf("failed to decode response: %v", err)
		}
	}
	return resp.StatusCode
}

func cleanupDatabase(t *testing.T, db *sql.DB) {
	t.Helper()
	// permissions first (FK to users)
	for _, table := range []string{"permissions", "users"} {
		if _, err := db.Exec("DELETE FROM " + table); err != nil {
			t.Fatalf("failed to clean up table %s: %v", table, err)
		}
	}
}

func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found in any parent directory")
		}
		dir = parent
	}
}
