package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/asakaida/monban/internal/handlers"
	"github.com/asakaida/monban/internal/infrastructure/config"
	"github.com/asakaida/monban/internal/infrastructure/database"
	"github.com/asakaida/monban/internal/infrastructure/metrics"
	"github.com/asakaida/monban/internal/infrastructure/token"
	"github.com/asakaida/monban/internal/repositories/postgres"
	"github.com/asakaida/monban/internal/services"
	"github.com/asakaida/monban/pkg/cache"
	"github.com/asakaida/monban/pkg/cache/memorycache"
	"github.com/asakaida/monban/pkg/passhash"
)

const defaultEnv = "dev"

func main() {
	// Get environment from ENV variable or use default
	env := os.Getenv("ENV")
	if env == "" {
		env = defaultEnv
	}

	// Initialize configuration
	if err := config.InitConfig(env); err != nil {
		log.Fatalf("Failed to initialize config: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	pg, err := database.NewPostgres(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pg.Close()

	log.Printf("Connected to database: %s@%s:%d/%s",
		cfg.Database.User,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Database)

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Initialize repositories
	userRepo := postgres.NewPostgresUserRepository(pg.DB)
	permissionRepo := postgres.NewPostgresPermissionRepository(pg.DB)

	// Optional grant cache
	var grantCache cache.Cache
	if cfg.Cache.Enabled {
		grantCache, err = memorycache.New(&memorycache.Config{
			MaxEntries:    cfg.Cache.MaxEntries,
			DefaultTTL:    time.Duration(cfg.Cache.TTLMinutes) * time.Minute,
			EnableMetrics: cfg.Cache.Metrics,
		})
		if err != nil {
			log.Fatalf("Failed to create grant cache: %v", err)
		}
		defer grantCache.Close()
		log.Printf("Grant cache enabled: max %d entries, TTL %dm",
			cfg.Cache.MaxEntries, cfg.Cache.TTLMinutes)
	}

	// Initialize services
	hasher, err := passhash.New(passhash.DefaultParams())
	if err != nil {
		log.Fatalf("Failed to create password hasher: %v", err)
	}
	issuer, err := token.NewIssuer(cfg.Auth.JWTSecret)
	if err != nil {
		log.Fatalf("Failed to create token issuer: %v", err)
	}
	provisioner := services.NewProvisioner(permissionRepo)
	resolver := services.NewResolver(permissionRepo, grantCache,
		time.Duration(cfg.Cache.TTLMinutes)*time.Minute)
	authService := services.NewAuthService(
		userRepo,
		hasher,
		issuer,
		provisioner,
		resolver,
		cfg.Auth.AccessTTL,
		cfg.Auth.ExtendedTTL,
	)

	// Metrics
	collector := metrics.NewCollector()
	if grantCache != nil {
		collector.SetCache(grantCache)
	}
	exporter := metrics.NewPrometheusExporter(collector)

	// Update gauge metrics periodically
	gaugeTicker := time.NewTicker(10 * time.Second)
	defer gaugeTicker.Stop()
	go func() {
		for range gaugeTicker.C {
			exporter.Update()
		}
	}()

	// HTTP router
	authHandler := handlers.NewAuthHandler(logger, authService, collector, exporter)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(metrics.Middleware(collector, exporter))
	r.Use(httprate.LimitByIP(60, time.Minute))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if err := pg.HealthCheck(); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	authHandler.MountRoutes(r)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Separate metrics listener so the Prometheus scrape endpoint is
	// never exposed on the public port
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler:           metricsMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErrors := make(chan error, 2)
	go func() {
		log.Printf("HTTP server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()
	go func() {
		log.Printf("Metrics server listening on %s", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- fmt.Errorf("metrics server error: %w", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	select {
	case err := <-serverErrors:
		log.Fatalf("Server error: %v", err)
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
		log.Println("Initiating graceful shutdown...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("Metrics server shutdown error: %v", err)
		}

		if err := pg.Close(); err != nil {
			log.Printf("Error closing database connection: %v", err)
		}

		log.Println("Shutdown complete")
	}
}
