// Package main is the entry point for the QuestMeraki API server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"questmeraki/internal/cache"
	"questmeraki/internal/config"
	"questmeraki/internal/database"
	"questmeraki/internal/handlers"
	"questmeraki/internal/messaging"
	"questmeraki/internal/router"
	"questmeraki/internal/storage"
	"questmeraki/internal/store"
	"questmeraki/internal/token"
)

func main() {
	// Structured logger — outputs text with debug level; production
	// deployments filter at the collector.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey (Redis-compatible listing cache).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	listings := cache.NewListingCache(valkeyClient, cache.DefaultListingTTL)

	// Initialize data stores.
	userStore := store.NewUserStore(db)
	blogStore := store.NewBlogStore(db)

	// Connect to S3-compatible object storage (optional — the API runs
	// without it, but post creation is disabled).
	var storageClient *storage.Client
	if cfg.StorageConfigured() {
		storageClient, err = storage.New(
			cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey,
			cfg.S3Bucket, cfg.S3PublicURL,
		)
		if err != nil {
			slog.Error("failed to initialize S3 storage", "error", err)
			os.Exit(1)
		}
		slog.Info("s3 storage connected",
			"endpoint", cfg.S3Endpoint,
			"bucket", cfg.S3Bucket,
		)
	} else {
		slog.Warn("s3 storage not configured — post images disabled")
	}

	// Connect to NATS for moderation events (optional).
	events, err := messaging.Connect(cfg.NATSURL)
	if err != nil {
		slog.Error("failed to connect to nats", "error", err)
		os.Exit(1)
	}
	defer events.Close()
	if events == nil {
		slog.Warn("nats not configured — lifecycle events disabled")
	}

	// Bearer token issuer for API authentication.
	issuer := token.NewIssuer(cfg.JWTSecret, token.DefaultTTL)

	// Create handler groups with their dependencies.
	authHandlers := handlers.NewAuth(userStore, issuer)
	blogHandlers := handlers.NewBlogs(blogStore, storageClient, listings, events)
	adminHandlers := handlers.NewAdmin(blogStore, userStore, listings, events)

	// Set up the Chi router with all middleware and routes.
	r := router.New(issuer, userStore, authHandlers, blogHandlers, adminHandlers, cfg.CORSOrigins)

	// Create the HTTP server with sensible timeouts. WriteTimeout covers
	// image uploads to object storage.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
