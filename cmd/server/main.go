package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/pauljones0/rentacos/internal/ai"
	"github.com/pauljones0/rentacos/internal/alerts"
	"github.com/pauljones0/rentacos/internal/api"
	"github.com/pauljones0/rentacos/internal/blob"
	"github.com/pauljones0/rentacos/internal/browse"
	"github.com/pauljones0/rentacos/internal/config"
	"github.com/pauljones0/rentacos/internal/identity"
	"github.com/pauljones0/rentacos/internal/listing"
	"github.com/pauljones0/rentacos/internal/notifier"
	"github.com/pauljones0/rentacos/internal/override"
	"github.com/pauljones0/rentacos/internal/storage"
	"github.com/pauljones0/rentacos/internal/suggest"
)

// store is what both storage backends provide.
type store interface {
	alerts.ListingFinder
	alerts.SavedSearchStore
	listing.ListingCreator
	api.ListingReader
	Close() error
}

func main() {
	slog.Info("Starting Rent-a-Cos server...")
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to load .env file", "error", err)
	}
	if err := run(); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped.")
}

// run owns every resource so deferred closes complete before main exits.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	ctx := context.Background()
	db, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing %s store: %w", cfg.StoreBackend, err)
	}
	defer db.Close()

	aiClient, err := ai.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		slog.Warn("Failed to initialize Gemini client. Inference disabled.", "error", err)
		aiClient = nil
	}

	var images listing.ImageStore
	if cfg.ImageBucket != "" {
		gcs, err := blob.NewGCS(ctx, cfg.ImageBucket, cfg.GCSEndpoint)
		if err != nil {
			return fmt.Errorf("initializing Cloud Storage client: %w", err)
		}
		defer gcs.Close()
		images = gcs
	}

	catalog := suggest.LoadCatalog(cfg.CatalogPath)
	overrides := override.NewStore(cfg.OverrideTTL)
	reconciler := alerts.New(db, db, alerts.WithConcurrency(cfg.AlertConcurrency))

	srv := api.New(api.Deps{
		Auth:     identity.Verifier{Secret: []byte(cfg.JWTSecret), Issuer: cfg.JWTIssuer, Leeway: 30 * time.Second},
		Browse:   browse.New(db, reconciler, overrides, cfg.BrowseLimit),
		Listings: db,
		Publish:  listing.New(db, images, notifier.New(cfg.DiscordWebhookURL, cfg.SiteURL)),
		Suggest:  suggest.NewService(aiClient, catalog),
		Writer:   aiClient,
		Searches: reconciler,
	})

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGTERM/SIGINT
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
		sig := <-sigCh
		slog.Info("Received signal, shutting down gracefully...", "signal", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown error", "error", err)
		}
	}()

	slog.Info("Listening on port", "port", cfg.Port, "backend", cfg.StoreBackend, "franchises", len(catalog.Franchises))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listening: %w", err)
	}
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (store, error) {
	if cfg.StoreBackend == config.BackendSQLite {
		db, err := storage.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		slog.Info("Using SQLite store", "path", cfg.SQLitePath)
		return db, nil
	}
	client, err := storage.New(ctx, cfg.ProjectID)
	if err != nil {
		return nil, err
	}
	return client, nil
}
