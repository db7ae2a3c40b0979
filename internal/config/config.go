package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

const (
	BackendFirestore = "firestore"
	BackendSQLite    = "sqlite"
)

type Config struct {
	StoreBackend      string
	ProjectID         string
	SQLitePath        string
	Port              string
	GeminiAPIKey      string
	GeminiModel       string
	JWTSecret         string
	JWTIssuer         string
	ImageBucket       string
	GCSEndpoint       string
	DiscordWebhookURL string
	SiteURL           string
	CatalogPath       string
	OverrideTTL       time.Duration
	AlertConcurrency  int
	BrowseLimit       int
}

func Load() (*Config, error) {
	backend := os.Getenv("STORE_BACKEND")
	if backend == "" {
		backend = BackendFirestore
	}
	if backend != BackendFirestore && backend != BackendSQLite {
		return nil, fmt.Errorf("invalid STORE_BACKEND %q: want %s or %s", backend, BackendFirestore, BackendSQLite)
	}

	projectID := os.Getenv("GOOGLE_CLOUD_PROJECT")
	if backend == BackendFirestore && projectID == "" {
		return nil, fmt.Errorf("GOOGLE_CLOUD_PROJECT environment variable is required but not set")
	}

	sqlitePath := os.Getenv("SQLITE_PATH")
	if sqlitePath == "" {
		sqlitePath = "data/rentacos.db"
	}

	jwtSecret := os.Getenv("AUTH_JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("AUTH_JWT_SECRET environment variable is required but not set")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
		slog.Info("Defaulting to port", "port", port)
	}

	geminiAPIKey := os.Getenv("GEMINI_API_KEY")
	if geminiAPIKey == "" {
		slog.Warn("GEMINI_API_KEY not set, suggestions and generated text will be unavailable")
	}
	geminiModel := os.Getenv("GEMINI_MODEL")
	if geminiModel == "" {
		geminiModel = "gemini-2.5-flash"
	}

	imageBucket := os.Getenv("IMAGE_BUCKET")
	if imageBucket == "" {
		slog.Warn("IMAGE_BUCKET not set, listings with images will be rejected")
	}

	discordWebhookURL := os.Getenv("DISCORD_WEBHOOK_URL")
	if discordWebhookURL == "" {
		slog.Warn("DISCORD_WEBHOOK_URL not set, listing announcements will be skipped")
	}

	overrideTTLStr := os.Getenv("OVERRIDE_TTL")
	if overrideTTLStr == "" {
		overrideTTLStr = "30m"
	}
	overrideTTL, err := time.ParseDuration(overrideTTLStr)
	if err != nil {
		return nil, fmt.Errorf("invalid OVERRIDE_TTL %q: %w", overrideTTLStr, err)
	}

	alertConcurrency, err := intEnv("ALERT_CONCURRENCY", 4)
	if err != nil {
		return nil, err
	}
	browseLimit, err := intEnv("BROWSE_LIMIT", 60)
	if err != nil {
		return nil, err
	}

	return &Config{
		StoreBackend:      backend,
		ProjectID:         projectID,
		SQLitePath:        sqlitePath,
		Port:              port,
		GeminiAPIKey:      geminiAPIKey,
		GeminiModel:       geminiModel,
		JWTSecret:         jwtSecret,
		JWTIssuer:         os.Getenv("AUTH_JWT_ISSUER"),
		ImageBucket:       imageBucket,
		GCSEndpoint:       os.Getenv("GCS_ENDPOINT"),
		DiscordWebhookURL: discordWebhookURL,
		SiteURL:           os.Getenv("SITE_URL"),
		CatalogPath:       os.Getenv("CATALOG_PATH"),
		OverrideTTL:       overrideTTL,
		AlertConcurrency:  alertConcurrency,
		BrowseLimit:       browseLimit,
	}, nil
}

func intEnv(name string, def int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", name, v)
	}
	return parsed, nil
}
