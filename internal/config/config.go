package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth
	PapernavAPIKey string

	// Review store connection (optional; empty URL disables archiving)
	ReviewstoreURL    string
	ReviewstoreAPIKey string

	// Session lifecycle
	SessionTTL      time.Duration
	CleanupInterval time.Duration

	// Upload limits
	MaxUploadBytes int64

	// Logging
	LogLevel string

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8080"),

		PapernavAPIKey: os.Getenv("PAPERNAV_API_KEY"),

		ReviewstoreURL:    os.Getenv("REVIEWSTORE_URL"),
		ReviewstoreAPIKey: os.Getenv("REVIEWSTORE_API_KEY"),

		SessionTTL:      envDuration("SESSION_TTL", 2*time.Hour),
		CleanupInterval: envDuration("CLEANUP_INTERVAL", 5*time.Minute),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 10485760), // 10MB

		LogLevel: envOr("LOG_LEVEL", "info"),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 2 * time.Hour
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10485760
	}

	return cfg
}

func (c Config) Validate() error {
	if c.PapernavAPIKey == "" {
		return fmt.Errorf("PAPERNAV_API_KEY is required")
	}
	if c.ReviewstoreURL != "" && c.ReviewstoreAPIKey == "" {
		return fmt.Errorf("REVIEWSTORE_API_KEY is required when REVIEWSTORE_URL is set")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
