package config

import (
	"fmt"
	"os"
	"strconv"
)

// Storage backend names accepted in STORE.
const (
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreMemory   = "memory"
)

// Config holds all configuration for the application.
type Config struct {
	Port string

	// Storage selection. StoreBackend picks the backend; the matching
	// connection URL must be set. FallbackMemory enables the explicit
	// degraded mode: on a storage failure, operations continue against
	// an ephemeral in-memory store and responses carry a warning.
	StoreBackend   string
	DatabaseURL    string
	RedisURL       string
	FallbackMemory bool

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	EmailFrom    string

	// RecipientEmail switches the webhook into single-recipient mode:
	// star notifications go to this address instead of the store's
	// matching subscribers.
	RecipientEmail string

	WebhookSecret string
	AdminAPIKey   string

	// AppURL is the public base URL, used to build the webhook callback
	// URL returned by the subscribe endpoint.
	AppURL string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		StoreBackend:   getEnv("STORE", StorePostgres),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		RedisURL:       getEnv("REDIS_URL", ""),
		FallbackMemory: getEnv("STORE_FALLBACK_MEMORY", "") == "true",
		SMTPHost:       getEnv("SMTP_HOST", ""),
		SMTPPort:       getEnvInt("SMTP_PORT", 465),
		SMTPUser:       getEnv("SMTP_USER", ""),
		SMTPPassword:   getEnv("SMTP_PASSWORD", ""),
		EmailFrom:      getEnv("EMAIL_FROM", ""),
		RecipientEmail: getEnv("RECIPIENT_EMAIL", ""),
		WebhookSecret:  getEnv("GITHUB_WEBHOOK_SECRET", ""),
		AdminAPIKey:    getEnv("ADMIN_API_KEY", ""),
		AppURL:         getEnv("APP_URL", "http://localhost:8080"),
	}

	switch cfg.StoreBackend {
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when STORE=postgres")
		}
	case StoreRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("REDIS_URL is required when STORE=redis")
		}
	case StoreMemory:
	default:
		return nil, fmt.Errorf("unknown STORE backend %q", cfg.StoreBackend)
	}

	if cfg.WebhookSecret == "" {
		return nil, fmt.Errorf("GITHUB_WEBHOOK_SECRET is required")
	}
	if cfg.SMTPHost == "" {
		return nil, fmt.Errorf("SMTP_HOST is required")
	}
	if cfg.EmailFrom == "" {
		return nil, fmt.Errorf("EMAIL_FROM is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}
