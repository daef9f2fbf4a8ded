package config

import (
	"os"
	"strings"
	"time"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string
	HTTPPort    string
	PostgresDSN string

	TokenSecret string
	TokenTTL    time.Duration

	WorkerPollInterval time.Duration
	OutboxBatchSize    int
	LifecycleTopic     string

	AutoMigrate bool
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "ardhi"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	secret := os.Getenv("TOKEN_SECRET")
	if secret == "" {
		secret = "ardhi-dev-secret"
	}

	topic := os.Getenv("LIFECYCLE_TOPIC")
	if topic == "" {
		topic = "registry.application.lifecycle"
	}

	return Config{
		ServiceName: service,
		HTTPPort:    port,
		PostgresDSN: os.Getenv("POSTGRES_DSN"),

		TokenSecret: secret,
		TokenTTL:    envDuration("TOKEN_TTL", 24*time.Hour),

		WorkerPollInterval: envDuration("WORKER_POLL_INTERVAL", 2*time.Second),
		OutboxBatchSize:    100,
		LifecycleTopic:     topic,

		AutoMigrate: envBool("AUTO_MIGRATE", true),
	}, nil
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
