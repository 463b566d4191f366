package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage drivers understood by the server.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

const minSecretLength = 32

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port            string
	StorageDriver   string
	DatabaseURL     string
	JWTSecret       string
	JWTIssuer       string
	AccessTTL       time.Duration
	RefreshTTL      time.Duration
	CORSOrigins     []string
	LogLevel        string
	LogFormat       string
	AMQPURL         string
	AMQPExchange    string
	OllamaURL       string
	OllamaModel     string
	ShutdownTimeout time.Duration
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	cfg := Config{
		Port:          fallback(os.Getenv("PORT"), "8080"),
		StorageDriver: strings.ToLower(fallback(os.Getenv("STORAGE_DRIVER"), DriverPostgres)),
		DatabaseURL:   strings.TrimSpace(os.Getenv("DATABASE_URL")),
		JWTSecret:     strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTIssuer:     fallback(os.Getenv("JWT_ISSUER"), "student-life-backend"),
		CORSOrigins:   parseCSV(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), "*")),
		LogLevel:      strings.ToLower(fallback(os.Getenv("LOG_LEVEL"), "info")),
		LogFormat:     strings.ToLower(fallback(os.Getenv("LOG_FORMAT"), "json")),
		AMQPURL:       strings.TrimSpace(os.Getenv("AMQP_URL")),
		AMQPExchange:  fallback(os.Getenv("AMQP_EXCHANGE"), "student-life.events"),
		OllamaURL:     strings.TrimRight(strings.TrimSpace(os.Getenv("OLLAMA_API_URL")), "/"),
		OllamaModel:   fallback(os.Getenv("OLLAMA_MODEL"), "gemma2:2b"),
	}

	cfg.AccessTTL = positiveInt(os.Getenv("JWT_ACCESS_TTL_MINUTES"), 15) * time.Minute
	cfg.RefreshTTL = positiveInt(os.Getenv("JWT_REFRESH_TTL_HOURS"), 7*24) * time.Hour
	cfg.ShutdownTimeout = positiveInt(os.Getenv("SHUTDOWN_TIMEOUT_SECONDS"), 15) * time.Second

	switch cfg.StorageDriver {
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("DATABASE_URL is required")
		}
	case DriverMemory:
	default:
		return Config{}, fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.StorageDriver)
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}
	if len(cfg.JWTSecret) < minSecretLength {
		return Config{}, fmt.Errorf("JWT_SECRET must be at least %d bytes", minSecretLength)
	}

	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

// ChatEnabled reports whether the study assistant endpoint should be mounted.
func (c Config) ChatEnabled() bool {
	return c.OllamaURL != ""
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func positiveInt(value string, def int) time.Duration {
	if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && n > 0 {
		return time.Duration(n)
	}
	return time.Duration(def)
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
