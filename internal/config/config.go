package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration, loaded once at startup.
type Config struct {
	Port        string
	Environment string

	// DatabaseURL is a full DSN; when empty the DB_* components are used.
	DatabaseURL string

	// JWTSecret signs session tokens. Required; startup fails without it.
	// It must never be logged or serialized.
	JWTSecret []byte

	// TokenTTL bounds session credential lifetime.
	TokenTTL time.Duration

	RedisHost     string
	RedisPort     string
	RedisPassword string

	LogLevel string
	LogFile  string

	// Tracing is disabled unless an OTLP endpoint is configured.
	OTLPEndpoint string
	TraceSample  float64
}

// Load reads .env (if present) and the process environment into a Config.
// It fails fast when the signing secret is absent so the server never runs
// with an unsigned or guessable token key.
func Load() (*Config, error) {
	// .env is optional; system environment wins in production
	_ = godotenv.Load()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	cfg := &Config{
		Port:          getEnvOrDefault("PORT", "8790"),
		Environment:   getEnvOrDefault("ENVIRONMENT", "development"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		JWTSecret:     []byte(secret),
		TokenTTL:      10 * time.Hour,
		RedisHost:     os.Getenv("REDIS_HOST"),
		RedisPort:     getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		LogLevel:      getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:       getEnvOrDefault("LOG_FILE", "server.log"),
		OTLPEndpoint:  os.Getenv("OTLP_ENDPOINT"),
		TraceSample:   getEnvFloat("TRACE_SAMPLE_RATE", 0.1),
	}

	return cfg, nil
}

// getEnvOrDefault returns environment variable or default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
