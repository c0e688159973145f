package app

import (
	"errors"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Issuer    string // Optional: issuer claim for tokens (default: fittrack)
	JWTSecret string // Required: HS256 signing secret, at least 32 bytes

	DatabaseFile string // Required: path to SQLite database file
	PepperFile   string // Optional: path to pepper file for password hashing (default: ./pepper)

	RedisAddr string // Optional: Redis address for the login throttle; empty disables it

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
	ReconcileInterval   time.Duration // Reconciliation sweep interval (default: 1h)
}

var (
	// ErrMissingSecret means FITTRACK_JWT_SECRET was not provided. There
	// is no generated fallback: a restarted process must keep verifying
	// tokens it issued before.
	ErrMissingSecret = errors.New("FITTRACK_JWT_SECRET is required")

	// ErrMissingDatabase means FITTRACK_DATABASE_FILE was not provided.
	// Defaulting to a file in the working directory makes it too easy to
	// silently scatter databases, so the path is explicit.
	ErrMissingDatabase = errors.New("FITTRACK_DATABASE_FILE is required")
)

func LoadConfig() (Config, error) {
	cfg := Config{
		Issuer:              getEnvOrDefault("FITTRACK_ISSUER", "fittrack"),
		JWTSecret:           os.Getenv("FITTRACK_JWT_SECRET"),
		DatabaseFile:        os.Getenv("FITTRACK_DATABASE_FILE"),
		PepperFile:          getEnvOrDefault("FITTRACK_PEPPER_FILE", "pepper"),
		RedisAddr:           os.Getenv("FITTRACK_REDIS_ADDR"),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		ReconcileInterval:   getEnvDurationOrDefault("FITTRACK_RECONCILE_INTERVAL", 1*time.Hour),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate enforces the required settings.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrMissingSecret
	}
	if c.DatabaseFile == "" {
		return ErrMissingDatabase
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
