package app

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type AppConfig struct {
	// =========================== REQUIRED ===========================

	// Database configuration (required)
	DSN *string

	// =========================== OPTIONAL ===========================

	// Redis configuration. When unset the rotation runs without a cross-instance lease and events.
	RedisAddr *string
	// API secret guarding operator endpoints. When unset those endpoints are not registered.
	APISecret *string

	// Logging configuration
	LogLevel *string

	// Environment: dev, staging or prod
	Environment *string

	// HTTP server configuration
	Port *string
	Host *string

	// CORS configuration
	AllowOrigins *[]string

	// Migration configuration
	MigrationPath *string

	// Rotation configuration
	Rotation *RotationSettings
}

// RotationSettings tunes the weekly challenge rotation
type RotationSettings struct {
	// Interval between scheduled rotation ticks
	Interval time.Duration `validate:"required,min=1s,max=24h"`
	// StoreTimeout bounds every single database call
	StoreTimeout time.Duration `validate:"required,min=100ms,max=5m"`
	// RefreshRatePerMinute limits operator forced refreshes
	RefreshRatePerMinute int `validate:"required,min=1,max=600"`
}

// LockTTL is how long a tick lease may be held before it expires on its own
func (s RotationSettings) LockTTL() time.Duration {
	return 10 * s.StoreTimeout
}

func NewAppConfig() *AppConfig {
	config := &AppConfig{}

	// Load required configuration
	loadRequiredConfig(config)

	// Load optional configuration with defaults
	loadOptionalConfig(config)

	if err := validateRotationSettings(config.Rotation); err != nil {
		log.Fatalf("INVALID: rotation configuration: %v", err)
	}

	return config
}

// loadRequiredConfig loads all required configuration values and fails fast if any are missing
func loadRequiredConfig(config *AppConfig) {
	dsn := os.Getenv("DB_URL")
	if dsn == "" {
		log.Fatalf("REQUIRED: DB_URL not set in environment")
	}
	config.DSN = &dsn
}

// loadOptionalConfig loads all optional configuration values with sensible defaults
func loadOptionalConfig(config *AppConfig) {
	if redisAddr := os.Getenv("REDIS_URL"); redisAddr != "" {
		config.RedisAddr = &redisAddr
	}

	if apiSecret := os.Getenv("API_SECRET"); apiSecret != "" {
		config.APISecret = &apiSecret
	}

	// Log level (default: debug)
	// Available levels: "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled"
	logLevel := getEnvWithDefault("LOG_LEVEL", "debug")
	config.LogLevel = &logLevel

	environment := getEnvWithDefault("ENVIRONMENT", "dev")
	config.Environment = &environment

	port := getEnvWithDefault("PORT", "8080")
	config.Port = &port

	host := getEnvWithDefault("HOST", "localhost:"+port)
	config.Host = &host

	migrationPath := getEnvWithDefault("MIGRATION_PATH", "file://migrations")
	config.MigrationPath = &migrationPath

	loadCORSConfig(config)

	config.Rotation = &RotationSettings{
		Interval:             getDurationWithDefault("ROTATION_INTERVAL", time.Hour),
		StoreTimeout:         getDurationWithDefault("STORE_TIMEOUT", 10*time.Second),
		RefreshRatePerMinute: getIntWithDefault("REFRESH_RATE_PER_MINUTE", 6),
	}
}

// loadCORSConfig handles CORS origins configuration with environment-specific behavior
func loadCORSConfig(config *AppConfig) {
	allowOrigins := splitCommaList(os.Getenv("ALLOW_ORIGINS"))

	if len(allowOrigins) == 0 && isDevEnvironment(*config.Environment) {
		// Default to the local frontend in development
		allowOrigins = []string{"http://localhost:5173"}
	}

	config.AllowOrigins = &allowOrigins
}

// ValidateHTTP checks settings only the HTTP server needs
func (c *AppConfig) ValidateHTTP() error {
	if len(*c.AllowOrigins) == 0 {
		return fmt.Errorf("REQUIRED: ALLOW_ORIGINS not set in environment (required in production)")
	}
	return nil
}

func validateRotationSettings(settings *RotationSettings) error {
	if settings == nil {
		return fmt.Errorf("rotation settings missing")
	}

	validate := validator.New()
	return validate.Struct(settings)
}

func isDevEnvironment(environment string) bool {
	return environment == "development" || environment == "dev"
}

func splitCommaList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

// getDurationWithDefault parses a Go duration from the environment with default fallback
func getDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if parsed, err := time.ParseDuration(value); err == nil {
		return parsed
	}

	log.Printf("Warning: Invalid %s value '%s', using default %s", key, value, defaultValue)
	return defaultValue
}

// getIntWithDefault parses an integer from the environment with default fallback
func getIntWithDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if parsed, err := strconv.Atoi(value); err == nil {
		return parsed
	}

	log.Printf("Warning: Invalid %s value '%s', using default %d", key, value, defaultValue)
	return defaultValue
}

// getEnvWithDefault returns environment variable value or default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
