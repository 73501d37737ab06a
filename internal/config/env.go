package config

import (
	"os"
	"strconv"
	"strings"
)

// Environment represents the application environment
type Environment string

const (
	// Development environment - localhost, debug enabled
	Development Environment = "development"
	// Production environment - real domain, production settings
	Production Environment = "production"
)

// EnvConfig holds environment-specific configuration
type EnvConfig struct {
	Env Environment

	// Feature flags
	Debug    bool
	LogLevel string

	AllowedOrigin string
	Listen        string // overrides Config.Listen when set

	// API credentials, never read from config files
	PerenualAPIKey    string
	UnsplashAccessKey string

	// Web UI access control
	AuthEnabled  bool
	UsersFile    string
	RateLimitRPM int // per client IP, 0 = unlimited
}

// LoadEnv loads environment configuration from environment variables
func LoadEnv() *EnvConfig {
	env := getEnvOrDefault("APP_ENV", "development")

	cfg := &EnvConfig{
		Env:      Environment(strings.ToLower(env)),
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
	}

	switch cfg.Env {
	case Production:
		cfg.AllowedOrigin = getEnvOrDefault("ALLOWED_ORIGIN", "")
		cfg.Debug = getEnvOrDefault("DEBUG", "false") == "true"
	default:
		cfg.Env = Development // Normalize unknown envs to development
		cfg.AllowedOrigin = getEnvOrDefault("ALLOWED_ORIGIN", "*")
		cfg.Debug = getEnvOrDefault("DEBUG", "true") == "true"
		if cfg.LogLevel == "info" {
			cfg.LogLevel = "debug" // Dev default
		}
	}

	cfg.Listen = os.Getenv("FLORA_LISTEN")
	cfg.PerenualAPIKey = strings.TrimSpace(os.Getenv("PERENUAL_API_KEY"))
	cfg.UnsplashAccessKey = strings.TrimSpace(os.Getenv("UNSPLASH_ACCESS_KEY"))

	cfg.AuthEnabled = getEnvOrDefault("AUTH_ENABLED", "false") == "true"
	cfg.UsersFile = getEnvOrDefault("USERS_FILE", "users.json")
	cfg.RateLimitRPM = parseIntOrDefault(getEnvOrDefault("RATE_LIMIT_RPM", "60"), 60)

	return cfg
}

// IsDevelopment returns true if running in development mode
func (e *EnvConfig) IsDevelopment() bool {
	return e.Env == Development
}

// IsProduction returns true if running in production mode
func (e *EnvConfig) IsProduction() bool {
	return e.Env == Production
}

// DebugLogging reports whether debug-level log lines should be printed.
func (e *EnvConfig) DebugLogging() bool {
	return e.Debug || strings.EqualFold(e.LogLevel, "debug")
}

// String returns the environment name
func (e Environment) String() string {
	return string(e)
}

// getEnvOrDefault returns environment variable value or default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseIntOrDefault parses a string as int, returning default on error
func parseIntOrDefault(s string, defaultValue int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return defaultValue
	}
	return n
}
