package config

import "time"

// ConfigFileEnv names the environment variable pointing at the YAML config file
const ConfigFileEnv = "LEARNAPP_CONFIG_FILE"

// Server defaults
const (
	DefaultPort      = "8000"
	DefaultAPIPrefix = "/api/v1"
)

// Timeout constants
const (
	// HTTP timeouts
	DefaultHTTPTimeout    = 60 * time.Second
	ServerShutdownTimeout = 30 * time.Second
	ReadHeaderTimeout     = 10 * time.Second

	// Database timeouts
	DatabaseConnMaxLifetime = 5 * time.Minute
	HealthCheckTimeout      = 2 * time.Second

	// Per-user lock lease when redis is configured
	DefaultUserLockTTL = 15 * time.Second
)

// Auth defaults
const (
	DefaultAccessTokenExpireMinutes = 30
	DefaultRefreshTokenExpireHours  = 7 * 24
	DefaultBcryptCost               = 10
)

// Security configuration constants
const (
	// Content Security Policy for a JSON-only API
	DefaultCSP = "default-src 'none'; frame-ancestors 'none'"
)
