// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds every tunable the binaries need.
type Config struct {
	// HTTP server
	Port string

	// Session tokens
	JWTSecret  string
	SessionTTL time.Duration

	// Blob storage (avatars)
	GCSBucket string

	// AI delegate calls
	GeminiModel string

	// CORS
	AllowedOrigin string
}

// Load reads configuration from the environment, applying defaults.
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		SessionTTL:    getEnvDuration("SESSION_TTL", 24*time.Hour),
		GCSBucket:     getEnv("GCS_BUCKET", ""),
		GeminiModel:   getEnv("GEMINI_MODEL", ""),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "*"),
	}
}

// Validate reports configuration errors that would prevent startup.
func (c *Config) Validate() error {
	if port, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("invalid port %q: must be a number", c.Port)
	} else if port < 1 || port > 65535 {
		return fmt.Errorf("invalid port %d: must be between 1 and 65535", port)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("invalid session TTL %s: must be positive", c.SessionTTL)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
