// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, backend client) via constructors.
  - Zero Hidden State: No global variables are used to store config.
*/
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the Talentgate portal server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL) holding the assessment attempt journal
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis)
	RedisURL string `env:"REDIS_URL,required,notEmpty"`

	// Hiring platform backend (REST)
	BackendBaseURL   string        `env:"BACKEND_BASE_URL,required,notEmpty"`
	BackendTimeout   time.Duration `env:"BACKEND_TIMEOUT"    envDefault:"10s"`
	BackendJWTSecret string        `env:"BACKEND_JWT_SECRET"`
	BackendJWTIssuer string        `env:"BACKEND_JWT_ISSUER"`

	// Session cookies
	CookieSecure bool          `env:"COOKIE_SECURE" envDefault:"true"`
	SessionTTL   time.Duration `env:"SESSION_TTL"   envDefault:"24h"`

	// Access guard timing
	HydrationGrace      time.Duration `env:"HYDRATION_GRACE"       envDefault:"150ms"`
	DenialRedirectDelay time.Duration `env:"DENIAL_REDIRECT_DELAY" envDefault:"1s"`

	// Assessment time limits
	MCQMinutes              int `env:"MCQ_MINUTES"               envDefault:"30"`
	CodingMinutes           int `env:"CODING_MINUTES"            envDefault:"60"`
	WarningThresholdSeconds int `env:"WARNING_THRESHOLD_SECONDS" envDefault:"600"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if cfg.MCQMinutes <= 0 || cfg.CodingMinutes <= 0 {
		return nil, fmt.Errorf("config: assessment durations must be positive (mcq=%d, coding=%d)", cfg.MCQMinutes, cfg.CodingMinutes)
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AllowedOrigins returns the trimmed, non-empty entries of EXTRA_ORIGINS.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.ExtraOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
