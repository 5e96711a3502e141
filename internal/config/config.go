// Package config loads server configuration from environment variables.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds the server configuration.
type Config struct {
	// Port the HTTP server listens on.
	Port string `env:"PORT" envDefault:"8080"`

	// AccessCode gates privileged actions (session creation, question
	// list writes). Every caller-supplied code is compared against it.
	AccessCode string `env:"TEACHER_ACCESS_CODE" envDefault:"CHANGEME"`

	// DBPath is the SQLite file backing the question list store.
	DBPath string `env:"DB_PATH" envDefault:"data/youclicker.db"`

	// PublicDir is served as static assets; empty disables serving.
	PublicDir string `env:"PUBLIC_DIR" envDefault:"public"`

	// EventLogDir enables per-session transcripts when set.
	EventLogDir string `env:"EVENT_LOG_DIR"`
}

// Load parses configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
