/*
Package config loads server configuration from the environment.

PURPOSE:
  One place for all runtime knobs. Values come from environment variables
  (BUDGET_ prefix) via envconfig; command-line flags in main override them.

VARIABLES:
  BUDGET_PORT          HTTP server port (default: 8080)
  BUDGET_DB_PATH       SQLite database path (default: budget.db, ":memory:" works)
  BUDGET_LOG_LEVEL     logrus level: debug|info|warn|error (default: info)
  BUDGET_CORS_ORIGINS  Comma-separated allowed origins
*/
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

// Config is the full server configuration.
type Config struct {
	Port        int      `envconfig:"PORT" default:"8080"`
	DBPath      string   `envconfig:"DB_PATH" default:"budget.db"`
	LogLevel    string   `envconfig:"LOG_LEVEL" default:"info"`
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"http://localhost:5173,http://localhost:8080"`
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("budget", &cfg); err != nil {
		return Config{}, fmt.Errorf("process environment: %w", err)
	}
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		return Config{}, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	return cfg, nil
}

// NewLogger builds the structured logger the whole process shares.
func (c Config) NewLogger() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}
