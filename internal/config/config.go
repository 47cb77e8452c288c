package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"

	"github.com/tsawler/sentiment"
)

type Config struct {
	AppEnv          string        `env:"APP_ENV" default:"development"`
	Port            string        `env:"PORT" default:"8000"`
	ModelDir        string        `env:"MODEL_DIR" default:"models"`
	LogLevel        string        `env:"LOG_LEVEL" default:"info"`
	LogFormat       string        `env:"LOG_FORMAT" default:"json"`
	MaxBatchSize    int           `env:"MAX_BATCH_SIZE" default:"100"`
	MaxTextLength   int           `env:"MAX_TEXT_LENGTH" default:"5000"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// Load reads the configuration from the environment. A .env file in the
// working directory is applied first when present; it never overrides
// variables that are already set. It reports whether a .env file was read.
func Load() (*Config, bool, error) {
	dotenv := godotenv.Load() == nil

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, dotenv, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, dotenv, err
	}

	return &cfg, dotenv, nil
}

// Limits returns the batch limits the service enforces.
func (c *Config) Limits() sentiment.Limits {
	return sentiment.Limits{MaxBatchSize: c.MaxBatchSize, MaxTextLength: c.MaxTextLength}
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func validate(cfg *Config) error {
	if cfg.ModelDir == "" {
		return errors.New("MODEL_DIR is required")
	}

	port, err := strconv.Atoi(cfg.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be a number between 1 and 65535, got %q", cfg.Port)
	}

	if cfg.MaxBatchSize < 1 {
		return fmt.Errorf("MAX_BATCH_SIZE must be positive, got %d", cfg.MaxBatchSize)
	}
	if cfg.MaxTextLength < 1 {
		return fmt.Errorf("MAX_TEXT_LENGTH must be positive, got %d", cfg.MaxTextLength)
	}
	if cfg.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive, got %s", cfg.ShutdownTimeout)
	}

	switch cfg.LogFormat {
	case "json", "console", "text":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", cfg.LogFormat)
	}

	return nil
}
