package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the API process configuration, read from the environment.
type Config struct {
	Port           string `validate:"required,numeric"`
	StorageBackend string `validate:"oneof=memory postgres"`
	DatabaseURL    string `validate:"required_if=StorageBackend postgres"`
	LogEnv         string `validate:"oneof=development production"`

	// MembershipsFile is an optional federation export imported at startup.
	MembershipsFile string `validate:"omitempty,file"`

	ShutdownTimeout time.Duration `validate:"gt=0"`
}

var validate = validator.New()

// LoadFromEnv reads PORT, STORAGE_BACKEND, DATABASE_URL, LOG_ENV, MEMBERSHIPS_FILE and
// SHUTDOWN_TIMEOUT, applying defaults, and validates the result.
func LoadFromEnv() (Config, error) {
	cfg := Config{
		Port:            getenv("PORT", "8080"),
		StorageBackend:  getenv("STORAGE_BACKEND", "memory"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		LogEnv:          getenv("LOG_ENV", "development"),
		MembershipsFile: os.Getenv("MEMBERSHIPS_FILE"),
		ShutdownTimeout: 10 * time.Second,
	}
	if v := os.Getenv("SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("SHUTDOWN_TIMEOUT must be a duration (e.g. 10s): %w", err)
		}
		cfg.ShutdownTimeout = d
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func Validate(cfg Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
