// Package cli consolidates the initialization steps shared by
// cmd/finboard and cmd/finboard-worker.
package cli

import (
	"os"

	"github.com/joho/godotenv"

	"finboard/internal/config"
	logger "finboard/internal/log"
	"finboard/internal/storage"
)

// SetupLogger initializes structured logging and installs it as the
// process default.
func SetupLogger(component string) *logger.Logger {
	log := logger.New(logger.DefaultConfig()).WithComponent(component)
	logger.SetDefault(log)
	return log
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(log *logger.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("Configuration validation failed", logger.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// InitSQLite opens the SQLite repository, running migrations.
// Returns the repository or exits the process on failure.
func InitSQLite(log *logger.Logger, dbPath string) *storage.SQLiteRepository {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		log.Error("Failed to initialize SQLite repository", logger.FieldError, err, "path", dbPath)
		os.Exit(1)
	}
	return repo
}
