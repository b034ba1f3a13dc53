// Package cli holds the command-line host: process setup shared by the
// binaries under cmd/ and the cashcraft subcommands.
package cli

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"cashcraft/internal/amqp"
	"cashcraft/internal/config"
	applog "cashcraft/internal/log"
	"cashcraft/internal/services"
	"cashcraft/internal/storage"
)

// SetupLogger builds the process logger from cfg and makes it the slog
// default. Logs go to stderr; stdout is reserved for command output.
func SetupLogger(cfg *config.Config, component string) *applog.Logger {
	level, _ := applog.ParseLevel(cfg.LogLevel)
	logger := applog.New(applog.Config{
		Level:     level,
		Format:    cfg.LogFormat,
		Component: component,
		Output:    os.Stderr,
	})
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration from the environment and
// validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// OpenService opens and initializes the store at cfg.DBPath. When AMQP is
// configured but unreachable the service still opens, without events.
func OpenService(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*services.ExpenseService, error) {
	repo, err := storage.NewSQLiteRepository(ctx, cfg.DBPath)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to initialize SQLite repository",
			applog.FieldError, err,
			applog.FieldPath, cfg.DBPath)
		return nil, err
	}

	var publisher services.Publisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.WithComponent(applog.ComponentAMQP).WarnContext(ctx, "AMQP unavailable, expense events disabled",
				applog.FieldError, err)
		} else {
			publisher = client
		}
	}

	return services.NewExpenseService(repo, publisher), nil
}
