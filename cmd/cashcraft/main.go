package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"cashcraft/internal/cli"
	applog "cashcraft/internal/log"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Load .env file for local development (ignore errors in production)
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentCLI)
	if err != nil {
		logger.Error("Configuration validation failed",
			applog.FieldErrorType, applog.ErrorTypeConfiguration,
			applog.FieldError, err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = applog.NewContext(ctx, logger)

	svc, err := cli.OpenService(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return cli.ExitCode(err)
	}

	app := cli.NewApp(svc, cfg.DBPath, os.Stdout, os.Stderr)
	runErr := app.Run(ctx, os.Args[1:])

	if err := svc.Close(); err != nil {
		logger.Error("Failed to close expense service", applog.FieldError, err)
	}

	if runErr != nil {
		fmt.Fprintln(os.Stderr, "error:", runErr)
	}
	return cli.ExitCode(runErr)
}
