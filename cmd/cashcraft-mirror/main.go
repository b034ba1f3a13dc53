package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"cashcraft/internal/amqp"
	"cashcraft/internal/cli"
	applog "cashcraft/internal/log"
	gsheet "cashcraft/internal/sheets/google"
	"cashcraft/internal/storage"
	"cashcraft/internal/worker"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentWorker)
	if err = errors.Join(err, cfg.ValidateMirror()); err != nil {
		logger.Error("Configuration validation failed",
			applog.FieldErrorType, applog.ErrorTypeConfiguration,
			applog.FieldError, err)
		return 1
	}

	logger.Info("Starting cashcraft-mirror",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleSheetName,
		"interval", cfg.MirrorInterval)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = applog.NewContext(ctx, logger)

	repo, err := storage.NewSQLiteRepository(ctx, cfg.DBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", applog.FieldError, err, applog.FieldPath, cfg.DBPath)
		return 1
	}
	defer repo.Close()

	sheetsClient, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName, cfg.SheetsRequestsPerMinute)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
		return 1
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		return 1
	}
	defer amqpClient.Close()

	mirror := worker.NewMirrorWorker(repo, sheetsClient, cfg.MirrorBatchSize)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeWithReconnect(gctx, mirror.HandleRecorded)
	})
	g.Go(func() error {
		return mirror.Run(gctx, cfg.MirrorInterval)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Mirror worker failed", applog.FieldError, err)
		return 1
	}

	logger.Info("Shutdown complete")
	return 0
}
