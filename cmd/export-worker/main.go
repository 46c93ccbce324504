package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/Dennis-XXII/expense-tracker/internal/amqp"
	"github.com/Dennis-XXII/expense-tracker/internal/config"
	"github.com/Dennis-XXII/expense-tracker/internal/log"
	"github.com/Dennis-XXII/expense-tracker/internal/sheets"
	"github.com/Dennis-XXII/expense-tracker/internal/sheets/google"
	"github.com/Dennis-XXII/expense-tracker/internal/sheets/memory"
	"github.com/Dennis-XXII/expense-tracker/internal/storage"
	"github.com/Dennis-XXII/expense-tracker/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.Config{
		Level:     slog.LevelInfo,
		Component: log.ComponentWorker,
	})
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the export worker")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize storage", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// Without a spreadsheet ID the worker writes to an in-process ledger,
	// which keeps local runs working end to end.
	var ledger sheets.LedgerWriter
	if cfg.GoogleSpreadsheetID != "" {
		gc, err := google.NewClient(ctx, google.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleCredentialsJSON,
			CredentialsFile: cfg.GoogleCredentialsFile,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		ledger = gc
		logger.Info("Google Sheets export enabled", "sheet", cfg.GoogleSheetName)
	} else {
		ledger = memory.New()
		logger.Warn("No GOOGLE_SPREADSHEET_ID set, exporting to in-memory ledger")
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPExportQueue, cfg.AMQPAlertQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	w := worker.NewExportWorker(repo, ledger, logger, cfg.ExportBatchSize)

	logger.Info("Export worker started",
		log.FieldQueue, cfg.AMQPExportQueue,
		"sweep_interval", cfg.ExportInterval.String())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return client.Consume(gctx, cfg.AMQPExportQueue, w.HandleMessage)
	})
	g.Go(func() error {
		return w.RunSweep(gctx, cfg.ExportInterval)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Export worker stopped gracefully")
}
