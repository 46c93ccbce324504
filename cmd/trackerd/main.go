package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Dennis-XXII/expense-tracker/internal/amqp"
	"github.com/Dennis-XXII/expense-tracker/internal/config"
	apphttp "github.com/Dennis-XXII/expense-tracker/internal/http"
	"github.com/Dennis-XXII/expense-tracker/internal/log"
	"github.com/Dennis-XXII/expense-tracker/internal/services"
	"github.com/Dennis-XXII/expense-tracker/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.Config{
		Level:     slog.LevelInfo,
		Component: log.ComponentApp,
	})
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	location := cfg.Location()

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize storage", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// AMQP is optional; without it writes simply skip event publishing.
	var publisher services.Publisher = services.NoopPublisher{}
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPExportQueue, cfg.AMQPAlertQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		publisher = &services.AMQPPublisher{
			Client:      amqpClient,
			ExportQueue: cfg.AMQPExportQueue,
			AlertQueue:  cfg.AMQPAlertQueue,
		}
		logger.Info("AMQP publishing enabled", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	service := services.NewTransactionService(repo, publisher, logger, location)

	srv := apphttp.NewServer(apphttp.Config{
		Port:        cfg.Port,
		CORSOrigins: cfg.CORSOrigins,
		DevMode:     cfg.DevMode,
	}, repo, service, logger, location)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Stop(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Starting tracker API", "port", cfg.Port, "timezone", cfg.Timezone)
	if err := srv.Start(ctx); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
