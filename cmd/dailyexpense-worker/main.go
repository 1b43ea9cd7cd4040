package main

import (
	"context"
	"errors"
	"os"
	"time"

	"dailyexpense/internal/amqp"
	"dailyexpense/internal/cli"
	"dailyexpense/internal/config"
	"dailyexpense/internal/log"
	"dailyexpense/internal/sheets"
	gsheet "dailyexpense/internal/sheets/google"
	mem "dailyexpense/internal/sheets/memory"
	"dailyexpense/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	logger.Info("Starting dailyexpense-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if !cfg.AMQPEnabled() {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	writer, err := reportWriter(logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)
	reportWorker := worker.NewReportWorker(repo, writer)

	// Catch up on changes made while the worker was down.
	if err := reportWorker.Sync(ctx); err != nil {
		logger.Error("Startup report sync failed", log.FieldError, err)
	}

	go func() {
		ticker := time.NewTicker(cfg.ReportSyncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := reportWorker.Sync(ctx); err != nil {
					logger.Error("Periodic report sync failed", log.FieldError, err)
				}
			}
		}
	}()

	go func() {
		err := amqpClient.ConsumeLedgerChanged(ctx, reportWorker.HandleLedgerChanged)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", log.FieldError, err)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}

// reportWriter picks Google Sheets when configured and an in-memory sheet
// otherwise, so the worker can run locally without credentials.
func reportWriter(logger *log.Logger, cfg *config.Config) (sheets.ReportWriter, error) {
	if !cfg.SheetsEnabled() {
		logger.Info("Google Sheets disabled, mirroring report in memory")
		return mem.New(), nil
	}
	client, err := gsheet.New(context.Background(), gsheet.Options{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		ReportSheet:        cfg.GoogleReportSheetName,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	return client, nil
}
