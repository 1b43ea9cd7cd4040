package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"dailyexpense/internal/amqp"
	"dailyexpense/internal/cli"
	apphttp "dailyexpense/internal/http"
	"dailyexpense/internal/log"
	"dailyexpense/internal/report"
	"dailyexpense/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// Change notifications are optional; the ledger works without them.
	var publisher services.ChangePublisher
	var amqpClient *amqp.Client
	if cfg.AMQPEnabled() {
		c, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, change notifications disabled", log.FieldError, err)
		} else {
			amqpClient, publisher = c, c
			defer amqpClient.Close()
			logger.Info("AMQP publisher ready", "exchange", cfg.AMQPExchange)
		}
	}

	hub := services.NewHub()
	ledger := services.NewLedgerService(repo, hub, publisher)
	snap, err := ledger.Load(context.Background())
	if err != nil {
		logger.Error("Failed to load ledger", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Ledger loaded",
		"transactions", len(snap.Transactions),
		"notes", len(snap.Notes))

	dashboard := services.NewDashboard(hub)
	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Ledger:    ledger,
		Dashboard: dashboard,
		Backups:   services.NewBackupService(repo, ledger, cfg.BackupDir),
		Reports:   services.NewReportService(hub, report.NewXLSXWriter(cfg.ReportDir)),
		Pinger:    repo,
		Logger:    logger.WithComponent(log.ComponentHTTP),
		CacheSize: cfg.SummaryCacheSize,
		CacheTTL:  cfg.SummaryCacheTTL,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})
	go dashboard.Run(ctx)

	logger.Info("Starting dailyexpense server",
		"port", cfg.Port,
		"amqp", amqpClient != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
