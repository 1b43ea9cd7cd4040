// Package cli holds the start-up steps shared by cmd/dailyexpense and
// cmd/dailyexpense-worker.
package cli

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"dailyexpense/internal/config"
	"dailyexpense/internal/log"
	"dailyexpense/internal/storage"
)

// SetupLogger builds the process logger for component and installs it as
// the slog default. Level comes from LOG_LEVEL before config is validated.
func SetupLogger(component string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Component = component
	cfg.Level = (&config.Config{LogLevel: strings.ToLower(os.Getenv("LOG_LEVEL"))}).SlogLevel()
	cfg.JSON = os.Getenv("LOG_FORMAT") == "json"

	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads .env for local development. A missing file is fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig exits the process when the environment is invalid.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// InitSQLite opens and migrates the database or exits the process.
func InitSQLite(logger *log.Logger, dbPath string) *storage.SQLiteRepository {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", dbPath)
		os.Exit(1)
	}
	logger.Info("SQLite repository ready", "path", dbPath)
	return repo
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. cleanup
// runs with a context bounded by timeout, and done closes once it returns.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
			return
		}
		logger.Info("Shutdown complete")
	}()

	return ctx, done
}

// WaitForShutdown blocks until the shutdown sequence has finished.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
