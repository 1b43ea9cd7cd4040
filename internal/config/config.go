package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Database
	SQLiteDBPath string

	// Files
	BackupDir string
	ReportDir string

	// AMQP (optional, empty URL disables publishing)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets report mirror (optional)
	GoogleSpreadsheetID      string
	GoogleReportSheetName    string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
	ReportSyncInterval       time.Duration

	// Category summary cache
	SummaryCacheSize int
	SummaryCacheTTL  time.Duration

	LogLevel string
}

func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "8081"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/dailyexpense.db"),

		BackupDir: getEnv("BACKUP_DIR", filepath.Join("Daily Expense", "Backup")),
		ReportDir: getEnv("REPORT_DIR", filepath.Join("Daily Expense", "Reports")),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "dailyexpense"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_changes"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleReportSheetName:    getEnv("GOOGLE_REPORT_SHEET_NAME", "Transactions"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		ReportSyncInterval:       getEnvDuration("REPORT_SYNC_INTERVAL", 15*time.Minute),

		SummaryCacheSize: getEnvInt("SUMMARY_CACHE_SIZE", 64),
		SummaryCacheTTL:  getEnvDuration("SUMMARY_CACHE_TTL", 5*time.Minute),

		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}
}

// AMQPEnabled reports whether change notifications should be published.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

// SheetsEnabled reports whether the report should be mirrored to Google Sheets.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.BackupDir == "" {
		errors = append(errors, "backup directory cannot be empty")
	}
	if c.ReportDir == "" {
		errors = append(errors, "report directory cannot be empty")
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.GoogleSpreadsheetID != "" {
		if c.GoogleReportSheetName == "" {
			errors = append(errors, "Google report sheet name is required when a spreadsheet ID is set")
		}
		hasJSON := c.GoogleServiceAccountJSON != ""
		hasFile := c.GoogleServiceAccountFile != ""
		if !hasJSON && !hasFile && os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided when a spreadsheet ID is set")
		}
		if hasFile {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if c.ReportSyncInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid report sync interval %v: must be at least 1 minute", c.ReportSyncInterval))
	}

	if c.SummaryCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid summary cache size %d: must be at least 1", c.SummaryCacheSize))
	} else if c.SummaryCacheSize > 10000 {
		errors = append(errors, fmt.Sprintf("invalid summary cache size %d: must be at most 10000", c.SummaryCacheSize))
	}

	if c.SummaryCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid summary cache TTL %v: must be at least 1 second", c.SummaryCacheTTL))
	} else if c.SummaryCacheTTL > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid summary cache TTL %v: must be at most 24 hours", c.SummaryCacheTTL))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
