package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Store driver and audit sink selectors.
const (
	StoreDriverSQLite = "sqlite"
	StoreDriverMongo  = "mongo"

	AuditSinkExcel  = "excel"
	AuditSinkSheets = "sheets"

	ScannerModeConsole = "console"
	ScannerModeBridge  = "bridge"
	ScannerModeRequest = "request"
)

// Config represents the full application configuration surface.
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Audit    AuditConfig
	Scanner  ScannerConfig
	Snapshot SnapshotConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// StoreConfig selects and configures the inventory store backend.
type StoreConfig struct {
	Driver     string
	SQLitePath string
	MongoURI   string
	MongoDB    string
}

// AuditConfig selects and configures the audit log sink.
type AuditConfig struct {
	Sink                  string
	ExcelPath             string
	SheetsCredentialsPath string
	SpreadsheetID         string
	SheetRange            string
}

// ScannerConfig selects the scan backend for the host setup.
type ScannerConfig struct {
	Mode      string
	BridgeURL string
	Timeout   time.Duration
}

// SnapshotConfig holds the scheduled inventory export settings.
type SnapshotConfig struct {
	CronSchedule string
	OutputPath   string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	scanTimeout, err := durationSeconds("SCAN_TIMEOUT_SECONDS", 10)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Store: StoreConfig{
			Driver:     getenvWithDefault("STORE_DRIVER", StoreDriverSQLite),
			SQLitePath: getenvWithDefault("SQLITE_PATH", "inventory.db"),
			MongoURI:   os.Getenv("MONGODB_URI"),
			MongoDB:    getenvWithDefault("MONGODB_DB_NAME", "entrepot"),
		},
		Audit: AuditConfig{
			Sink:                  getenvWithDefault("AUDIT_SINK", AuditSinkExcel),
			ExcelPath:             getenvWithDefault("AUDIT_EXCEL_PATH", "warehouse_log.xlsx"),
			SheetsCredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:         os.Getenv("GOOGLE_SHEET_AUDIT_ID"),
			SheetRange:            getenvWithDefault("GOOGLE_SHEET_AUDIT_RANGE", "InventoryLog!A:J"),
		},
		Scanner: ScannerConfig{
			Mode:      getenvWithDefault("SCANNER_MODE", ScannerModeRequest),
			BridgeURL: os.Getenv("SCANNER_BRIDGE_URL"),
			Timeout:   scanTimeout,
		},
		Snapshot: SnapshotConfig{
			CronSchedule: getenvWithDefault("SNAPSHOT_CRON_SCHEDULE", "0 20 * * *"),
			OutputPath:   getenvWithDefault("SNAPSHOT_OUTPUT_PATH", "inventory_snapshot.xlsx"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch c.Store.Driver {
	case StoreDriverSQLite:
		if c.Store.SQLitePath == "" {
			return errors.New("SQLITE_PATH must be provided")
		}
	case StoreDriverMongo:
		if c.Store.MongoURI == "" {
			return errors.New("MONGODB_URI must be provided when STORE_DRIVER=mongo")
		}
		if c.Store.MongoDB == "" {
			return errors.New("MONGODB_DB_NAME must be provided when STORE_DRIVER=mongo")
		}
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.Store.Driver)
	}

	switch c.Audit.Sink {
	case AuditSinkExcel:
		if c.Audit.ExcelPath == "" {
			return errors.New("AUDIT_EXCEL_PATH must be provided")
		}
	case AuditSinkSheets:
		if c.Audit.SheetsCredentialsPath == "" {
			return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH must be provided when AUDIT_SINK=sheets")
		}
		if c.Audit.SpreadsheetID == "" {
			return errors.New("GOOGLE_SHEET_AUDIT_ID must be provided when AUDIT_SINK=sheets")
		}
	default:
		return fmt.Errorf("unsupported AUDIT_SINK %q", c.Audit.Sink)
	}

	switch c.Scanner.Mode {
	case ScannerModeConsole, ScannerModeRequest:
	case ScannerModeBridge:
		if c.Scanner.BridgeURL == "" {
			return errors.New("SCANNER_BRIDGE_URL must be provided when SCANNER_MODE=bridge")
		}
	default:
		return fmt.Errorf("unsupported SCANNER_MODE %q", c.Scanner.Mode)
	}

	if c.Scanner.Timeout <= 0 {
		return errors.New("SCAN_TIMEOUT_SECONDS must be positive")
	}

	if c.Snapshot.CronSchedule == "" {
		return errors.New("SNAPSHOT_CRON_SCHEDULE must be provided")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func durationSeconds(key string, fallback int) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return time.Duration(fallback) * time.Second, nil
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer number of seconds: %w", key, err)
	}
	return time.Duration(seconds) * time.Second, nil
}
