package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.Store.Driver != StoreDriverSQLite {
		t.Errorf("Driver = %q, want %q", cfg.Store.Driver, StoreDriverSQLite)
	}
	if cfg.Audit.Sink != AuditSinkExcel {
		t.Errorf("Sink = %q, want %q", cfg.Audit.Sink, AuditSinkExcel)
	}
	if cfg.Scanner.Mode != ScannerModeRequest {
		t.Errorf("Mode = %q, want %q", cfg.Scanner.Mode, ScannerModeRequest)
	}
	if cfg.Scanner.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", cfg.Scanner.Timeout)
	}
	if cfg.Snapshot.CronSchedule != "0 20 * * *" {
		t.Errorf("CronSchedule = %q, want nightly default", cfg.Snapshot.CronSchedule)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("SCAN_TIMEOUT_SECONDS", "5")
	t.Setenv("SCANNER_MODE", ScannerModeBridge)
	t.Setenv("SCANNER_BRIDGE_URL", "http://localhost:7000")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Server.Port)
	}
	if cfg.Scanner.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", cfg.Scanner.Timeout)
	}
	if cfg.Scanner.BridgeURL != "http://localhost:7000" {
		t.Errorf("BridgeURL = %q", cfg.Scanner.BridgeURL)
	}
}

func TestLoadInvalidTimeout(t *testing.T) {
	t.Setenv("SCAN_TIMEOUT_SECONDS", "soon")

	if _, err := Load(""); err == nil || !strings.Contains(err.Error(), "SCAN_TIMEOUT_SECONDS") {
		t.Fatalf("err = %v, want SCAN_TIMEOUT_SECONDS parse error", err)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: "8080"},
			Store:    StoreConfig{Driver: StoreDriverSQLite, SQLitePath: "inventory.db"},
			Audit:    AuditConfig{Sink: AuditSinkExcel, ExcelPath: "log.xlsx"},
			Scanner:  ScannerConfig{Mode: ScannerModeRequest, Timeout: 10 * time.Second},
			Snapshot: SnapshotConfig{CronSchedule: "0 20 * * *", OutputPath: "snapshot.xlsx"},
		}
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown store driver", func(c *Config) { c.Store.Driver = "postgres" }},
		{"mongo without uri", func(c *Config) { c.Store.Driver = StoreDriverMongo; c.Store.MongoURI = "" }},
		{"unknown audit sink", func(c *Config) { c.Audit.Sink = "syslog" }},
		{"sheets without credentials", func(c *Config) { c.Audit.Sink = AuditSinkSheets }},
		{"bridge without url", func(c *Config) { c.Scanner.Mode = ScannerModeBridge }},
		{"unknown scanner mode", func(c *Config) { c.Scanner.Mode = "camera" }},
		{"zero scan timeout", func(c *Config) { c.Scanner.Timeout = 0 }},
		{"empty cron schedule", func(c *Config) { c.Snapshot.CronSchedule = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate accepted an invalid config")
			}
		})
	}
}
