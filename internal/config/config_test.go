package config

import (
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"OUTPUT_PATH", "FETCH_TIMEOUT_SECONDS", "UTC_OFFSET_HOURS", "LIVE_FETCH_ENABLED", "FETCH_CONCURRENT", "HISTORY_ENABLED"} {
		t.Setenv(k, "")
	}
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.OutputPath != "market_data.json" {
		t.Fatalf("output path: got %s", cfg.OutputPath)
	}
	if cfg.UTCOffsetHours != -3 || cfg.FetchTimeout() != 10*time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if !cfg.LiveFetchEnabled || cfg.FetchConcurrent || cfg.HistoryEnabled {
		t.Fatalf("unexpected flags: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("OUTPUT_PATH", "/srv/www/market_data.json")
	t.Setenv("FETCH_CONCURRENT", "yes")
	t.Setenv("FETCH_MAX_CONCURRENCY", "2")
	t.Setenv("UTC_OFFSET_HOURS", "0")
	t.Setenv("REFRESH_INTERVAL_MINUTES", "15")

	cfg, _ := Load()
	if cfg.OutputPath != "/srv/www/market_data.json" || !cfg.FetchConcurrent || cfg.FetchMaxConcurrency != 2 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.UTCOffsetHours != 0 {
		t.Fatalf("explicit zero offset must stick, got %d", cfg.UTCOffsetHours)
	}
	if cfg.RefreshInterval() != 15*time.Minute {
		t.Fatalf("refresh interval: got %s", cfg.RefreshInterval())
	}
}

func TestLoad_BadIntFallsBack(t *testing.T) {
	t.Setenv("FETCH_TIMEOUT_SECONDS", "ten")
	cfg, _ := Load()
	if cfg.FetchTimeoutSeconds != 10 {
		t.Fatalf("expected fallback 10, got %d", cfg.FetchTimeoutSeconds)
	}
}

func TestValidate_CollectsErrors(t *testing.T) {
	cfg := &Config{
		OutputPath:             " ",
		FetchTimeoutSeconds:    0,
		UTCOffsetHours:         -20,
		FetchMaxConcurrency:    1,
		LogLevel:               "chatty",
		RefreshIntervalMinutes: 60,
		LiveFetchEnabled:       true,
		HistoryEnabled:         true,
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"OUTPUT_PATH", "FETCH_TIMEOUT_SECONDS", "UTC_OFFSET_HOURS", "LOG_LEVEL", "DB_USER"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("missing %s in: %v", want, err)
		}
	}
}

func TestLogger_Level(t *testing.T) {
	cfg := &Config{LogLevel: "debug"}
	if cfg.Logger().GetLevel() != logrus.DebugLevel {
		t.Fatal("expected debug level")
	}
	cfg.LogLevel = "nonsense"
	if cfg.Logger().GetLevel() != logrus.InfoLevel {
		t.Fatal("invalid level should fall back to info")
	}
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBUser: "u", DBPassword: "p", DBHost: "db", DBPort: 5433, DBName: "market_data"}
	if got := cfg.DSN(); got != "postgres://u:p@db:5433/market_data?sslmode=disable" {
		t.Fatalf("DSN: got %s", got)
	}
}
