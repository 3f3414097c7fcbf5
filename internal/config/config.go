package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// With no environment at all the job writes market_data.json in BRT with
// every live source enabled.
type Config struct {
	// Output
	OutputPath      string
	UTCOffsetHours  int
	MetricsTextfile string

	// Fetching
	FetchTimeoutSeconds int
	LiveFetchEnabled    bool
	FetchConcurrent     bool
	FetchMaxConcurrency int
	CatalogFile         string

	// Reporting
	LogLevel   string
	WebhookURL string
	JobName    string

	// History (optional)
	HistoryEnabled bool
	DBHost         string
	DBPort         int
	DBName         string
	DBUser         string
	DBPassword     string

	// Server mode
	APIPort                int
	RefreshIntervalMinutes int
	CORSAllowOrigin        string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		// Output
		OutputPath:      envStr("OUTPUT_PATH", "market_data.json"),
		UTCOffsetHours:  envInt("UTC_OFFSET_HOURS", -3),
		MetricsTextfile: envStr("METRICS_TEXTFILE", ""),

		// Fetching
		FetchTimeoutSeconds: envInt("FETCH_TIMEOUT_SECONDS", 10),
		LiveFetchEnabled:    envBool("LIVE_FETCH_ENABLED", true),
		FetchConcurrent:     envBool("FETCH_CONCURRENT", false),
		FetchMaxConcurrency: envInt("FETCH_MAX_CONCURRENCY", 4),
		CatalogFile:         envStr("CATALOG_FILE", ""),

		// Reporting
		LogLevel:   envStr("LOG_LEVEL", "info"),
		WebhookURL: envStr("WEBHOOK_URL", ""),
		JobName:    envStr("JOB_NAME", "MarketDataFetcher"),

		// History
		HistoryEnabled: envBool("HISTORY_ENABLED", false),
		DBHost:         envStr("DB_HOST", "localhost"),
		DBPort:         envInt("DB_PORT", 5432),
		DBName:         envStr("DB_NAME", "market_data"),
		DBUser:         envStr("DB_USER", ""),
		DBPassword:     envStr("DB_PASSWORD", ""),

		// Server
		APIPort:                envInt("API_PORT", 3001),
		RefreshIntervalMinutes: envInt("REFRESH_INTERVAL_MINUTES", 60),
		CORSAllowOrigin:        envStr("CORS_ALLOW_ORIGIN", "*"),
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string

	if strings.TrimSpace(c.OutputPath) == "" {
		errs = append(errs, "OUTPUT_PATH must not be empty")
	}
	if c.FetchTimeoutSeconds <= 0 {
		errs = append(errs, "FETCH_TIMEOUT_SECONDS must be positive")
	}
	if c.UTCOffsetHours < -12 || c.UTCOffsetHours > 14 {
		errs = append(errs, "UTC_OFFSET_HOURS must be between -12 and 14")
	}
	if c.FetchMaxConcurrency <= 0 {
		errs = append(errs, "FETCH_MAX_CONCURRENCY must be positive")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL %q is not a valid level", c.LogLevel))
	}
	if c.RefreshIntervalMinutes <= 0 {
		errs = append(errs, "REFRESH_INTERVAL_MINUTES must be positive")
	}
	if c.HistoryEnabled && c.DBUser == "" {
		errs = append(errs, "DB_USER is required when HISTORY_ENABLED is set")
	}
	if !c.LiveFetchEnabled {
		fmt.Println("[WARN] LIVE_FETCH_ENABLED=false: snapshot will contain default values only")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

func (c *Config) Print() {
	fmt.Println("=== Market Data Fetcher Configuration ===")
	fmt.Printf("Output: %s\n", c.OutputPath)
	fmt.Printf("Timezone: UTC%+d\n", c.UTCOffsetHours)
	fmt.Printf("Catalog: %s\n", boolLabel(c.CatalogFile != "", c.CatalogFile, "built-in"))
	fmt.Println("--------------------------------------")
	fmt.Printf("Live fetch: %s\n", boolLabel(c.LiveFetchEnabled, "enabled", "disabled (defaults only)"))
	fmt.Printf("Timeout: %ds per request\n", c.FetchTimeoutSeconds)
	if c.FetchConcurrent {
		fmt.Printf("Mode: concurrent (max %d)\n", c.FetchMaxConcurrency)
	} else {
		fmt.Println("Mode: sequential")
	}
	fmt.Println("--------------------------------------")
	fmt.Printf("Webhook: %s\n", boolLabel(c.WebhookURL != "", "configured", "not set"))
	fmt.Printf("Metrics textfile: %s\n", boolLabel(c.MetricsTextfile != "", c.MetricsTextfile, "not set"))
	fmt.Printf("History: %s\n", boolLabel(c.HistoryEnabled, fmt.Sprintf("%s@%s:%d/%s", c.DBUser, c.DBHost, c.DBPort, c.DBName), "disabled"))
	fmt.Println("======================================")
}

func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalMinutes) * time.Minute
}

// Logger returns a logrus logger at LOG_LEVEL, falling back to info.
func (c *Config) Logger() *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)
	return l
}

// --- helpers ---

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		v = strings.ToLower(v)
		return v == "true" || v == "1" || v == "yes"
	}
	return fallback
}

func boolLabel(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
