// Package config provides application configuration management.
// It loads settings from environment variables (optionally from a .env
// file) and provides defaults for the data layout, browser pacing and the
// optional outputs.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// LedgerFile is the default ledger file name inside the data directory.
const LedgerFile = "harvest.db"

// Config holds all application configuration
type Config struct {
	// Core Configuration
	DataDir  string // Directory holding room_capacity.csv and the semester tables
	LogLevel string

	// Catalog Configuration
	SearchURL   string // Empty uses the built-in catalog URL
	TermPattern string // Regexp for the term control; empty uses the built-in pattern
	Year        int    // Academic year filter (0 = any)
	MaxPages    int    // Stop after this many pages (0 = no limit)

	// Browser Configuration
	Headless       bool
	UserAgent      string // Empty draws a desktop Chrome user agent
	BrowserTimeout time.Duration

	// Pacing Configuration
	Throttle       time.Duration
	SettleDelay    time.Duration
	ResultsTimeout time.Duration
	ChangeTimeout  time.Duration
	PollInterval   time.Duration

	// Output Configuration
	LedgerPath      string // Slot ledger database (empty = disabled)
	MetricsTextfile string // node-exporter textfile path (empty = disabled)

	R2          R2Config
	Sentry      SentryConfig
	BetterStack string // Better Stack source token (empty = local logs only)
}

// R2Config holds table publishing settings.
type R2Config struct {
	Enabled         bool
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	Prefix          string
}

// Endpoint returns the account's S3-compatible endpoint.
func (c R2Config) Endpoint() string {
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", c.AccountID)
}

// SentryConfig holds error reporting settings.
type SentryConfig struct {
	Token       string
	Host        string
	Environment string
	SampleRate  float64
}

// Load reads configuration from environment variables
// It attempts to load .env file first, then reads from env vars
func Load() (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	dataDir := getEnv(EnvDataDir, "./data")
	cfg := &Config{
		DataDir:  dataDir,
		LogLevel: getEnv(EnvLogLevel, "info"),

		SearchURL:   getEnv(EnvSearchURL, ""),
		TermPattern: getEnv(EnvTermPattern, ""),
		Year:        getIntEnv(EnvYear, 0),
		MaxPages:    getIntEnv(EnvMaxPages, 0),

		Headless:       getBoolEnv(EnvHeadless, true),
		UserAgent:      getEnv(EnvUserAgent, ""),
		BrowserTimeout: getDurationEnv(EnvBrowserTimeout, BrowserOperation),

		Throttle:       getDurationEnv(EnvThrottle, PageThrottle),
		SettleDelay:    getDurationEnv(EnvSettleDelay, SettleDelay),
		ResultsTimeout: getDurationEnv(EnvResultsTimeout, ResultsWait),
		ChangeTimeout:  getDurationEnv(EnvChangeTimeout, PageChangeWait),
		PollInterval:   getDurationEnv(EnvPollInterval, IndicatorPoll),

		// An explicitly empty ledger path disables the ledger.
		LedgerPath:      lookupEnv(EnvLedgerPath, filepath.Join(dataDir, LedgerFile)),
		MetricsTextfile: getEnv(EnvMetricsTextfile, ""),

		R2: R2Config{
			Enabled:         getBoolEnv(EnvR2Enabled, false),
			AccountID:       getEnv(EnvR2AccountID, ""),
			AccessKeyID:     getEnv(EnvR2AccessKeyID, ""),
			SecretAccessKey: getEnv(EnvR2SecretAccessKey, ""),
			BucketName:      getEnv(EnvR2BucketName, ""),
			Prefix:          getEnv(EnvR2Prefix, "roomharvest"),
		},
		Sentry: SentryConfig{
			Token:       getEnv(EnvSentryToken, ""),
			Host:        getEnv(EnvSentryHost, ""),
			Environment: getEnv(EnvSentryEnvironment, "production"),
			SampleRate:  getFloatEnv(EnvSentrySampleRate, 1.0),
		},
		BetterStack: getEnv(EnvBetterStackToken, ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	var errs []error

	if c.DataDir == "" {
		errs = append(errs, errors.New("DATA_DIR is required"))
	}
	if c.TermPattern != "" {
		if _, err := regexp.Compile(c.TermPattern); err != nil {
			errs = append(errs, fmt.Errorf("TERM_PATTERN is not a valid regexp: %w", err))
		}
	}
	if c.Year != 0 && (c.Year < 1900 || c.Year > 2200) {
		errs = append(errs, fmt.Errorf("YEAR must be 0 or a calendar year, got %d", c.Year))
	}
	if c.MaxPages < 0 {
		errs = append(errs, fmt.Errorf("MAX_PAGES cannot be negative, got %d", c.MaxPages))
	}

	positive := []struct {
		name string
		d    time.Duration
	}{
		{"BROWSER_TIMEOUT", c.BrowserTimeout},
		{"RESULTS_TIMEOUT", c.ResultsTimeout},
		{"CHANGE_TIMEOUT", c.ChangeTimeout},
		{"POLL_INTERVAL", c.PollInterval},
	}
	for _, p := range positive {
		if p.d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", p.name, p.d))
		}
	}
	if c.Throttle < 0 {
		errs = append(errs, fmt.Errorf("THROTTLE cannot be negative, got %v", c.Throttle))
	}
	if c.SettleDelay < 0 {
		errs = append(errs, fmt.Errorf("SETTLE_DELAY cannot be negative, got %v", c.SettleDelay))
	}
	if c.PollInterval > 0 && c.ChangeTimeout > 0 && c.PollInterval >= c.ChangeTimeout {
		errs = append(errs, fmt.Errorf("POLL_INTERVAL (%v) must be shorter than CHANGE_TIMEOUT (%v)", c.PollInterval, c.ChangeTimeout))
	}

	if c.R2.Enabled {
		if c.R2.AccountID == "" || c.R2.AccessKeyID == "" || c.R2.SecretAccessKey == "" || c.R2.BucketName == "" {
			errs = append(errs, errors.New("R2_ACCOUNT_ID, R2_ACCESS_KEY_ID, R2_SECRET_ACCESS_KEY and R2_BUCKET_NAME are required when R2 is enabled"))
		}
	}
	if c.Sentry.Token != "" && c.Sentry.Host == "" {
		errs = append(errs, errors.New("SENTRY_HOST is required when SENTRY_TOKEN is set"))
	}
	if c.Sentry.SampleRate < 0 || c.Sentry.SampleRate > 1 {
		errs = append(errs, fmt.Errorf("SENTRY_SAMPLE_RATE must be within [0, 1], got %v", c.Sentry.SampleRate))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// lookupEnv is getEnv that keeps a value set to the empty string.
func lookupEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves integer environment variable with fallback to default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getBoolEnv retrieves boolean environment variable with fallback to default value
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
