// Package config defines environment variable keys for configuration.
package config

//nolint:gosec,revive // Environment variable keys are not credentials and do not need per-const comments.
const (
	// Core
	EnvDataDir  = "ROOMHARVEST_DATA_DIR"
	EnvLogLevel = "ROOMHARVEST_LOG_LEVEL"

	// Catalog
	EnvSearchURL   = "ROOMHARVEST_SEARCH_URL"
	EnvTermPattern = "ROOMHARVEST_TERM_PATTERN"
	EnvYear        = "ROOMHARVEST_YEAR"
	EnvMaxPages    = "ROOMHARVEST_MAX_PAGES"

	// Browser
	EnvHeadless       = "ROOMHARVEST_HEADLESS"
	EnvUserAgent      = "ROOMHARVEST_USER_AGENT"
	EnvBrowserTimeout = "ROOMHARVEST_BROWSER_TIMEOUT"

	// Pacing
	EnvThrottle       = "ROOMHARVEST_THROTTLE"
	EnvSettleDelay    = "ROOMHARVEST_SETTLE_DELAY"
	EnvResultsTimeout = "ROOMHARVEST_RESULTS_TIMEOUT"
	EnvChangeTimeout  = "ROOMHARVEST_CHANGE_TIMEOUT"
	EnvPollInterval   = "ROOMHARVEST_POLL_INTERVAL"

	// Outputs
	EnvLedgerPath      = "ROOMHARVEST_LEDGER_PATH"
	EnvMetricsTextfile = "ROOMHARVEST_METRICS_TEXTFILE"

	// R2 Publishing Feature
	EnvR2Enabled         = "ROOMHARVEST_R2_ENABLED"
	EnvR2AccountID       = "ROOMHARVEST_R2_ACCOUNT_ID"
	EnvR2AccessKeyID     = "ROOMHARVEST_R2_ACCESS_KEY_ID"
	EnvR2SecretAccessKey = "ROOMHARVEST_R2_SECRET_ACCESS_KEY"
	EnvR2BucketName      = "ROOMHARVEST_R2_BUCKET_NAME"
	EnvR2Prefix          = "ROOMHARVEST_R2_PREFIX"

	// Sentry Feature
	EnvSentryToken       = "ROOMHARVEST_SENTRY_TOKEN"
	EnvSentryHost        = "ROOMHARVEST_SENTRY_HOST"
	EnvSentryEnvironment = "ROOMHARVEST_SENTRY_ENVIRONMENT"
	EnvSentrySampleRate  = "ROOMHARVEST_SENTRY_SAMPLE_RATE"

	// Better Stack Feature
	EnvBetterStackToken = "ROOMHARVEST_BETTERSTACK_TOKEN"
)
