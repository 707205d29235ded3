// Package commands implements the roomharvest subcommands.
package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/garyellow/roomharvest/internal/buildinfo"
	"github.com/garyellow/roomharvest/internal/config"
	"github.com/garyellow/roomharvest/internal/logger"
	"github.com/garyellow/roomharvest/internal/sentry"
	"github.com/garyellow/roomharvest/internal/timetable"
)

var (
	cfg *config.Config
	log *logger.Logger

	dataDir  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "roomharvest",
	Short: "roomharvest fills classroom occupancy tables from the course catalog.",
	Long: `roomharvest walks the Fall/Winter search results of the course catalog and
records which rooms are taken in which period, per semester and weekday,
into the CSV tables under the data directory.`,
	Version:           version(),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "Data directory holding room_capacity.csv and the semester tables (default from "+config.EnvDataDir+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")
}

// ExecuteContext runs the command line and returns the process exit code.
func ExecuteContext(ctx context.Context) int {
	err := rootCmd.ExecuteContext(ctx)
	teardown()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func version() string {
	v := buildinfo.Version
	if v == "" {
		v = "dev"
	}
	if buildinfo.Commit != "" {
		v += " (" + buildinfo.Commit + ")"
	}
	if buildinfo.BuildDate != "" {
		v += " built " + buildinfo.BuildDate
	}
	return v
}

// setup loads the configuration, applies flag overrides and starts logging
// and error reporting.
func setup(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("data") {
		loaded.DataDir = dataDir
		if _, set := os.LookupEnv(config.EnvLedgerPath); !set {
			loaded.LedgerPath = filepath.Join(dataDir, config.LedgerFile)
		}
	}
	if cmd.Flags().Changed("log-level") {
		loaded.LogLevel = logLevel
	}
	if err := loaded.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	cfg = loaded

	log = logger.NewWithOptions(logger.Options{
		Level:            cfg.LogLevel,
		BetterstackToken: cfg.BetterStack,
		Async:            logger.AsyncOptions{FlushTimeout: config.LoggerShutdown},
	})

	if err := sentry.Initialize(sentry.Config{
		Token:       cfg.Sentry.Token,
		Host:        cfg.Sentry.Host,
		Environment: cfg.Sentry.Environment,
		Release:     buildinfo.Version,
		SampleRate:  cfg.Sentry.SampleRate,
	}); err != nil {
		log.Warn("Sentry disabled", "error", err)
	}
	return nil
}

func teardown() {
	if sentry.IsEnabled() {
		sentry.Flush(config.SentryFlush)
	}
	if log == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), config.LoggerShutdown)
	defer cancel()
	if err := log.Shutdown(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "log shutdown:", err)
	}
	if n := log.Dropped(); n > 0 {
		fmt.Fprintf(os.Stderr, "log shipping dropped %d records\n", n)
	}
}

func layout() timetable.Layout {
	return timetable.Layout{Root: cfg.DataDir}
}
