package commands

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/garyellow/roomharvest/internal/browser"
	"github.com/garyellow/roomharvest/internal/config"
	"github.com/garyellow/roomharvest/internal/ctxutil"
	"github.com/garyellow/roomharvest/internal/harvest"
	"github.com/garyellow/roomharvest/internal/metrics"
	"github.com/garyellow/roomharvest/internal/pager"
	"github.com/garyellow/roomharvest/internal/sentry"
	"github.com/garyellow/roomharvest/internal/storage"
)

var harvestFlags struct {
	year      int
	maxPages  int
	headless  bool
	searchURL string
	noLedger  bool
	publish   bool
}

func init() {
	f := harvestCmd.Flags()
	f.IntVar(&harvestFlags.year, "year", 0, "Only harvest rows of this academic year (0 = any)")
	f.IntVar(&harvestFlags.maxPages, "max-pages", 0, "Stop after this many result pages (0 = no limit)")
	f.BoolVar(&harvestFlags.headless, "headless", true, "Run the browser without a window")
	f.StringVar(&harvestFlags.searchURL, "search-url", "", "Catalog search page URL")
	f.BoolVar(&harvestFlags.noLedger, "no-ledger", false, "Do not record the run in the slot ledger")
	f.BoolVar(&harvestFlags.publish, "publish", false, "Upload the tables to R2 after a successful run")
	rootCmd.AddCommand(harvestCmd)
}

var harvestCmd = &cobra.Command{
	Use:   "harvest [--year <year>] [--max-pages <n>] [--publish]",
	Short: "Walks the catalog and fills the room tables.",
	Args:  cobra.NoArgs,
	RunE:  runHarvest,
}

func applyHarvestFlags(cmd *cobra.Command, c *config.Config) error {
	f := cmd.Flags()
	if f.Changed("year") {
		c.Year = harvestFlags.year
	}
	if f.Changed("max-pages") {
		c.MaxPages = harvestFlags.maxPages
	}
	if f.Changed("headless") {
		c.Headless = harvestFlags.headless
	}
	if f.Changed("search-url") {
		c.SearchURL = harvestFlags.searchURL
	}
	if harvestFlags.publish && !c.R2.Enabled {
		return errors.New("--publish needs R2 publishing enabled (" + config.EnvR2Enabled + ")")
	}
	return c.Validate()
}

// siteFor returns the catalog profile with the configured overrides.
func siteFor(c *config.Config) (pager.Site, error) {
	site := pager.DefaultSite()
	if c.SearchURL != "" {
		site.SearchURL = c.SearchURL
	}
	if c.TermPattern != "" {
		re, err := regexp.Compile(c.TermPattern)
		if err != nil {
			return site, fmt.Errorf("term pattern: %w", err)
		}
		site.TermLabel = re
	}
	return site, nil
}

func pagerOptions(c *config.Config) pager.Options {
	opts := pager.DefaultOptions()
	opts.Throttle = c.Throttle
	opts.Settle = c.SettleDelay
	opts.ResultsTimeout = c.ResultsTimeout
	opts.ChangeTimeout = c.ChangeTimeout
	opts.PollInterval = c.PollInterval
	opts.MaxPages = c.MaxPages
	return opts
}

func runHarvest(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if err := applyHarvestFlags(cmd, cfg); err != nil {
		return err
	}
	site, err := siteFor(cfg)
	if err != nil {
		return err
	}

	m := metrics.New(prometheus.NewRegistry())

	var ledger harvest.Ledger
	if cfg.LedgerPath != "" && !harvestFlags.noLedger {
		db, err := storage.New(ctx, cfg.LedgerPath)
		if err != nil {
			log.WarnContext(ctx, "Slot ledger unavailable, continuing without it", "path", cfg.LedgerPath, "error", err)
		} else {
			defer func() { _ = db.Close() }()
			ledger = db
		}
	}

	bopts := browser.DefaultOptions()
	bopts.Headless = cfg.Headless
	bopts.UserAgent = cfg.UserAgent
	bopts.Timeout = cfg.BrowserTimeout
	b, err := browser.Launch(bopts, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := b.Close(); err != nil {
			log.Warn("Failed to close browser", "error", err)
		}
	}()

	session := pager.New(b, site, pagerOptions(cfg), log, m)
	h := harvest.New(session, harvest.Config{
		Layout:  layout(),
		Year:    cfg.Year,
		Ledger:  ledger,
		Metrics: m,
		Logger:  log,
	})

	sum, runErr := h.Run(ctx)
	status := storage.RunCompleted
	if runErr != nil {
		status = storage.RunFailed
	}
	m.RecordRun(string(status), sum.Duration)
	if cfg.MetricsTextfile != "" {
		if err := m.WriteToTextfile(cfg.MetricsTextfile); err != nil {
			log.WarnContext(ctx, "Failed to write metrics textfile", "error", err)
		}
	}

	if runErr != nil {
		sentry.CaptureRunError(ctxutil.WithRunID(ctx, sum.RunID), runErr)
		return fmt.Errorf("harvest %s: %w", sum.RunID, runErr)
	}

	renderSummary(cmd.OutOrStdout(), sum, layout())

	if harvestFlags.publish {
		pctx, cancel := context.WithTimeout(ctx, config.PublishUpload)
		defer cancel()
		if err := publishTables(pctx, cmd, sum.RunID); err != nil {
			sentry.CaptureRunError(ctxutil.WithStep(ctxutil.WithRunID(ctx, sum.RunID), "publish"), err)
			return err
		}
	}
	return nil
}
