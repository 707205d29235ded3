package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/garyellow/roomharvest/internal/harvest"
	"github.com/garyellow/roomharvest/internal/storage"
)

var (
	replayRunID string
	runsLimit   int
)

func init() {
	replayCmd.Flags().StringVar(&replayRunID, "run", "", "Run to replay (default: latest completed run)")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Number of runs to list")
	rootCmd.AddCommand(replayCmd, runsCmd)
}

func openLedger(ctx context.Context) (*storage.DB, error) {
	if cfg.LedgerPath == "" {
		return nil, errors.New("slot ledger is disabled")
	}
	return storage.New(ctx, cfg.LedgerPath)
}

var replayCmd = &cobra.Command{
	Use:   "replay [--run <id>]",
	Short: "Rewrites the room tables from a run recorded in the slot ledger.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		db, err := openLedger(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		sum, err := harvest.Replay(ctx, layout(), db, replayRunID)
		if err != nil {
			return err
		}
		log.InfoContext(ctx, "Replayed run",
			"run_id", sum.RunID,
			"assignments", sum.Assignments,
			"changed", sum.Changed,
			"dropped", sum.Dropped,
		)

		t := newTable(cmd.OutOrStdout())
		t.AppendHeader(table.Row{"Replay", ""})
		t.AppendRows([]table.Row{
			{"Run", sum.RunID},
			{"Assignments", sum.Assignments},
			{"Cells changed", sum.Changed},
			{"Dropped", sum.Dropped},
		})
		t.Render()
		return nil
	},
}

var runsCmd = &cobra.Command{
	Use:   "runs [--limit <n>]",
	Short: "Lists the runs recorded in the slot ledger, newest first.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		db, err := openLedger(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		runs, err := db.Runs(ctx, runsLimit)
		if err != nil {
			return fmt.Errorf("list runs: %w", err)
		}

		t := newTable(cmd.OutOrStdout())
		t.AppendHeader(table.Row{"Run", "Started", "Status", "Stop", "Pages", "Scanned", "Filled", "Changed", "Error"})
		for _, r := range runs {
			t.AppendRow(table.Row{
				r.ID,
				r.StartedAt.Local().Format(time.DateTime),
				string(r.Status),
				r.StopReason,
				r.Pages,
				r.Scanned,
				r.Filled,
				r.Changed,
				r.Error,
			})
		}
		t.Render()
		return nil
	},
}
