package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/garyellow/roomharvest/internal/config"
	"github.com/garyellow/roomharvest/internal/r2client"
)

func init() {
	rootCmd.AddCommand(publishCmd, pullCmd)
}

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Uploads the room tables to R2, zstd-compressed, with a manifest.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), config.PublishUpload)
		defer cancel()
		return publishTables(ctx, cmd, "")
	},
}

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Restores the room tables from the last publication in R2.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), config.PublishUpload)
		defer cancel()

		store, err := newStore(ctx)
		if err != nil {
			return err
		}
		m, err := r2client.Pull(ctx, store, cfg.R2.Prefix, cfg.DataDir)
		if err != nil {
			return fmt.Errorf("pull: %w", err)
		}
		log.InfoContext(ctx, "Pulled tables", "files", len(m.Files), "run_id", m.RunID, "published_at", m.PublishedAt)

		t := newTable(cmd.OutOrStdout())
		t.AppendHeader(table.Row{"Path", "Size"})
		for _, f := range m.Files {
			t.AppendRow(table.Row{f.Path, f.Size})
		}
		t.Render()
		return nil
	},
}

func newStore(ctx context.Context) (*r2client.Client, error) {
	if !cfg.R2.Enabled {
		return nil, errors.New("R2 publishing is disabled (" + config.EnvR2Enabled + ")")
	}
	return r2client.New(ctx, r2client.Config{
		Endpoint:    cfg.R2.Endpoint(),
		AccessKeyID: cfg.R2.AccessKeyID,
		SecretKey:   cfg.R2.SecretAccessKey,
		BucketName:  cfg.R2.BucketName,
	})
}

// publishTables uploads the roster and every semester grid.
func publishTables(ctx context.Context, cmd *cobra.Command, runID string) error {
	store, err := newStore(ctx)
	if err != nil {
		return err
	}
	l := layout()
	files := append([]string{l.RosterPath()}, l.Files()...)

	res, err := r2client.Publish(ctx, store, cfg.R2.Prefix, l.Root, files, runID)
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	log.InfoContext(ctx, "Published tables",
		"prefix", cfg.R2.Prefix,
		"uploaded", res.Uploaded,
		"unchanged", res.Unchanged,
		"run_id", runID,
	)
	fmt.Fprintf(cmd.OutOrStdout(), "[publish] uploaded=%d, unchanged=%d, prefix=%s\n", res.Uploaded, res.Unchanged, cfg.R2.Prefix)
	return nil
}
