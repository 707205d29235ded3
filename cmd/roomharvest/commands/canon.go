package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/garyellow/roomharvest/internal/browser"
	"github.com/garyellow/roomharvest/internal/dayperiod"
	"github.com/garyellow/roomharvest/internal/room"
)

func init() {
	rootCmd.AddCommand(canonCmd, installCmd)
}

var canonCmd = &cobra.Command{
	Use:   "canon <raw>...",
	Short: "Shows how raw room and day/period strings are interpreted.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t := newTable(cmd.OutOrStdout())
		t.AppendHeader(table.Row{"Raw", "Room", "Rule", "Day", "Periods"})
		for _, raw := range args {
			code, rule := room.Trace(raw)
			if code == room.Unresolved {
				code = "(unresolved)"
			}
			day, periods := "-", "-"
			if slot, ok := dayperiod.Parse(raw); ok {
				day = slot.Day
				periods = fmt.Sprint(slot.Periods)
			}
			t.AppendRow(table.Row{raw, code, rule, day, periods})
		}
		t.Render()
		return nil
	},
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Downloads the Chromium build used by the harvester.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := browser.Install(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "[install] chromium ready")
		return nil
	},
}
