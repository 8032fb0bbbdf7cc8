package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"subflow/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent pipeline runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if jsonOutput {
				if runs == nil {
					runs = []history.Run{}
				}
				return writeJSON(cmd, runs)
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			fmt.Fprintln(out, renderTable([]column{
				{Header: "Started"},
				{Header: "Media", MaxWidth: 32},
				{Header: "Status"},
				{Header: "Stage"},
				{Header: "Segments", Align: alignRight},
				{Header: "Result", MaxWidth: 48},
			}, historyRows(runs)))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print runs as JSON")

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(ctx)
			if err != nil {
				return err
			}
			defer store.Close()
			removed, err := store.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d runs\n", removed)
			return nil
		},
	})
	return cmd
}

func openHistory(ctx *commandContext) (*history.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.History.Enabled {
		return nil, errors.New("run history is disabled (set history.enabled = true)")
	}
	return history.Open(cfg)
}

func historyRows(runs []history.Run) [][]string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		result := run.Location
		switch {
		case run.LastError != "":
			result = run.LastError
		case run.Status == history.StatusCompleted && run.TargetLanguage != "":
			result = fmt.Sprintf("%s [%s]", run.Location, run.TargetLanguage)
		}
		status := string(run.Status)
		if run.CleanupFailed {
			status += " (cleanup failed)"
		}
		rows = append(rows, []string{
			run.StartedAt.Local().Format(time.DateTime),
			run.MediaName,
			status,
			run.Stage,
			strconv.Itoa(run.Segments),
			strings.TrimSpace(result),
		})
	}
	return rows
}
