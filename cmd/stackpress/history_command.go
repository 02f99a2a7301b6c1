package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"stackpress/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		limit   int
		runID   string
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs recorded in the history database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if _, err := os.Stat(cfg.History.Path); errors.Is(err, fs.ErrNotExist) {
				if !cfg.History.Enabled {
					fmt.Fprintln(out, "Run history is disabled; set [history] enabled = true to record runs.")
				} else {
					fmt.Fprintln(out, "No runs recorded yet.")
				}
				return nil
			}

			store, err := history.Open(cmd.Context(), cfg.History.Path)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			if id := strings.TrimSpace(runID); id != "" {
				assets, err := store.Assets(cmd.Context(), id)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, assets)
				}
				if len(assets) == 0 {
					fmt.Fprintf(out, "No assets recorded for run %s.\n", id)
					return nil
				}
				rows := make([][]string, 0, len(assets))
				for _, a := range assets {
					rows = append(rows, []string{
						a.Base,
						strconv.Itoa(a.Pages),
						fallback(a.FailedStep, "-"),
						a.Duration.String(),
						truncate(a.Error, maxErrorColumn),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Asset", "Pages", "Failed step", "Duration", "Error"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignLeft, alignRight, alignLeft},
				))
				return nil
			}

			runs, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, runs)
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded yet.")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, r := range runs {
				rows = append(rows, []string{
					r.ID,
					r.StartedAt.Local().Format(time.DateTime),
					r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String(),
					strconv.Itoa(r.Assets),
					strconv.Itoa(r.Failed),
					yesNo(r.Canceled),
					r.Dir,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Run", "Started", "Elapsed", "Assets", "Failed", "Interrupted", "Directory"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs to show")
	cmd.Flags().StringVar(&runID, "run", "", "Show per-asset outcomes for one run")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print JSON instead of a table")
	return cmd
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return value
}
