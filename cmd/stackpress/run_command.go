package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"stackpress/internal/config"
	"stackpress/internal/fileutil"
	"stackpress/internal/history"
	"stackpress/internal/logging"
	"stackpress/internal/pipeline"
)

const maxErrorColumn = 60

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		workers  int
		backend  string
		strategy string
		jsonOut  bool
	)

	cmd := &cobra.Command{
		Use:   "run [dir]",
		Short: "Composite, compress and publish every TIFF in a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			overridden := *cfg
			if cmd.Flags().Changed("workers") {
				overridden.Pipeline.Workers = workers
			}
			if cmd.Flags().Changed("backend") {
				overridden.Transform.Backend = strings.ToLower(strings.TrimSpace(backend))
			}
			if cmd.Flags().Changed("strategy") {
				overridden.Pipeline.PublishStrategy = strings.ToLower(strings.TrimSpace(strategy))
			}
			if overridden.Pipeline.Workers < 1 {
				return fmt.Errorf("--workers must be at least 1")
			}
			if err := overridden.Validate(); err != nil {
				return err
			}
			cfg = &overridden

			dir, err := targetDir(args)
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}

			invoker, err := ctx.newInvoker(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}

			var options []pipeline.Option
			if cfg.History.Enabled {
				store, err := history.Open(cmd.Context(), cfg.History.Path)
				if err != nil {
					return fmt.Errorf("open history: %w", err)
				}
				defer store.Close()
				options = append(options, pipeline.WithRecorder(store))
			}

			orchestrator := pipeline.New(invoker, pipelineOptions(cfg), logger, options...)
			report, runErr := orchestrator.Run(cmd.Context(), dir)
			if runErr != nil && report.RunID == "" {
				return runErr
			}

			if jsonOut {
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
			} else {
				printRunReport(cmd.OutOrStdout(), report, shouldColorize(cmd.OutOrStdout()))
			}
			if runErr != nil {
				logging.WithContext(logging.WithRunID(cmd.Context(), report.RunID), logger).
					Warn("run interrupted", logging.Error(runErr))
			}
			return runErr
		},
	}

	cmd.Flags().IntVarP(&workers, "workers", "w", 1, "Assets processed concurrently")
	cmd.Flags().StringVar(&backend, "backend", "", "Transform backend (magick|builtin)")
	cmd.Flags().StringVar(&strategy, "strategy", "", "Publish strategy (backup|exchange)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the run report as JSON")
	return cmd
}

func pipelineOptions(cfg *config.Config) pipeline.Options {
	return pipeline.Options{
		Workers:      cfg.Pipeline.Workers,
		Strategy:     fileutil.Strategy(cfg.Pipeline.PublishStrategy),
		ThumbnailDir: cfg.Pipeline.ThumbnailDir,
		ManifestName: cfg.Pipeline.ManifestName,
	}
}

func printRunReport(out io.Writer, report pipeline.Report, colorize bool) {
	if len(report.Outcomes) > 0 {
		rows := make([][]string, 0, len(report.Outcomes))
		for _, o := range report.Outcomes {
			status := "ok"
			if !o.OK() {
				status = "failed"
			}
			rows = append(rows, []string{
				o.Base,
				strconv.Itoa(o.Pages),
				colorizeStatus(status, colorize),
				string(o.FailedStep),
				o.Duration.Round(time.Millisecond).String(),
				truncate(o.Error, maxErrorColumn),
			})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Asset", "Pages", "Status", "Step", "Duration", "Error"},
			rows,
			[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignRight, alignLeft},
		))
	}

	summary := fmt.Sprintf("%d assets: %d ok, %d failed", len(report.Outcomes), report.Succeeded(), report.Failed())
	kind := statusOK
	switch {
	case report.Canceled:
		kind = statusWarn
		summary += " (interrupted)"
	case report.Failed() > 0:
		kind = statusWarn
	case len(report.Outcomes) == 0:
		kind = statusInfo
		summary = "no TIFF files found"
	}
	fmt.Fprintln(out, renderStatusLine("Run "+shortRunID(report.RunID), kind, summary, colorize))
	fmt.Fprintln(out, renderStatusLine("Manifest", statusInfo, report.ManifestPath, colorize))
}

func shortRunID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit-3] + "..."
}
