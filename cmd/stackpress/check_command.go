package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"stackpress/internal/preflight"
)

var errChecksFailed = errors.New("preflight checks failed")

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check [dir]",
		Short: "Report transform tool and directory readiness",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dir, err := targetDir(args)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader("stackpress readiness", colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, renderStatusLine("Backend", statusInfo, cfg.Transform.Backend, colorize))
			fmt.Fprintln(out, renderStatusLine("Workers", statusInfo, fmt.Sprintf("%d", cfg.Pipeline.Workers), colorize))
			fmt.Fprintln(out, renderStatusLine("History", statusInfo, yesNo(cfg.History.Enabled), colorize))

			failed := 0
			for _, result := range preflight.RunAll(cmd.Context(), cfg, dir) {
				kind := statusOK
				if !result.Passed {
					kind = statusError
					failed++
				}
				fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}
			if failed > 0 {
				return fmt.Errorf("%w: %d of the checks above did not pass", errChecksFailed, failed)
			}
			return nil
		},
	}
}
