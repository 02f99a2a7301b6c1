package preflight

import (
	"context"
	"path/filepath"

	"stackpress/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for processing dir.
// Checks are only run when the corresponding feature is enabled.
func RunAll(ctx context.Context, cfg *config.Config, dir string) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckTransform(ctx, cfg))

	// Input directory (always checked)
	input := CheckDirectoryAccess("Input directory", dir)
	results = append(results, input)
	if input.Passed {
		results = append(results, CheckLock(dir))
		results = append(results, CheckOptionalDirectory("Thumbnail directory", filepath.Join(dir, cfg.Pipeline.ThumbnailDir)))
	}

	if cfg.History.Enabled {
		results = append(results, CheckOptionalDirectory("History directory", filepath.Dir(cfg.History.Path)))
	}

	return results
}
