package pipeline

import (
	"context"
	"strconv"
	"strings"

	"stackpress/internal/transform"
)

// PageCount returns the number of frames in path. Tool failures are errors;
// output that is not an integer yields 1, as does any value below 1.
func PageCount(ctx context.Context, invoker transform.Invoker, path string) (int, error) {
	res, err := invoker.Invoke(ctx, transform.Operation{
		Kind:   transform.KindPageCount,
		Inputs: []transform.Source{transform.File(path)},
	})
	if err != nil {
		return 0, err
	}
	line := firstNonEmptyLine(res.Stdout)
	if line == "" {
		line = firstNonEmptyLine(res.Stderr)
	}
	pages, err := strconv.Atoi(line)
	if err != nil || pages < 1 {
		return 1, nil
	}
	return pages, nil
}

func firstNonEmptyLine(output string) string {
	for _, line := range strings.Split(output, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
