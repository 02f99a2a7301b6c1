package deps

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// ErrToolNotFound reports that no usable ImageMagick installation exists.
var ErrToolNotFound = errors.New("imagemagick not found")

const probeTimeout = 10 * time.Second

// Tool is a resolved ImageMagick entry point.
type Tool struct {
	Command string
	// Legacy is true for the ImageMagick 6 `convert` CLI, false for IM7 `magick`.
	Legacy  bool
	Version string
}

// VersionProbe runs `<command> -version` and returns its combined output.
type VersionProbe func(ctx context.Context, command string) (string, error)

func probeVersion(ctx context.Context, command string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, command, "-version") //nolint:gosec
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.String(), err
}

// ResolveMagick locates ImageMagick. A non-empty override is used as-is;
// otherwise `magick` is preferred when `magick -version` succeeds, and
// `convert` is accepted when its version banner names ImageMagick.
func ResolveMagick(ctx context.Context, override string) (Tool, error) {
	return ResolveMagickWithProbe(ctx, override, probeVersion)
}

// ResolveMagickWithProbe allows injecting the version probe for testing.
func ResolveMagickWithProbe(ctx context.Context, override string, probe VersionProbe) (Tool, error) {
	if probe == nil {
		probe = probeVersion
	}
	if cmd := strings.TrimSpace(override); cmd != "" {
		resolved, err := exec.LookPath(cmd)
		if err != nil {
			return Tool{}, fmt.Errorf("%w: binary %q not found", ErrToolNotFound, cmd)
		}
		output, err := probe(ctx, resolved)
		if err != nil && !strings.Contains(output, "ImageMagick") {
			return Tool{}, fmt.Errorf("%w: %q -version failed: %v", ErrToolNotFound, cmd, err)
		}
		return Tool{Command: resolved, Legacy: !isMagickEntryPoint(resolved), Version: firstLine(output)}, nil
	}

	if resolved, err := exec.LookPath("magick"); err == nil {
		if output, err := probe(ctx, resolved); err == nil {
			return Tool{Command: resolved, Version: firstLine(output)}, nil
		}
	}
	if resolved, err := exec.LookPath("convert"); err == nil {
		if output, _ := probe(ctx, resolved); strings.Contains(output, "ImageMagick") {
			return Tool{Command: resolved, Legacy: true, Version: firstLine(output)}, nil
		}
	}
	return Tool{}, fmt.Errorf("%w: install ImageMagick (magick or convert) or set transform.binary", ErrToolNotFound)
}

// CheckMagick reports ImageMagick availability in the same shape as CheckBinaries.
func CheckMagick(ctx context.Context, override string) Status {
	status := Status{
		Name:        "ImageMagick",
		Command:     strings.TrimSpace(override),
		Description: "Transform tool for the magick backend",
	}
	tool, err := ResolveMagick(ctx, override)
	if err != nil {
		status.Detail = err.Error()
		return status
	}
	status.Command = tool.Command
	status.Available = true
	status.Detail = tool.Version
	return status
}

func isMagickEntryPoint(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	name = strings.TrimSuffix(name, ".exe")
	return name == "magick"
}

func firstLine(output string) string {
	for _, line := range strings.Split(output, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
