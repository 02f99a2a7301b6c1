package transform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Executor abstracts subprocess execution for the Magick invoker.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) (stdout, stderr []byte, err error)
}

// commandExecutor executes commands using os/exec.
type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Magick drives ImageMagick through its command line.
//
// In legacy mode the binary is an ImageMagick 6 `convert`; otherwise it is the
// ImageMagick 7 `magick` entry point, which needs the `identify` subcommand
// for page counting.
type Magick struct {
	binary  string
	legacy  bool
	timeout time.Duration
	exec    Executor
}

// NewMagick constructs a Magick invoker. A zero timeout disables the
// per-invocation deadline.
func NewMagick(binary string, legacy bool, timeout time.Duration) *Magick {
	return NewMagickWithExecutor(binary, legacy, timeout, nil)
}

// NewMagickWithExecutor allows injecting a custom executor for testing.
func NewMagickWithExecutor(binary string, legacy bool, timeout time.Duration, exec Executor) *Magick {
	if exec == nil {
		exec = commandExecutor{}
	}
	return &Magick{
		binary:  strings.TrimSpace(binary),
		legacy:  legacy,
		timeout: timeout,
		exec:    exec,
	}
}

// Binary returns the configured executable.
func (m *Magick) Binary() string { return m.binary }

// Legacy reports whether the invoker targets the ImageMagick 6 convert CLI.
func (m *Magick) Legacy() bool { return m.legacy }

// Invoke runs op as a single ImageMagick command.
func (m *Magick) Invoke(ctx context.Context, op Operation) (Result, error) {
	if m.binary == "" {
		return Result{}, errors.New("imagemagick binary not configured")
	}
	if err := op.validate(); err != nil {
		return Result{}, err
	}
	args := m.Args(op)

	runCtx := ctx
	if m.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	stdout, stderr, err := m.exec.Run(runCtx, m.binary, args)
	result := Result{Stdout: string(stdout), Stderr: string(stderr)}
	if err != nil {
		if ctx.Err() == nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s: %w", m.timeout, context.DeadlineExceeded)
		} else if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w: %v", ctxErr, err)
		}
		return result, &CommandError{
			Binary: m.binary,
			Args:   args,
			Stdout: result.Stdout,
			Stderr: result.Stderr,
			Err:    err,
		}
	}
	return result, nil
}

// Args returns the argument vector used for op.
func (m *Magick) Args(op Operation) []string {
	switch op.Kind {
	case KindPageCount:
		if m.legacy {
			return []string{op.Inputs[0].spec(), "-format", "%n\n", "info:"}
		}
		return []string{"identify", "-format", "%n\n", op.Inputs[0].spec()}
	case KindCombine:
		args := make([]string, 0, len(op.Inputs)+2)
		for _, in := range op.Inputs {
			args = append(args, in.spec())
		}
		return append(args, "-combine", op.Output)
	case KindCompress:
		return []string{op.Inputs[0].spec(), "-compress", op.Compression, op.Output}
	case KindThumbnail:
		geometry := strconv.Itoa(op.Width) + "x" + strconv.Itoa(op.Height)
		return []string{
			op.Inputs[0].spec(),
			"-thumbnail", geometry + "^",
			"-gravity", "center",
			"-extent", geometry,
			op.Output,
		}
	default:
		return nil
	}
}

// spec renders the ImageMagick file specification, e.g. "scan.tif[1]".
func (s Source) spec() string {
	if s.Page < 0 {
		return s.Path
	}
	return s.Path + "[" + strconv.Itoa(s.Page) + "]"
}
