package transform

import (
	"context"
	"fmt"
)

// Kind identifies the operation an Invoker performs.
type Kind int

const (
	// KindPageCount reports the number of frames in Inputs[0] on stdout.
	KindPageCount Kind = iota
	// KindCombine merges single-channel Inputs (R, G, B order) into Output.
	KindCombine
	// KindCompress re-encodes Inputs[0] into Output using Compression.
	KindCompress
	// KindThumbnail scales Inputs[0] to cover Width x Height, center-crops to
	// exactly that geometry, and writes a JPEG to Output.
	KindThumbnail
)

func (k Kind) String() string {
	switch k {
	case KindPageCount:
		return "page_count"
	case KindCombine:
		return "combine"
	case KindCompress:
		return "compress"
	case KindThumbnail:
		return "thumbnail"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Source names an input image, optionally narrowed to one page.
type Source struct {
	Path string
	Page int // zero-based; negative selects the whole file
}

// File selects every page of path.
func File(path string) Source { return Source{Path: path, Page: -1} }

// Page selects a single zero-based page of path.
func Page(path string, index int) Source { return Source{Path: path, Page: index} }

// Operation describes one transform invocation.
type Operation struct {
	Kind        Kind
	Inputs      []Source
	Output      string
	Compression string // KindCompress only, e.g. "LZW"
	Width       int    // KindThumbnail only
	Height      int    // KindThumbnail only
}

// Result carries the captured diagnostic output of a successful invocation.
type Result struct {
	Stdout string
	Stderr string
}

// Invoker executes operations against an image toolkit.
type Invoker interface {
	Invoke(ctx context.Context, op Operation) (Result, error)
}

func (op Operation) validate() error {
	switch op.Kind {
	case KindPageCount:
		if len(op.Inputs) != 1 {
			return fmt.Errorf("%s: expected 1 input, got %d", op.Kind, len(op.Inputs))
		}
		return nil
	case KindCombine:
		if len(op.Inputs) == 0 {
			return fmt.Errorf("%s: no inputs", op.Kind)
		}
	case KindCompress:
		if len(op.Inputs) != 1 {
			return fmt.Errorf("%s: expected 1 input, got %d", op.Kind, len(op.Inputs))
		}
		if op.Compression == "" {
			return fmt.Errorf("%s: compression not set", op.Kind)
		}
	case KindThumbnail:
		if len(op.Inputs) != 1 {
			return fmt.Errorf("%s: expected 1 input, got %d", op.Kind, len(op.Inputs))
		}
		if op.Width <= 0 || op.Height <= 0 {
			return fmt.Errorf("%s: invalid geometry %dx%d", op.Kind, op.Width, op.Height)
		}
	default:
		return fmt.Errorf("unsupported operation %s", op.Kind)
	}
	if op.Output == "" {
		return fmt.Errorf("%s: output path not set", op.Kind)
	}
	return nil
}
