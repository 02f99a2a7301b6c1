package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"stackpress/internal/transform"
)

// fakeInvoker simulates the transform tool by writing marker files.
type fakeInvoker struct {
	mu    sync.Mutex
	pages map[string]int            // base name -> page count
	fail  map[string]transform.Kind // base name -> failing operation
	ops   []transform.Operation
	after func(op transform.Operation)
}

func newFakeInvoker() *fakeInvoker {
	return &fakeInvoker{pages: map[string]int{}, fail: map[string]transform.Kind{}}
}

func (f *fakeInvoker) Invoke(ctx context.Context, op transform.Operation) (transform.Result, error) {
	if err := ctx.Err(); err != nil {
		return transform.Result{}, err
	}
	f.mu.Lock()
	f.ops = append(f.ops, op)
	after := f.after
	f.mu.Unlock()
	if after != nil {
		defer after(op)
	}

	in := op.Inputs[0].Path
	base := assetBase(in)
	f.mu.Lock()
	kind, failing := f.fail[base]
	pages, known := f.pages[base]
	f.mu.Unlock()
	if failing && kind == op.Kind {
		return transform.Result{Stderr: "simulated failure"}, &transform.CommandError{
			Binary: "fake",
			Args:   []string{op.Kind.String(), in},
			Stderr: "simulated failure",
			Err:    errors.New("exit status 1"),
		}
	}

	switch op.Kind {
	case transform.KindPageCount:
		if !known {
			pages = 1
		}
		return transform.Result{Stdout: strconv.Itoa(pages) + "\n"}, nil
	case transform.KindCombine:
		var parts []string
		for _, src := range op.Inputs {
			parts = append(parts, strconv.Itoa(src.Page))
		}
		return transform.Result{}, os.WriteFile(op.Output, []byte("rgb:"+strings.Join(parts, ",")), 0o644)
	case transform.KindCompress:
		data, err := os.ReadFile(in)
		if err != nil {
			return transform.Result{}, err
		}
		return transform.Result{}, os.WriteFile(op.Output, append([]byte("lzw:"), data...), 0o644)
	case transform.KindThumbnail:
		return transform.Result{}, os.WriteFile(op.Output, []byte("jpeg"), 0o644)
	}
	return transform.Result{}, errors.New("unexpected operation")
}

func (f *fakeInvoker) operations(kind transform.Kind) []transform.Operation {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []transform.Operation
	for _, op := range f.ops {
		if op.Kind == kind {
			out = append(out, op)
		}
	}
	return out
}

// assetBase strips directories, intermediate suffixes and the extension.
func assetBase(path string) string {
	name := filepath.Base(path)
	for {
		trimmed := strings.TrimSuffix(strings.TrimSuffix(name, CompressedSuffix), CompositeSuffix)
		if trimmed == name {
			break
		}
		name = trimmed
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}
