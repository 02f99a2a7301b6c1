package preflight

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"

	"stackpress/internal/config"
	"stackpress/internal/deps"
	"stackpress/internal/pipeline"
)

// CheckTransform verifies that the configured transform backend is usable.
func CheckTransform(ctx context.Context, cfg *config.Config) Result {
	const name = "Transform backend"

	if cfg.Transform.Backend == config.BackendBuiltin {
		return Result{Name: name, Passed: true, Detail: "builtin (pure Go, no external tool)"}
	}
	status := deps.CheckMagick(ctx, cfg.Transform.Binary)
	if !status.Available {
		return Result{Name: name, Detail: status.Detail}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", status.Command, status.Detail)}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckOptionalDirectory passes for a missing directory whose parent is
// writable, since the run creates it on demand.
func CheckOptionalDirectory(name, path string) Result {
	if _, err := os.Stat(path); err == nil {
		return CheckDirectoryAccess(name, path)
	}
	parent := filepath.Dir(path)
	if err := unix.Access(parent, unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: cannot create under %s: %v)", path, parent, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
}

// CheckLock reports whether another run currently holds the directory lock.
func CheckLock(dir string) Result {
	const name = "Directory lock"

	lock := flock.New(filepath.Join(dir, pipeline.LockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("lock check failed (%v)", err)}
	}
	if !locked {
		return Result{Name: name, Detail: "held by another run"}
	}
	_ = lock.Unlock()
	return Result{Name: name, Passed: true, Detail: "available"}
}
