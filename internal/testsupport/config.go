package testsupport

import (
	"path/filepath"
	"testing"

	"stackpress/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It selects the builtin backend so tests never depend on ImageMagick.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Transform.Backend = config.BackendBuiltin
	cfgVal.History.Path = filepath.Join(cfgVal.Paths.StateDir, "history.db")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithWorkers sets the pipeline worker count.
func WithWorkers(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.Workers = n
	}
}

// WithHistory enables the run history database under the test state dir.
func WithHistory() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = true
	}
}

// WithMagick selects the ImageMagick backend with an explicit binary.
func WithMagick(binary string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Transform.Backend = config.BackendMagick
		b.cfg.Transform.Binary = binary
	}
}

// WithStrategy sets the publish strategy.
func WithStrategy(strategy string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.PublishStrategy = strategy
	}
}

// BaseDir returns the temp root used for the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
