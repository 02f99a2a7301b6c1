package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"stackpress/internal/config"
	"stackpress/internal/deps"
	"stackpress/internal/logging"
	"stackpress/internal/transform"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	// resolveMagick is swapped in tests.
	resolveMagick func(ctx context.Context, override string) (deps.Tool, error)
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{
		configFlag:    configFlag,
		resolveMagick: deps.ResolveMagick,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) logger() (*slog.Logger, error) {
	logger, err := logging.NewFromConfig(c.configValue())
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, nil
}

// newInvoker builds the transform backend selected by cfg. A missing
// ImageMagick surfaces as deps.ErrToolNotFound.
func (c *commandContext) newInvoker(ctx context.Context, cfg *config.Config, logger *slog.Logger) (transform.Invoker, error) {
	if cfg.Transform.Backend == config.BackendBuiltin {
		logger.Debug("using builtin transform backend")
		return transform.NewBuiltin(), nil
	}
	tool, err := c.resolveMagick(ctx, cfg.Transform.Binary)
	if err != nil {
		return nil, err
	}
	logger.Debug("using imagemagick",
		logging.String("binary", tool.Command),
		logging.Bool("legacy", tool.Legacy),
		logging.String("version", tool.Version),
	)
	return transform.NewMagick(tool.Command, tool.Legacy, cfg.TransformTimeout()), nil
}

// targetDir returns the directory argument or the working directory.
func targetDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve directory: %w", err)
	}
	return abs, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
