package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTransform(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateTransform() error {
	switch c.Transform.Backend {
	case BackendMagick, BackendBuiltin:
	default:
		return fmt.Errorf("transform.backend must be %q or %q, got %q", BackendMagick, BackendBuiltin, c.Transform.Backend)
	}
	if c.Transform.TimeoutSeconds > maxTransformTimeout {
		return fmt.Errorf("transform.timeout_seconds must not exceed %d", maxTransformTimeout)
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.Workers > maxPipelineWorkers {
		return fmt.Errorf("pipeline.workers must not exceed %d", maxPipelineWorkers)
	}
	switch c.Pipeline.PublishStrategy {
	case StrategyBackup, StrategyExchange:
	default:
		return fmt.Errorf("pipeline.publish_strategy must be %q or %q, got %q", StrategyBackup, StrategyExchange, c.Pipeline.PublishStrategy)
	}
	if err := ensureBareName("pipeline.thumbnail_dir", c.Pipeline.ThumbnailDir); err != nil {
		return err
	}
	if err := ensureBareName("pipeline.manifest_name", c.Pipeline.ManifestName); err != nil {
		return err
	}
	if !strings.EqualFold(filepath.Ext(c.Pipeline.ManifestName), ".json") {
		return errors.New("pipeline.manifest_name must end in .json")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
}

// ensureBareName rejects values that would escape the working directory.
func ensureBareName(key, value string) error {
	if value == "." || value == ".." || strings.ContainsAny(value, `/\`) {
		return fmt.Errorf("%s must be a plain name inside the working directory, got %q", key, value)
	}
	return nil
}
