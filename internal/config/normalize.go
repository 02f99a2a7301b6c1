package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTransform()
	c.normalizePipeline()
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	return c.normalizeLogging()
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTransform() {
	c.Transform.Backend = strings.ToLower(strings.TrimSpace(c.Transform.Backend))
	if c.Transform.Backend == "" {
		c.Transform.Backend = BackendMagick
	}
	c.Transform.Binary = strings.TrimSpace(c.Transform.Binary)
	if c.Transform.Binary == "" {
		if value, ok := os.LookupEnv("STACKPRESS_MAGICK_BINARY"); ok {
			c.Transform.Binary = strings.TrimSpace(value)
		}
	}
	if c.Transform.TimeoutSeconds < 0 {
		c.Transform.TimeoutSeconds = 0
	}
}

func (c *Config) normalizePipeline() {
	if c.Pipeline.Workers <= 0 {
		c.Pipeline.Workers = defaultPipelineWorkers
	}
	c.Pipeline.PublishStrategy = strings.ToLower(strings.TrimSpace(c.Pipeline.PublishStrategy))
	if c.Pipeline.PublishStrategy == "" {
		c.Pipeline.PublishStrategy = StrategyBackup
	}
	c.Pipeline.ThumbnailDir = strings.TrimSpace(c.Pipeline.ThumbnailDir)
	if c.Pipeline.ThumbnailDir == "" {
		c.Pipeline.ThumbnailDir = defaultThumbnailDir
	}
	c.Pipeline.ManifestName = strings.TrimSpace(c.Pipeline.ManifestName)
	if c.Pipeline.ManifestName == "" {
		c.Pipeline.ManifestName = defaultManifestName
	}
}

func (c *Config) normalizeHistory() error {
	var err error
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = filepath.Join(c.Paths.StateDir, defaultHistoryFileName)
	}
	if c.History.Path, err = expandPath(c.History.Path); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	if value, ok := os.LookupEnv("STACKPRESS_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if strings.TrimSpace(c.Logging.File) != "" {
		var err error
		if c.Logging.File, err = expandPath(strings.TrimSpace(c.Logging.File)); err != nil {
			return fmt.Errorf("logging.file: %w", err)
		}
	}
	return nil
}
