package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSwapDetector()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv(envCatalogDirOverride); ok && strings.TrimSpace(value) != "" {
		c.Paths.CatalogDir = strings.TrimSpace(value)
	}
	if value, ok := os.LookupEnv(envDatabasePathOverride); ok && strings.TrimSpace(value) != "" {
		c.Paths.DatabasePath = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir()
	}

	var err error
	if c.Paths.CatalogDir, err = expandPath(strings.TrimSpace(c.Paths.CatalogDir)); err != nil {
		return fmt.Errorf("paths.catalog_dir: %w", err)
	}
	if c.Paths.DatabasePath, err = expandPath(strings.TrimSpace(c.Paths.DatabasePath)); err != nil {
		return fmt.Errorf("paths.database_path: %w", err)
	}
	if c.Paths.StateDir, err = expandPath(strings.TrimSpace(c.Paths.StateDir)); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSwapDetector() {
	c.SwapDetector.Command = strings.TrimSpace(c.SwapDetector.Command)
	if c.SwapDetector.Command == "" {
		c.SwapDetector.Command = defaultSwapCommand
	}
	c.SwapDetector.Script = strings.TrimSpace(c.SwapDetector.Script)
	if c.SwapDetector.Script == "" {
		if value, ok := os.LookupEnv(envSwapScript); ok {
			c.SwapDetector.Script = strings.TrimSpace(value)
		}
	}
	if c.SwapDetector.Script != "" {
		if expanded, err := expandPath(c.SwapDetector.Script); err == nil {
			c.SwapDetector.Script = expanded
		}
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
