package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateAnalysis(); err != nil {
		return err
	}
	if err := c.validateSwapDetector(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.CatalogDir == "" {
		return errors.New("paths.catalog_dir must be set")
	}
	if c.Paths.DatabasePath == "" {
		return errors.New("paths.database_path must be set")
	}
	if c.Paths.StateDir == "" {
		return errors.New("paths.state_dir must be set")
	}
	return nil
}

func (c *Config) validateAnalysis() error {
	if c.Analysis.FuzzyThreshold < 0 || c.Analysis.FuzzyThreshold > maxFuzzyThreshold {
		return fmt.Errorf("analysis.fuzzy_threshold must be between 0 and %d", maxFuzzyThreshold)
	}
	if c.Analysis.HashWorkers <= 0 {
		return errors.New("analysis.hash_workers must be positive")
	}
	return nil
}

func (c *Config) validateSwapDetector() error {
	if c.SwapDetector.StartTimeoutSeconds <= 0 {
		return errors.New("swap_detector.start_timeout_seconds must be positive")
	}
	if c.SwapDetector.RequestTimeoutSeconds <= 0 {
		return errors.New("swap_detector.request_timeout_seconds must be positive")
	}
	if c.SwapDetector.Enabled && c.SwapDetector.Script == "" {
		return errors.New("swap_detector.script must be set when swap_detector.enabled is true")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (want console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
