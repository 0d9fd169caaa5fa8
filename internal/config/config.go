package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains catalog, database, and state locations.
type Paths struct {
	CatalogDir   string `toml:"catalog_dir"`
	DatabasePath string `toml:"database_path"`
	StateDir     string `toml:"state_dir"`
}

// Analysis contains settings for background hashing and grouping.
type Analysis struct {
	FuzzyThreshold   int  `toml:"fuzzy_threshold"`
	HashWorkers      int  `toml:"hash_workers"`
	PersistHashCache bool `toml:"persist_hash_cache"`
}

// SwapDetector contains settings for the external face-swap classifier.
type SwapDetector struct {
	Enabled               bool   `toml:"enabled"`
	Command               string `toml:"command"`
	Script                string `toml:"script"`
	StartTimeoutSeconds   int    `toml:"start_timeout_seconds"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Mintada.
//
// Configuration sections by subsystem:
//   - Paths: catalog root, SQLite database, and state directory
//   - Analysis: perceptual hash grouping and hash cache
//   - SwapDetector: external obverse/reverse classifier worker
//   - Logging: log format and level
type Config struct {
	Paths        Paths        `toml:"paths"`
	Analysis     Analysis     `toml:"analysis"`
	SwapDetector SwapDetector `toml:"swap_detector"`
	Logging      Logging      `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	if base, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok && strings.TrimSpace(base) != "" {
		return expandPath(filepath.Join(base, "mintada", "config.toml"))
	}
	return expandPath("~/.config/mintada/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("mintada.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state directory and its lock area. The
// catalog directory is created on a best-effort basis so read-only commands
// still work when the catalog lives on removable storage.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.LockDir(), filepath.Dir(c.Paths.DatabasePath)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.CatalogDir) != "" {
		_ = os.MkdirAll(c.Paths.CatalogDir, 0o755)
	}
	return nil
}

// LockDir returns the directory holding per-coin lock files.
func (c *Config) LockDir() string {
	return filepath.Join(c.Paths.StateDir, "locks")
}

// HashCachePath returns the persisted perceptual hash cache location, or an
// empty string when persistence is disabled.
func (c *Config) HashCachePath() string {
	if !c.Analysis.PersistHashCache {
		return ""
	}
	return filepath.Join(c.Paths.StateDir, "hash_cache.json")
}

// SwapStartTimeout returns the worker startup timeout.
func (c *Config) SwapStartTimeout() time.Duration {
	return time.Duration(c.SwapDetector.StartTimeoutSeconds) * time.Second
}

// SwapRequestTimeout returns the per-request worker timeout.
func (c *Config) SwapRequestTimeout() time.Duration {
	return time.Duration(c.SwapDetector.RequestTimeoutSeconds) * time.Second
}

// SwapArgs returns the arguments passed to the swap worker command.
func (c *Config) SwapArgs() []string {
	args := make([]string, 0, 2)
	if script := strings.TrimSpace(c.SwapDetector.Script); script != "" {
		args = append(args, script)
	}
	return append(args, "--interactive")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultStateDir() string {
	if base, ok := os.LookupEnv("XDG_STATE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "mintada")
	}
	return "~/.local/state/mintada"
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
