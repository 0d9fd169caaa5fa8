package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"mintada/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_STATE_HOME", "")
	t.Setenv("MINTADA_CATALOG_DIR", "")
	t.Setenv("MINTADA_DATABASE", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	if want := filepath.Join(tempHome, "mintada", "catalog"); cfg.Paths.CatalogDir != want {
		t.Fatalf("unexpected catalog dir: got %q want %q", cfg.Paths.CatalogDir, want)
	}
	if want := filepath.Join(tempHome, ".local", "state", "mintada"); cfg.Paths.StateDir != want {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, want)
	}
	if cfg.Analysis.FuzzyThreshold != 9 {
		t.Fatalf("expected fuzzy threshold 9, got %d", cfg.Analysis.FuzzyThreshold)
	}
	if cfg.SwapDetector.Enabled {
		t.Fatal("expected swap detector disabled by default")
	}
	if cfg.SwapStartTimeout().Seconds() != 30 || cfg.SwapRequestTimeout().Seconds() != 15 {
		t.Fatalf("unexpected swap timeouts: %v %v", cfg.SwapStartTimeout(), cfg.SwapRequestTimeout())
	}
	if cfg.HashCachePath() != filepath.Join(cfg.Paths.StateDir, "hash_cache.json") {
		t.Fatalf("unexpected hash cache path %q", cfg.HashCachePath())
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "mintada.toml")
	t.Setenv("MINTADA_CATALOG_DIR", "")
	t.Setenv("MINTADA_DATABASE", "")

	type payload struct {
		Paths struct {
			CatalogDir   string `toml:"catalog_dir"`
			DatabasePath string `toml:"database_path"`
			StateDir     string `toml:"state_dir"`
		} `toml:"paths"`
		Analysis struct {
			FuzzyThreshold   int  `toml:"fuzzy_threshold"`
			PersistHashCache bool `toml:"persist_hash_cache"`
		} `toml:"analysis"`
		Logging struct {
			Format string `toml:"format"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Paths.CatalogDir = filepath.Join(tempDir, "catalog")
	custom.Paths.DatabasePath = filepath.Join(tempDir, "db", "mintada.db")
	custom.Paths.StateDir = filepath.Join(tempDir, "state")
	custom.Analysis.FuzzyThreshold = 5
	custom.Logging.Format = " JSON "
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Analysis.FuzzyThreshold != 5 {
		t.Fatalf("expected fuzzy threshold 5, got %d", cfg.Analysis.FuzzyThreshold)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected normalized json format, got %q", cfg.Logging.Format)
	}
	if cfg.HashCachePath() != "" {
		t.Fatalf("expected hash cache persistence disabled, got %q", cfg.HashCachePath())
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.LockDir(), filepath.Dir(cfg.Paths.DatabasePath), cfg.Paths.CatalogDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
	}
}

func TestEnvOverridesCatalogAndDatabase(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("MINTADA_CATALOG_DIR", filepath.Join(tempDir, "env-catalog"))
	t.Setenv("MINTADA_DATABASE", filepath.Join(tempDir, "env.db"))

	cfg, _, _, err := config.Load(filepath.Join(tempDir, "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.CatalogDir != filepath.Join(tempDir, "env-catalog") {
		t.Fatalf("catalog env override ignored: %q", cfg.Paths.CatalogDir)
	}
	if cfg.Paths.DatabasePath != filepath.Join(tempDir, "env.db") {
		t.Fatalf("database env override ignored: %q", cfg.Paths.DatabasePath)
	}
}

func TestSwapArgsIncludeScriptAndInteractiveFlag(t *testing.T) {
	cfg := config.Default()
	cfg.SwapDetector.Script = "/opt/flip/detect.py"
	args := cfg.SwapArgs()
	if len(args) != 2 || args[0] != "/opt/flip/detect.py" || args[1] != "--interactive" {
		t.Fatalf("unexpected swap args %v", args)
	}
}

func TestCreateSample(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "fuzzy_threshold = 9") {
		t.Fatalf("sample config missing analysis defaults:\n%s", data)
	}
	var decoded config.Config
	if err := toml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("sample config does not parse: %v", err)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"threshold", func(c *config.Config) { c.Analysis.FuzzyThreshold = 65 }, "fuzzy_threshold"},
		{"workers", func(c *config.Config) { c.Analysis.HashWorkers = 0 }, "hash_workers"},
		{"start timeout", func(c *config.Config) { c.SwapDetector.StartTimeoutSeconds = 0 }, "start_timeout_seconds"},
		{"request timeout", func(c *config.Config) { c.SwapDetector.RequestTimeoutSeconds = -1 }, "request_timeout_seconds"},
		{"enabled without script", func(c *config.Config) { c.SwapDetector.Enabled = true }, "swap_detector.script"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"catalog", func(c *config.Config) { c.Paths.CatalogDir = "" }, "catalog_dir"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}
