package testsupport

import (
	"path/filepath"
	"testing"

	"mintada/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.CatalogDir = filepath.Join(base, "catalog")
	cfgVal.Paths.DatabasePath = filepath.Join(base, "db", "mintada.db")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Analysis.PersistHashCache = false
	cfgVal.Analysis.HashWorkers = 2

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithPersistentHashCache enables the on-disk hash cache.
func WithPersistentHashCache() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Analysis.PersistHashCache = true
	}
}

// WithFuzzyThreshold overrides the duplicate grouping distance.
func WithFuzzyThreshold(threshold int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Analysis.FuzzyThreshold = threshold
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.CatalogDir)
}
