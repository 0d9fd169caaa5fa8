package preflight

import (
	"context"

	"mintada/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
	// Optional checks do not fail the overall status.
	Optional bool
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Catalog directory", cfg.Paths.CatalogDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDatabase(ctx, cfg.Paths.DatabasePath),
	}
	worker := CheckSwapWorker(cfg)
	worker.Optional = true
	return append(results, worker)
}

// Healthy reports whether every required check passed.
func Healthy(results []Result) bool {
	for _, r := range results {
		if !r.Passed && !r.Optional {
			return false
		}
	}
	return true
}
