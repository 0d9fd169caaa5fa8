package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"mintada/internal/analysis"
	"mintada/internal/catalog"
	"mintada/internal/config"
	"mintada/internal/imaging"
	"mintada/internal/lifecycle"
	"mintada/internal/logging"
	"mintada/internal/rulers"
	"mintada/internal/services"
	"mintada/internal/services/swapdetect"
	"mintada/internal/store"
)

type commandContext struct {
	configFlag *string
	verbose    *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger

	storeMu sync.Mutex
	store   *store.Store
	swap    *swapdetect.Client
}

func newCommandContext(configFlag *string, verbose *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		verbose:    verbose,
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
			c.configErr = services.Wrap(services.ErrConfiguration, "config", "load", "", err)
			return
		}
		if c.verbose != nil && *c.verbose {
			cfg.Logging.Level = "debug"
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() *slog.Logger {
	c.loggerOnce.Do(func() {
		logger, err := logging.NewFromConfig(c.config)
		if err != nil {
			logger = logging.NewNop()
		}
		c.logger = logger
	})
	return c.logger
}

func (c *commandContext) openStore() (*store.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	c.storeMu.Lock()
	defer c.storeMu.Unlock()
	if c.store != nil {
		return c.store, nil
	}
	st, err := store.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open catalog database: %w", err)
	}
	c.store = st
	return st, nil
}

func (c *commandContext) layout() catalog.Layout {
	return catalog.Layout{Root: c.config.Paths.CatalogDir}
}

func (c *commandContext) engine() (*lifecycle.Engine, error) {
	st, err := c.openStore()
	if err != nil {
		return nil, err
	}
	return lifecycle.New(lifecycle.Options{
		Store:   st,
		Layout:  c.layout(),
		LockDir: c.config.LockDir(),
		Logger:  c.ensureLogger(),
	}), nil
}

func (c *commandContext) resolver() (*rulers.Resolver, *store.Store, error) {
	st, err := c.openStore()
	if err != nil {
		return nil, nil, err
	}
	return rulers.NewResolver(st, c.ensureLogger()), st, nil
}

func (c *commandContext) hasher() *imaging.Hasher {
	logger := c.ensureLogger()
	return imaging.NewHasher(imaging.NewHashCache(c.config.HashCachePath(), logger), logger)
}

func (c *commandContext) analysisSession() *analysis.Session {
	opts := analysis.Options{
		Hasher:    c.hasher(),
		Threshold: c.config.Analysis.FuzzyThreshold,
		Workers:   c.config.Analysis.HashWorkers,
		Logger:    c.ensureLogger(),
	}
	c.storeMu.Lock()
	if c.swap == nil {
		c.swap = swapdetect.NewFromConfig(c.config, c.ensureLogger())
	}
	if c.swap != nil {
		opts.Swap = c.swap
	}
	c.storeMu.Unlock()
	return analysis.NewSession(opts)
}

func (c *commandContext) close() {
	c.storeMu.Lock()
	defer c.storeMu.Unlock()
	if c.swap != nil {
		c.swap.Stop()
		c.swap = nil
	}
	if c.store != nil {
		_ = c.store.Close()
		c.store = nil
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func parseID(kind, value string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || id <= 0 {
		return 0, services.Wrap(services.ErrValidation, "cli", "", fmt.Sprintf("invalid %s id %q", kind, value), nil)
	}
	return id, nil
}

func parseIDs(kind string, values []string) ([]int64, error) {
	ids := make([]int64, 0, len(values))
	for _, v := range values {
		id, err := parseID(kind, v)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
