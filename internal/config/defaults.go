package config

const (
	defaultCatalogDir         = "~/mintada/catalog"
	defaultDatabasePath       = "~/mintada/mintada.db"
	defaultFuzzyThreshold     = 9
	defaultHashWorkers        = 4
	defaultSwapCommand        = "python3"
	defaultSwapStartTimeout   = 30
	defaultSwapRequestTimeout = 15
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	maxFuzzyThreshold         = 64
	envCatalogDirOverride     = "MINTADA_CATALOG_DIR"
	envDatabasePathOverride   = "MINTADA_DATABASE"
	envSwapScript             = "MINTADA_SWAP_SCRIPT"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			CatalogDir:   defaultCatalogDir,
			DatabasePath: defaultDatabasePath,
			StateDir:     defaultStateDir(),
		},
		Analysis: Analysis{
			FuzzyThreshold:   defaultFuzzyThreshold,
			HashWorkers:      defaultHashWorkers,
			PersistHashCache: true,
		},
		SwapDetector: SwapDetector{
			Enabled:               false,
			Command:               defaultSwapCommand,
			StartTimeoutSeconds:   defaultSwapStartTimeout,
			RequestTimeoutSeconds: defaultSwapRequestTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
