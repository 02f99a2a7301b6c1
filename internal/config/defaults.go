package config

const (
	defaultStateDir         = "~/.local/share/stackpress"
	defaultTransformTimeout = 300
	defaultPipelineWorkers  = 1
	defaultThumbnailDir     = "thumbs"
	defaultManifestName     = "manifest.json"
	defaultHistoryFileName  = "history.db"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	maxPipelineWorkers      = 64
	maxTransformTimeout     = 24 * 60 * 60
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
		},
		Transform: Transform{
			Backend:        BackendMagick,
			TimeoutSeconds: defaultTransformTimeout,
		},
		Pipeline: Pipeline{
			Workers:         defaultPipelineWorkers,
			PublishStrategy: StrategyBackup,
			ThumbnailDir:    defaultThumbnailDir,
			ManifestName:    defaultManifestName,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
