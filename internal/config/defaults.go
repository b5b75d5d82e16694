package config

const (
	defaultScanDir               = "~/scans"
	defaultWorkDir               = "~/.local/share/scanflow/stages"
	defaultLogDir                = "~/.local/share/scanflow/logs"
	defaultRecognitionTimeout    = 30
	defaultRecognitionAttempts   = 3
	defaultRecognitionRetryDelay = 2000
	defaultUploadTimeout         = 30
	defaultUploadAttempts        = 3
	defaultUploadRetryDelay      = 2000
	defaultUploadMaxBatchFiles   = 5
	defaultCompressionBinary     = "gs"
	defaultCompressionPreset     = "ebook"
	defaultCompressionTimeout    = 120
	defaultWatcherQuietPeriod    = 5
	defaultWatcherPollIntervalMS = 750
	defaultWatcherSettleDelayMS  = 1500
	defaultNetworkProbeHost      = "www.google.com"
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ScanDir: defaultScanDir,
			WorkDir: defaultWorkDir,
			LogDir:  defaultLogDir,
		},
		Recognition: Recognition{
			TimeoutSeconds: defaultRecognitionTimeout,
			MaxAttempts:    defaultRecognitionAttempts,
			RetryDelayMS:   defaultRecognitionRetryDelay,
		},
		Upload: Upload{
			TimeoutSeconds: defaultUploadTimeout,
			MaxAttempts:    defaultUploadAttempts,
			RetryDelayMS:   defaultUploadRetryDelay,
			MaxBatchFiles:  defaultUploadMaxBatchFiles,
		},
		Compression: Compression{
			Binary:         defaultCompressionBinary,
			Preset:         defaultCompressionPreset,
			TimeoutSeconds: defaultCompressionTimeout,
		},
		Watcher: Watcher{
			QuietPeriodSeconds: defaultWatcherQuietPeriod,
			PollIntervalMS:     defaultWatcherPollIntervalMS,
			SettleDelayMS:      defaultWatcherSettleDelayMS,
		},
		Network: Network{
			ProbeHost: defaultNetworkProbeHost,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
