package config

const (
	defaultBaseURL            = "https://app.appunti.ai"
	defaultRequestTimeout     = 30
	defaultMaxFileSizeMiB     = 500
	defaultTransferTimeout    = 900
	defaultPollIntervalMS     = 2000
	defaultContentType        = "lesson"
	defaultDataDir            = "~/.local/share/appunti"
	defaultLogDir             = "~/.local/share/appunti/logs"
	defaultWatchScanInterval  = 10
	defaultNtfyRequestTimeout = 10
	defaultLogLevel           = "info"
	defaultLogFormat          = "console"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Backend: Backend{
			BaseURL:        defaultBaseURL,
			RequestTimeout: defaultRequestTimeout,
		},
		Upload: Upload{
			MaxFileSizeMiB:  defaultMaxFileSizeMiB,
			TransferTimeout: defaultTransferTimeout,
		},
		Jobs: Jobs{
			PollIntervalMS:     defaultPollIntervalMS,
			DefaultContentType: defaultContentType,
		},
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Watch: Watch{
			ScanInterval: defaultWatchScanInterval,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyRequestTimeout,
			Uploads:        true,
			Completion:     true,
			Quota:          true,
			Errors:         true,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
