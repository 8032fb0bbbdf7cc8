package config

const (
	defaultDownloadDir           = "~/Downloads/subflow"
	defaultLogDir                = "~/.local/share/subflow/logs"
	defaultStateDir              = "~/.local/share/subflow"
	defaultBaseURL               = "http://127.0.0.1:5000"
	defaultRequestTimeoutSeconds = 0
	defaultSourceLanguage        = "auto"
	defaultTargetLanguage        = "en"
	defaultSubtitleFormat        = "srt"
	defaultSelectionDelayMS      = 1000
	defaultMaxUploadMiB          = 500
	defaultNotifyRequestTimeout  = 10
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultLogRetentionDays      = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DownloadDir: defaultDownloadDir,
			LogDir:      defaultLogDir,
			StateDir:    defaultStateDir,
		},
		Service: Service{
			BaseURL:               defaultBaseURL,
			RequestTimeoutSeconds: defaultRequestTimeoutSeconds,
			ReportErrors:          true,
		},
		Pipeline: Pipeline{
			SourceLanguage:   defaultSourceLanguage,
			TargetLanguage:   defaultTargetLanguage,
			SubtitleFormat:   defaultSubtitleFormat,
			SubtitleFormats:  []string{"srt", "vtt"},
			SelectionDelayMS: defaultSelectionDelayMS,
			MaxUploadMiB:     defaultMaxUploadMiB,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Success:        true,
			Warnings:       false,
			Errors:         true,
		},
		History: History{
			Enabled: true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
