package config

const (
	defaultFTPPort                = 21
	defaultFTPWatchDir            = "/"
	defaultFTPRecordSubdir        = "record"
	defaultFTPDialTimeout         = 10
	defaultMaxUploadMiB           = 50
	defaultPublishMaxAttempts     = 4
	defaultPublishRetryBackoff    = 2
	defaultTargetFPS              = 0
	defaultCompressCRF            = 28
	defaultStagingDir             = "~/.local/share/ftpgram/staging"
	defaultLogDir                 = "~/.local/share/ftpgram/logs"
	defaultPollInterval           = 60
	defaultWorkers                = 1
	defaultWorkflowMaxAttempts    = 3
	defaultErrorRetryInterval     = 10
	defaultHeartbeatInterval      = 15
	defaultHeartbeatTimeout       = 120
	defaultNotifyRequestTimeout   = 10
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
)

// The camera firmware the original bridge served drops raw HEVC clips with
// numeric extensions alongside finished containers.
var defaultExtensions = []string{".250", ".265", ".mp4", ".mkv", ".avi"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		FTP: FTP{
			Port:         defaultFTPPort,
			WatchDir:     defaultFTPWatchDir,
			RecordSubdir: defaultFTPRecordSubdir,
			Extensions:   append([]string(nil), defaultExtensions...),
			DialTimeout:  defaultFTPDialTimeout,
		},
		Telegram: Telegram{
			MaxUploadMiB:        defaultMaxUploadMiB,
			MaxAttempts:         defaultPublishMaxAttempts,
			RetryBackoffSeconds: defaultPublishRetryBackoff,
			OversizePolicy:      OversizeReject,
		},
		Encoding: Encoding{
			TargetFPS:   defaultTargetFPS,
			OnFailure:   EncodeFailurePublishOriginal,
			CompressCRF: defaultCompressCRF,
		},
		Paths: Paths{
			StagingDir: defaultStagingDir,
			LogDir:     defaultLogDir,
		},
		Workflow: Workflow{
			PollInterval:       defaultPollInterval,
			Workers:            defaultWorkers,
			MaxAttempts:        defaultWorkflowMaxAttempts,
			ErrorRetryInterval: defaultErrorRetryInterval,
			HeartbeatInterval:  defaultHeartbeatInterval,
			HeartbeatTimeout:   defaultHeartbeatTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
