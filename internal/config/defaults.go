package config

const (
	defaultConfigPath             = "~/.config/storyreel/config.toml"
	defaultDataDir                = "~/.local/share/storyreel"
	defaultLogDir                 = "~/.local/share/storyreel/logs"
	defaultSocketPath             = "~/.local/share/storyreel/storyreel.sock"
	defaultAPIBind                = "127.0.0.1:7490"
	defaultGenAIBaseURL           = "https://api.openai.com/v1"
	defaultTextModel              = "gpt-4o-mini"
	defaultImageModel             = "gpt-image-1"
	defaultImageSize              = "1536x1024"
	defaultVideoModel             = "sora-2"
	defaultVideoSeconds           = 4
	defaultGenAITimeoutSeconds    = 120
	defaultGenAIRetryAttempts     = 1
	defaultVideoPollInterval      = 10
	defaultVideoTimeout           = 900
	defaultWorkers                = 2
	defaultLogCapacity            = 200
	defaultMaintenanceSchedule    = "@every 6h"
	defaultJobRetentionDays       = 14
	defaultNtfyRequestTimeout     = 10
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	defaultLogRetentionDays       = 30
	defaultWorkflowHeartbeat      = 15
	defaultWorkflowHeartbeatLimit = 120
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:    defaultDataDir,
			LogDir:     defaultLogDir,
			APIBind:    defaultAPIBind,
			SocketPath: defaultSocketPath,
		},
		GenAI: GenAI{
			BaseURL:           defaultGenAIBaseURL,
			TextModel:         defaultTextModel,
			ImageModel:        defaultImageModel,
			ImageSize:         defaultImageSize,
			VideoModel:        defaultVideoModel,
			VideoSeconds:      defaultVideoSeconds,
			TimeoutSeconds:    defaultGenAITimeoutSeconds,
			RetryAttempts:     defaultGenAIRetryAttempts,
			VideoPollInterval: defaultVideoPollInterval,
			VideoTimeout:      defaultVideoTimeout,
		},
		Workflow: Workflow{
			Workers:            defaultWorkers,
			QueuePollInterval:  2,
			ErrorRetryInterval: 10,
			HeartbeatInterval:  defaultWorkflowHeartbeat,
			HeartbeatTimeout:   defaultWorkflowHeartbeatLimit,
			LogCapacity:        defaultLogCapacity,
		},
		Maintenance: Maintenance{
			Schedule:         defaultMaintenanceSchedule,
			JobRetentionDays: defaultJobRetentionDays,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyRequestTimeout,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
