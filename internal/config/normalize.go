package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeGenAI()
	c.normalizeWorkflow()
	c.normalizeMaintenance()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.SocketPath) == "" {
		c.Paths.SocketPath = defaultSocketPath
	}
	if c.Paths.SocketPath, err = expandPath(c.Paths.SocketPath); err != nil {
		return fmt.Errorf("paths.socket_path: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		if value, ok := os.LookupEnv("STORYREEL_API_TOKEN"); ok {
			c.Paths.APIToken = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeGenAI() {
	c.GenAI.APIKey = strings.TrimSpace(c.GenAI.APIKey)
	if value, ok := os.LookupEnv("STORYREEL_API_KEY"); ok && strings.TrimSpace(value) != "" {
		c.GenAI.APIKey = strings.TrimSpace(value)
	} else if c.GenAI.APIKey == "" {
		if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.GenAI.APIKey = strings.TrimSpace(value)
		}
	}
	c.GenAI.BaseURL = strings.TrimRight(strings.TrimSpace(c.GenAI.BaseURL), "/")
	if c.GenAI.BaseURL == "" {
		c.GenAI.BaseURL = defaultGenAIBaseURL
	}
	c.GenAI.TextModel = defaultString(c.GenAI.TextModel, defaultTextModel)
	c.GenAI.ImageModel = defaultString(c.GenAI.ImageModel, defaultImageModel)
	c.GenAI.ImageSize = strings.ToLower(defaultString(c.GenAI.ImageSize, defaultImageSize))
	c.GenAI.VideoModel = defaultString(c.GenAI.VideoModel, defaultVideoModel)
	if c.GenAI.VideoSeconds <= 0 {
		c.GenAI.VideoSeconds = defaultVideoSeconds
	}
	if c.GenAI.TimeoutSeconds <= 0 {
		c.GenAI.TimeoutSeconds = defaultGenAITimeoutSeconds
	}
	if c.GenAI.RetryAttempts <= 0 {
		c.GenAI.RetryAttempts = defaultGenAIRetryAttempts
	}
	if c.GenAI.VideoPollInterval <= 0 {
		c.GenAI.VideoPollInterval = defaultVideoPollInterval
	}
	if c.GenAI.VideoTimeout <= 0 {
		c.GenAI.VideoTimeout = defaultVideoTimeout
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.LogCapacity <= 0 {
		c.Workflow.LogCapacity = defaultLogCapacity
	}
}

func (c *Config) normalizeMaintenance() {
	c.Maintenance.Schedule = strings.TrimSpace(c.Maintenance.Schedule)
	if c.Maintenance.JobRetentionDays < 0 {
		c.Maintenance.JobRetentionDays = 0
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

func defaultString(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("STORYREEL_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNtfyRequestTimeout
	}
}
