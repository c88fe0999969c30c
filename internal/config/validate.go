package config

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/robfig/cron/v3"
)

var imageSizePattern = regexp.MustCompile(`^(auto|\d+x\d+)$`)

// Validate ensures the configuration is usable. A missing API key is not an
// error here: the CLI can run without one, and the daemon reports it through
// preflight.
func (c *Config) Validate() error {
	if err := c.validateGenAI(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateMaintenance(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateGenAI() error {
	if !strings.HasPrefix(c.GenAI.BaseURL, "http://") && !strings.HasPrefix(c.GenAI.BaseURL, "https://") {
		return fmt.Errorf("genai.base_url must be an http(s) URL, got %q", c.GenAI.BaseURL)
	}
	if !imageSizePattern.MatchString(c.GenAI.ImageSize) {
		return fmt.Errorf("genai.image_size must be WIDTHxHEIGHT or auto, got %q", c.GenAI.ImageSize)
	}
	if c.GenAI.VideoTimeout <= c.GenAI.VideoPollInterval {
		return errors.New("genai.video_timeout must be greater than genai.video_poll_interval")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"workflow.workers":              c.Workflow.Workers,
		"workflow.queue_poll_interval":  c.Workflow.QueuePollInterval,
		"workflow.error_retry_interval": c.Workflow.ErrorRetryInterval,
		"workflow.heartbeat_interval":   c.Workflow.HeartbeatInterval,
		"workflow.heartbeat_timeout":    c.Workflow.HeartbeatTimeout,
	}); err != nil {
		return err
	}
	if c.Workflow.HeartbeatTimeout <= c.Workflow.HeartbeatInterval {
		return errors.New("workflow.heartbeat_timeout must be greater than workflow.heartbeat_interval")
	}
	return nil
}

func (c *Config) validateMaintenance() error {
	if c.Maintenance.Schedule == "" {
		return nil
	}
	if _, err := cron.ParseStandard(c.Maintenance.Schedule); err != nil {
		return fmt.Errorf("maintenance.schedule: %w", err)
	}
	return nil
}

func (c *Config) validateNotifications() error {
	topic := c.Notifications.NtfyTopic
	if topic == "" {
		return nil
	}
	if !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return fmt.Errorf("notifications.ntfy_topic must be a full http(s) topic URL, got %q", topic)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
