package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"storyreel/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("STORYREEL_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "env-openai")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "storyreel")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.APIBind != "127.0.0.1:7490" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.GenAI.APIKey != "env-openai" {
		t.Fatalf("expected OPENAI_API_KEY fallback, got %q", cfg.GenAI.APIKey)
	}
	if cfg.GenAI.RetryAttempts != 1 {
		t.Fatalf("expected single attempt by default, got %d", cfg.GenAI.RetryAttempts)
	}
	if cfg.DatabasePath() != filepath.Join(wantData, "storyreel.db") {
		t.Fatalf("unexpected database path: %q", cfg.DatabasePath())
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	t.Setenv("STORYREEL_API_KEY", "")
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "storyreel.toml")

	type payload struct {
		Paths struct {
			DataDir string `toml:"data_dir"`
		} `toml:"paths"`
		GenAI struct {
			APIKey    string `toml:"api_key"`
			BaseURL   string `toml:"base_url"`
			TextModel string `toml:"text_model"`
		} `toml:"genai"`
		Workflow struct {
			Workers int `toml:"workers"`
		} `toml:"workflow"`
	}
	custom := payload{}
	custom.Paths.DataDir = filepath.Join(tempDir, "data")
	custom.GenAI.APIKey = "file-key"
	custom.GenAI.BaseURL = "https://example.com/v1/"
	custom.GenAI.TextModel = "custom-model"
	custom.Workflow.Workers = 4
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("unexpected resolution: %q exists=%v", resolved, exists)
	}
	if cfg.GenAI.APIKey != "file-key" {
		t.Fatalf("expected key from file, got %q", cfg.GenAI.APIKey)
	}
	if cfg.GenAI.BaseURL != "https://example.com/v1" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.GenAI.BaseURL)
	}
	if cfg.GenAI.TextModel != "custom-model" {
		t.Fatalf("unexpected text model: %q", cfg.GenAI.TextModel)
	}
	if cfg.GenAI.ImageModel != config.Default().GenAI.ImageModel {
		t.Fatalf("expected default image model, got %q", cfg.GenAI.ImageModel)
	}
	if cfg.Workflow.Workers != 4 {
		t.Fatalf("expected 4 workers, got %d", cfg.Workflow.Workers)
	}
}

func TestEnvVarOverridesConfigFileKey(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "storyreel.toml")
	if err := os.WriteFile(configPath, []byte("[genai]\napi_key = \"file-key\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("STORYREEL_API_KEY", "env-key")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.GenAI.APIKey != "env-key" {
		t.Fatalf("expected env override, got %q", cfg.GenAI.APIKey)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "storyreel.toml")
	if err := os.WriteFile(configPath, []byte("[genai]\nmodel = \"typo\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestValidateFailures(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"workers", func(c *config.Config) { c.Workflow.Workers = 0 }, "workflow.workers"},
		{"heartbeat", func(c *config.Config) { c.Workflow.HeartbeatTimeout = c.Workflow.HeartbeatInterval }, "heartbeat_timeout"},
		{"base url", func(c *config.Config) { c.GenAI.BaseURL = "ftp://nope" }, "genai.base_url"},
		{"image size", func(c *config.Config) { c.GenAI.ImageSize = "huge" }, "genai.image_size"},
		{"video timeout", func(c *config.Config) { c.GenAI.VideoTimeout = 5; c.GenAI.VideoPollInterval = 10 }, "video_timeout"},
		{"schedule", func(c *config.Config) { c.Maintenance.Schedule = "not a cron" }, "maintenance.schedule"},
		{"ntfy topic", func(c *config.Config) { c.Notifications.NtfyTopic = "my-topic" }, "notifications.ntfy_topic"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in %v", tc.want, err)
			}
		})
	}
}

func TestCreateSampleLoads(t *testing.T) {
	t.Setenv("STORYREEL_API_KEY", "")
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if _, _, exists, err := config.Load(path); err != nil || !exists {
		t.Fatalf("sample config did not load: exists=%v err=%v", exists, err)
	}
}

func TestLoadEnvFilesKeepsExistingValues(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	content := "STORYREEL_DOTENV_PROBE=from-file\nSTORYREEL_DOTENV_KEEP=from-file\n"
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("STORYREEL_DOTENV_KEEP", "from-shell")
	t.Setenv("STORYREEL_DOTENV_PROBE", "")
	os.Unsetenv("STORYREEL_DOTENV_PROBE")

	loaded, err := config.LoadEnvFiles(envPath, filepath.Join(dir, "missing.env"))
	if err != nil {
		t.Fatalf("LoadEnvFiles: %v", err)
	}
	if len(loaded) != 1 || loaded[0] != envPath {
		t.Fatalf("unexpected loaded files: %v", loaded)
	}
	if got := os.Getenv("STORYREEL_DOTENV_PROBE"); got != "from-file" {
		t.Fatalf("expected value from file, got %q", got)
	}
	if got := os.Getenv("STORYREEL_DOTENV_KEEP"); got != "from-shell" {
		t.Fatalf("expected shell value to win, got %q", got)
	}
}
