package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"storyreel/internal/config"
	"storyreel/internal/daemon"
	"storyreel/internal/ipc"
	"storyreel/internal/logging"
	"storyreel/internal/script"
	"storyreel/internal/services/genai"
	"storyreel/internal/store"
	"storyreel/internal/testsupport"
)

type stubGenerator struct{}

func (stubGenerator) AnalyzeText(context.Context, string, genai.Mode) (script.ProjectDraft, error) {
	return script.ProjectDraft{
		Title:   "Harbour",
		Genre:   "Drama",
		Logline: "Boats leave at dawn.",
		Scenes: []script.SceneDraft{{
			Slugline: "ext. harbour - dawn",
			Beats:    []script.BeatDraft{{Description: "Boats leave."}},
		}},
	}, nil
}

func (stubGenerator) BreakdownBeat(context.Context, genai.BeatContext) ([]script.ShotDraft, error) {
	return nil, errors.New("not used")
}

func (stubGenerator) GenerateImage(context.Context, string) (genai.Image, error) {
	return genai.Image{}, errors.New("not used")
}

func (stubGenerator) GenerateVideo(context.Context, genai.VideoRequest) (string, error) {
	return "", errors.New("not used")
}

func (stubGenerator) OpenVideo(context.Context, string) (io.ReadCloser, string, error) {
	return io.NopCloser(strings.NewReader("")), "video/mp4", nil
}

type cliTestEnv struct {
	cfg        *config.Config
	store      *store.Store
	daemon     *daemon.Daemon
	server     *ipc.Server
	socketPath string
	configPath string
	baseDir    string
}

// setupCLITestEnv serves IPC from an in-process daemon whose workflow is not
// started, so submitted jobs stay pending.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("STORYREEL_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	configPath := filepath.Join(homeDir, ".config", "storyreel", "config.toml")
	writeTestConfig(t, configPath, cfg)

	st := testsupport.MustOpenStore(t, cfg)
	d, err := daemon.New(cfg, st, stubGenerator{}, logging.NewNop(), logging.NewStreamHub(64))
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	srv, err := ipc.NewServer(ctx, cfg.Paths.SocketPath, d, logging.NewNop())
	if err != nil {
		cancel()
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping CLI test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()

	t.Cleanup(func() {
		cancel()
		srv.Close()
		d.Close()
	})

	return &cliTestEnv{
		cfg:        cfg,
		store:      st,
		daemon:     d,
		server:     srv,
		socketPath: cfg.Paths.SocketPath,
		configPath: configPath,
		baseDir:    base,
	}
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	return runCLIWithInput(t, nil, args, socket, configPath)
}

func runCLIWithInput(t *testing.T, stdin io.Reader, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if stdin != nil {
		cmd.SetIn(stdin)
	}
	flags := []string{"--socket", socket}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(line + "\n")
	return err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
