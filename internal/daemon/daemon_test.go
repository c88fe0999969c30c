package daemon_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"storyreel/internal/api"
	"storyreel/internal/config"
	"storyreel/internal/daemon"
	"storyreel/internal/logging"
	"storyreel/internal/script"
	"storyreel/internal/services/genai"
	"storyreel/internal/store"
	"storyreel/internal/testsupport"
	"storyreel/internal/workspace"
)

type stubGenerator struct{}

func (stubGenerator) AnalyzeText(context.Context, string, genai.Mode) (script.ProjectDraft, error) {
	return script.ProjectDraft{Title: "Stub", Scenes: []script.SceneDraft{{Slugline: "int. room - day"}}}, nil
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

func newDaemon(t *testing.T, cfg *config.Config) (*daemon.Daemon, *store.Store) {
	t.Helper()
	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	d, err := daemon.New(cfg, st, stubGenerator{}, logging.NewNop(), logging.NewStreamHub(64))
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Close()
	})
	return d, st
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d, _ := newDaemon(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	status := d.Status(ctx)
	if !status.Running || status.LockFilePath != cfg.LockPath() || status.Database == nil || !status.Database.DatabaseReadable {
		t.Fatalf("unexpected status: %+v", status)
	}
	if len(status.Checks) == 0 {
		t.Fatal("expected preflight results in status")
	}

	resp, err := http.Get("http://" + d.APIAddr() + "/v1/api/status")
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	var remote api.DaemonStatus
	err = json.NewDecoder(resp.Body).Decode(&remote)
	resp.Body.Close()
	if err != nil || !remote.Running {
		t.Fatalf("unexpected API status: %+v err=%v", remote, err)
	}

	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	time.Sleep(50 * time.Millisecond)
	if d.Status(ctx).Running {
		t.Fatal("expected daemon to be stopped")
	}
	if d.APIAddr() != "" {
		t.Fatal("expected API to be shut down")
	}

	if err := d.Start(ctx); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
}

func TestSecondInstanceIsRefused(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first, _ := newDaemon(t, cfg)
	second, _ := newDaemon(t, cfg)

	ctx := context.Background()
	if err := first.Start(ctx); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	err := second.Start(ctx)
	if err == nil || !strings.Contains(err.Error(), "already running") {
		t.Fatalf("expected lock refusal, got %v", err)
	}
}

func TestStartFailsInterruptedJobs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d, st := newDaemon(t, cfg)
	ctx := context.Background()
	testsupport.SeedProject(t, st, testsupport.SampleProject())

	job, err := st.Enqueue(ctx, testsupport.ProjectID, store.JobImage, testsupport.SceneID+"/"+testsupport.BeatID+"/"+testsupport.ShotID, "")
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if _, err := st.ClaimNext(ctx); err != nil {
		t.Fatalf("ClaimNext: %v", err)
	}

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	got, err := st.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got.Status != store.JobFailed || got.ErrorMessage != store.DaemonStopReason {
		t.Fatalf("expected interrupted job failed, got %+v", got)
	}
}

func TestSubmitAndImport(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d, st := newDaemon(t, cfg)
	ctx := context.Background()
	testsupport.SeedProject(t, st, testsupport.SampleProject())
	beat := testsupport.SceneID + "/" + testsupport.BeatID

	if _, err := d.Submit(ctx, testsupport.ProjectID, store.JobVideo, beat+"/"+testsupport.ShotID); !errors.Is(err, workspace.ErrImageRequired) {
		t.Fatalf("expected ErrImageRequired, got %v", err)
	}
	job, err := d.Submit(ctx, testsupport.ProjectID, store.JobVideo, beat+"/"+testsupport.SiblingID)
	if err != nil || job.Status != store.JobPending {
		t.Fatalf("Submit: job=%+v err=%v", job, err)
	}

	p, queued, err := d.Import(ctx, "Queued", "A room.", genai.ModeStory, false)
	if err != nil || queued == nil || queued.Kind != store.JobAnalyze || p.Title != "Queued" {
		t.Fatalf("queued import: p=%+v job=%+v err=%v", p, queued, err)
	}
	p, queued, err = d.Import(ctx, "", "A room.", genai.ModeStory, true)
	if err != nil || queued != nil || p.Title != "Stub" || len(p.Scenes) != 1 {
		t.Fatalf("inline import: p=%+v job=%+v err=%v", p, queued, err)
	}

	projects, err := d.Projects(ctx)
	if err != nil || len(projects) != 3 {
		t.Fatalf("expected 3 projects, got %d err=%v", len(projects), err)
	}
}

func TestPruneRemovesExpiredLogs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Logging.RetentionDays = 3
	d, _ := newDaemon(t, cfg)

	old := filepath.Join(cfg.Paths.LogDir, "storyreel-2026-01-01.log")
	if err := os.WriteFile(old, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	past := time.Now().AddDate(0, 0, -10)
	if err := os.Chtimes(old, past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	result, err := d.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if result.LogsRemoved != 1 || result.JobsRemoved != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatal("expected expired log removed")
	}
}
