package workflow_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"storyreel/internal/logging"
	"storyreel/internal/script"
	"storyreel/internal/services"
	"storyreel/internal/services/genai"
	"storyreel/internal/store"
	"storyreel/internal/testsupport"
	"storyreel/internal/workflow"
)

type stubRunner struct {
	mu      sync.Mutex
	calls   []string
	texts   []string
	onImage func(path script.ShotPath) error
	onVideo func(path script.ShotPath) error
}

func (r *stubRunner) record(call string) {
	r.mu.Lock()
	r.calls = append(r.calls, call)
	r.mu.Unlock()
}

func (r *stubRunner) Analyze(_ context.Context, projectID, text string, mode genai.Mode) (script.Project, error) {
	r.record("analyze:" + string(mode))
	r.mu.Lock()
	r.texts = append(r.texts, text)
	r.mu.Unlock()
	return script.Project{ID: projectID}, nil
}

func (r *stubRunner) GenerateShots(_ context.Context, projectID string, path script.BeatPath) (script.Project, error) {
	r.record("breakdown:" + path.String())
	return script.Project{ID: projectID}, nil
}

func (r *stubRunner) GenerateImage(_ context.Context, projectID string, path script.ShotPath) (script.Project, error) {
	r.record("image:" + path.String())
	if r.onImage != nil {
		if err := r.onImage(path); err != nil {
			return script.Project{}, err
		}
	}
	return script.Project{ID: projectID}, nil
}

func (r *stubRunner) GenerateVideo(_ context.Context, projectID string, path script.ShotPath) (script.Project, error) {
	r.record("video:" + path.String())
	if r.onVideo != nil {
		if err := r.onVideo(path); err != nil {
			return script.Project{}, err
		}
	}
	return script.Project{ID: projectID}, nil
}

func setup(t *testing.T, runner workflow.Runner, workers int) (*workflow.Manager, *store.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithWorkers(workers))
	st := testsupport.MustOpenStore(t, cfg)
	testsupport.SeedProject(t, st, testsupport.SampleProject())
	return workflow.NewManager(cfg, st, runner, nil), st
}

func shotTarget(shotID string) string {
	return testsupport.SceneID + "/" + testsupport.BeatID + "/" + shotID
}

func waitForTerminal(t *testing.T, st *store.Store, want int) []*store.Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		jobs, err := st.ListJobs(context.Background(), testsupport.ProjectID, store.JobCompleted, store.JobFailed)
		if err != nil {
			t.Fatalf("ListJobs: %v", err)
		}
		if len(jobs) >= want {
			return jobs
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d finished jobs", want)
	return nil
}

func TestEnqueueValidatesRequests(t *testing.T) {
	mgr, _ := setup(t, &stubRunner{}, 1)
	ctx := context.Background()

	tests := []struct {
		name    string
		kind    store.JobKind
		target  string
		payload *workflow.AnalyzePayload
	}{
		{name: "analyze without text", kind: store.JobAnalyze, payload: &workflow.AnalyzePayload{Text: "  "}},
		{name: "breakdown with shot path", kind: store.JobBreakdown, target: shotTarget(testsupport.ShotID)},
		{name: "image with beat path", kind: store.JobImage, target: testsupport.SceneID + "/" + testsupport.BeatID},
		{name: "unknown kind", kind: store.JobKind("render"), target: "a/b/c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := mgr.Enqueue(ctx, testsupport.ProjectID, tt.kind, tt.target, tt.payload)
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}

	if _, err := mgr.Enqueue(ctx, testsupport.ProjectID, store.JobImage, shotTarget(testsupport.ShotID), nil); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if _, err := mgr.Enqueue(ctx, testsupport.ProjectID, store.JobImage, "/"+shotTarget(testsupport.ShotID)+"/", nil); !errors.Is(err, store.ErrJobActive) {
		t.Fatalf("expected ErrJobActive for duplicate target, got %v", err)
	}
	spaced := testsupport.SceneID + " / " + testsupport.BeatID + " / " + testsupport.ShotID
	if _, err := mgr.Enqueue(ctx, testsupport.ProjectID, store.JobVideo, spaced, nil); !errors.Is(err, store.ErrJobActive) {
		t.Fatalf("expected ErrJobActive for padded target, got %v", err)
	}
}

func TestEnqueueStoresCanonicalTarget(t *testing.T) {
	mgr, _ := setup(t, &stubRunner{}, 1)
	ctx := context.Background()

	job, err := mgr.Enqueue(ctx, testsupport.ProjectID, store.JobBreakdown, " "+testsupport.SceneID+" / "+testsupport.BeatID+"/", nil)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if want := testsupport.SceneID + "/" + testsupport.BeatID; job.Target != want {
		t.Fatalf("target = %q, want %q", job.Target, want)
	}
}

func TestManagerRunsShotJobsConcurrently(t *testing.T) {
	var once sync.Once
	both := make(chan struct{})
	var mu sync.Mutex
	arrived := 0
	runner := &stubRunner{onImage: func(script.ShotPath) error {
		mu.Lock()
		arrived++
		if arrived == 2 {
			once.Do(func() { close(both) })
		}
		mu.Unlock()
		select {
		case <-both:
			return nil
		case <-time.After(3 * time.Second):
			return errors.New("jobs did not overlap")
		}
	}}
	mgr, st := setup(t, runner, 2)
	ctx := context.Background()

	for _, shot := range []string{testsupport.ShotID, testsupport.SiblingID} {
		if _, err := mgr.Enqueue(ctx, testsupport.ProjectID, store.JobImage, shotTarget(shot), nil); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(mgr.Stop)

	for _, job := range waitForTerminal(t, st, 2) {
		if job.Status != store.JobCompleted {
			t.Fatalf("expected completed job, got %s (%s)", job.Status, job.ErrorMessage)
		}
	}
}

func TestFailingJobDoesNotBlockOthers(t *testing.T) {
	runner := &stubRunner{onVideo: func(script.ShotPath) error {
		return errors.New("provider rejected clip")
	}}
	mgr, st := setup(t, runner, 1)
	ctx := context.Background()

	if _, err := mgr.Enqueue(ctx, testsupport.ProjectID, store.JobVideo, shotTarget(testsupport.SiblingID), nil); err != nil {
		t.Fatalf("Enqueue video: %v", err)
	}
	if _, err := mgr.Enqueue(ctx, testsupport.ProjectID, store.JobBreakdown, testsupport.SceneID+"/"+testsupport.BeatID, nil); err != nil {
		t.Fatalf("Enqueue breakdown: %v", err)
	}
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(mgr.Stop)

	jobs := waitForTerminal(t, st, 2)
	statuses := map[store.JobKind]store.JobStatus{}
	for _, job := range jobs {
		statuses[job.Kind] = job.Status
		if job.Kind == store.JobVideo && job.ErrorMessage != "provider rejected clip" {
			t.Fatalf("unexpected error message %q", job.ErrorMessage)
		}
	}
	if statuses[store.JobVideo] != store.JobFailed || statuses[store.JobBreakdown] != store.JobCompleted {
		t.Fatalf("unexpected statuses: %v", statuses)
	}

	summary := mgr.Status(ctx)
	if !summary.Running || summary.Jobs.Failed != 1 || summary.Jobs.Completed != 1 {
		t.Fatalf("unexpected status summary: %+v", summary)
	}
}

func TestAnalyzeJobCarriesPayload(t *testing.T) {
	runner := &stubRunner{}
	mgr, st := setup(t, runner, 1)
	ctx := context.Background()

	payload := &workflow.AnalyzePayload{Text: "FADE IN.", Mode: genai.ModeScript}
	if _, err := mgr.Enqueue(ctx, testsupport.ProjectID, store.JobAnalyze, "ignored", payload); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(mgr.Stop)
	waitForTerminal(t, st, 1)

	runner.mu.Lock()
	defer runner.mu.Unlock()
	if len(runner.calls) != 1 || runner.calls[0] != "analyze:script" || runner.texts[0] != "FADE IN." {
		t.Fatalf("unexpected runner calls: %v %v", runner.calls, runner.texts)
	}
}

func TestStartTwiceFails(t *testing.T) {
	mgr, _ := setup(t, &stubRunner{}, 1)
	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer mgr.Stop()
	if err := mgr.Start(context.Background()); err == nil {
		t.Fatal("expected error on second start")
	}
}

func TestHeartbeatMonitorReclaimsStaleJobs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	testsupport.SeedProject(t, st, testsupport.SampleProject())
	ctx := context.Background()

	job, err := st.Enqueue(ctx, testsupport.ProjectID, store.JobImage, shotTarget(testsupport.ShotID), "")
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if _, err := st.ClaimNext(ctx); err != nil {
		t.Fatalf("ClaimNext: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	monitor := workflow.NewHeartbeatMonitor(st, nil, time.Second, time.Millisecond)
	if err := monitor.ReclaimStale(ctx, logging.NewNop()); err != nil {
		t.Fatalf("ReclaimStale: %v", err)
	}
	reloaded, err := st.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if reloaded.Status != store.JobPending {
		t.Fatalf("expected pending after reclaim, got %s", reloaded.Status)
	}
}

type recordingNotifier struct {
	events chan string
}

func (n *recordingNotifier) Enabled() bool { return true }

func (n *recordingNotifier) NotifyJobCompleted(_ context.Context, job *store.Job, title string) error {
	n.events <- "completed:" + string(job.Kind) + ":" + title
	return nil
}

func (n *recordingNotifier) NotifyJobFailed(_ context.Context, job *store.Job, title string, err error) error {
	n.events <- "failed:" + string(job.Kind) + ":" + title + ":" + err.Error()
	return nil
}

func (n *recordingNotifier) TestNotification(context.Context) error { return nil }

func TestManagerNotifiesJobOutcomes(t *testing.T) {
	runner := &stubRunner{onVideo: func(script.ShotPath) error {
		return errors.New("quota exceeded")
	}}
	mgr, _ := setup(t, runner, 1)
	notifier := &recordingNotifier{events: make(chan string, 4)}
	mgr.SetNotifier(notifier)
	ctx := context.Background()

	if _, err := mgr.Enqueue(ctx, testsupport.ProjectID, store.JobVideo, shotTarget(testsupport.SiblingID), nil); err != nil {
		t.Fatalf("Enqueue video: %v", err)
	}
	if _, err := mgr.Enqueue(ctx, testsupport.ProjectID, store.JobImage, shotTarget(testsupport.ShotID), nil); err != nil {
		t.Fatalf("Enqueue image: %v", err)
	}
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(mgr.Stop)

	got := map[string]bool{}
	for len(got) < 2 {
		select {
		case evt := <-notifier.events:
			got[evt] = true
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for notifications, got %v", got)
		}
	}
	title := testsupport.SampleProject().Title
	for _, want := range []string{"failed:video:" + title + ":quota exceeded", "completed:image:" + title} {
		if !got[want] {
			t.Fatalf("expected %q in %v", want, got)
		}
	}
}
