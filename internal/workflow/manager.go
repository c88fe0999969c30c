package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"storyreel/internal/config"
	"storyreel/internal/logging"
	"storyreel/internal/notifications"
	"storyreel/internal/script"
	"storyreel/internal/services"
	"storyreel/internal/services/genai"
	"storyreel/internal/store"
)

// Runner executes the generative operation behind each job kind.
type Runner interface {
	Analyze(ctx context.Context, projectID, text string, mode genai.Mode) (script.Project, error)
	GenerateShots(ctx context.Context, projectID string, path script.BeatPath) (script.Project, error)
	GenerateImage(ctx context.Context, projectID string, path script.ShotPath) (script.Project, error)
	GenerateVideo(ctx context.Context, projectID string, path script.ShotPath) (script.Project, error)
}

// AnalyzePayload is the stored input of an analyze job.
type AnalyzePayload struct {
	Text string     `json:"text"`
	Mode genai.Mode `json:"mode"`
}

// Manager coordinates the worker pool.
type Manager struct {
	cfg          *config.Config
	store        *store.Store
	runner       Runner
	logger       *slog.Logger
	pollInterval time.Duration
	retryDelay   time.Duration
	workers      int
	heartbeat    *HeartbeatMonitor
	notifier     notifications.Service
	wake         chan struct{}

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lastErr error
	lastJob *store.Job
}

// NewManager constructs a workflow manager.
func NewManager(cfg *config.Config, st *store.Store, runner Runner, logger *slog.Logger) *Manager {
	logger = logging.NewComponentLogger(logger, "workflow")
	workers := cfg.Workflow.Workers
	if workers <= 0 {
		workers = 1
	}
	return &Manager{
		cfg:          cfg,
		store:        st,
		runner:       runner,
		logger:       logger,
		pollInterval: cfg.PollInterval(),
		retryDelay:   time.Duration(cfg.Workflow.ErrorRetryInterval) * time.Second,
		workers:      workers,
		heartbeat: NewHeartbeatMonitor(
			st,
			logger,
			time.Duration(cfg.Workflow.HeartbeatInterval)*time.Second,
			time.Duration(cfg.Workflow.HeartbeatTimeout)*time.Second,
		),
		notifier: notifications.NewService(cfg),
		wake:     make(chan struct{}, 1),
	}
}

// SetNotifier replaces the notifier built from configuration.
func (m *Manager) SetNotifier(n notifications.Service) {
	if n == nil {
		return
	}
	m.mu.Lock()
	m.notifier = n
	m.mu.Unlock()
}

// Enqueue validates a request and stores it as a pending job. target is a
// scene/beat path for breakdowns, a scene/beat/shot path for image and video
// jobs, and empty for analysis.
func (m *Manager) Enqueue(ctx context.Context, projectID string, kind store.JobKind, target string, payload *AnalyzePayload) (*store.Job, error) {
	var raw string
	switch kind {
	case store.JobAnalyze:
		if payload == nil || strings.TrimSpace(payload.Text) == "" {
			return nil, services.Wrap(services.ErrValidation, "analyze", "enqueue", "text is required", nil)
		}
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode analyze payload: %w", err)
		}
		raw = string(encoded)
		target = ""
	case store.JobBreakdown:
		path, err := script.ParseBeatPath(target)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, string(kind), "enqueue", "", err)
		}
		target = path.String()
	case store.JobImage, store.JobVideo:
		path, err := script.ParseShotPath(target)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, string(kind), "enqueue", "", err)
		}
		// Store the canonical form so the active-target index sees one shot.
		target = path.String()
	default:
		return nil, services.Wrap(services.ErrValidation, "", "enqueue", fmt.Sprintf("unknown job kind %q", kind), nil)
	}

	job, err := m.store.Enqueue(ctx, projectID, kind, target, raw)
	if err != nil {
		return nil, err
	}
	m.logger.Info("job queued",
		logging.String(logging.FieldProjectID, projectID),
		logging.Int64(logging.FieldJobID, job.ID),
		logging.String(logging.FieldStage, string(kind)),
		logging.String("target", target),
		logging.String(logging.FieldEventType, "job_queued"),
	)
	m.Wake()
	return job, nil
}

// Jobs lists jobs for a project in submission order. An empty project id
// lists every job.
func (m *Manager) Jobs(ctx context.Context, projectID string, statuses ...store.JobStatus) ([]*store.Job, error) {
	return m.store.ListJobs(ctx, projectID, statuses...)
}

// Wake nudges an idle worker to poll immediately.
func (m *Manager) Wake() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// Start launches the worker pool.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return errors.New("workflow already running")
	}
	if m.runner == nil {
		return errors.New("workflow runner not configured")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(m.workers)
	for i := 0; i < m.workers; i++ {
		go m.runWorker(runCtx, i)
	}
	m.logger.Info("workflow started", logging.Int("workers", m.workers), logging.String(logging.FieldEventType, "workflow_start"))
	return nil
}

// Stop cancels the workers and waits for them to return.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

func (m *Manager) runWorker(ctx context.Context, index int) {
	defer m.wg.Done()
	logger := m.logger.With(logging.Int("worker", index))
	reclaimer := index == 0

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if reclaimer {
			if err := m.heartbeat.ReclaimStale(ctx, logger); err != nil && !errors.Is(err, context.Canceled) {
				logging.WarnWithContext(logger, "reclaim stale jobs failed; stuck jobs may remain", "heartbeat_reclaim_failed",
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check database access"),
				)
			}
		}

		job, err := m.store.ClaimNext(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			m.setLastError(err)
			logging.ErrorWithContext(logger, "failed to claim next job", "job_claim_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check database access"),
			)
			m.wait(ctx, m.retryDelay)
			continue
		}
		if job == nil {
			m.wait(ctx, m.pollInterval)
			continue
		}

		m.processJob(ctx, logger, job)
	}
}

func (m *Manager) wait(ctx context.Context, d time.Duration) {
	if d <= 0 {
		d = 100 * time.Millisecond
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-m.wake:
	case <-timer.C:
	}
}
