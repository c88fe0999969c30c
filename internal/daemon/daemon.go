package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"storyreel/internal/api"
	"storyreel/internal/config"
	"storyreel/internal/logging"
	"storyreel/internal/preflight"
	"storyreel/internal/session"
	"storyreel/internal/store"
	"storyreel/internal/workflow"
	"storyreel/internal/workspace"
)

// Generator is the generative API client the daemon drives. *genai.Client
// satisfies it.
type Generator interface {
	workspace.Generator
	api.VideoOpener
}

// Daemon coordinates the background processing services and enforces single-instance execution.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *store.Store
	gen       Generator
	hub       *logging.StreamHub
	workspace *workspace.Workspace
	workflow  *workflow.Manager
	sessions  *session.Manager

	lockPath string
	lock     *flock.Flock

	mu        sync.Mutex
	running   atomic.Bool
	ctx       context.Context
	cancel    context.CancelFunc
	apiServer *api.Server
	scheduler *scheduler

	checksMu sync.RWMutex
	checks   []preflight.Result
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, gen Generator, logger *slog.Logger, hub *logging.StreamHub) (*Daemon, error) {
	if cfg == nil || st == nil || gen == nil {
		return nil, errors.New("daemon requires config, store, and generative client")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	ws := workspace.New(st, gen, logger, workspace.WithLogCapacity(cfg.Workflow.LogCapacity))
	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "daemon"),
		store:     st,
		gen:       gen,
		hub:       hub,
		workspace: ws,
		workflow:  workflow.NewManager(cfg, st, ws, logger),
		sessions:  session.NewManager(st),
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
		scheduler: newScheduler(logger),
	}, nil
}

// Start acquires the daemon lock and launches the workers, the maintenance
// schedule and the HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another storyreel daemon instance is already running")
	}

	if failed, err := d.store.FailRunning(ctx, store.DaemonStopReason); err != nil {
		d.logger.Warn("failed to close out interrupted jobs", logging.Error(err))
	} else if failed > 0 {
		d.logger.Info("interrupted jobs marked failed", logging.Int64("count", failed))
	}
	d.runPreflight(ctx)

	d.ctx, d.cancel = context.WithCancel(ctx)
	rollback := func() {
		d.cancel()
		d.ctx, d.cancel = nil, nil
		_ = d.lock.Unlock()
	}

	if err := d.workflow.Start(d.ctx); err != nil {
		rollback()
		return fmt.Errorf("start workflow: %w", err)
	}
	runCtx := d.ctx
	if err := d.scheduler.start(d.cfg.Maintenance.Schedule, func() { d.runMaintenance(runCtx) }); err != nil {
		d.workflow.Stop()
		rollback()
		return fmt.Errorf("start maintenance schedule: %w", err)
	}

	d.apiServer = api.New(api.Deps{
		Workspace: d.workspace,
		Jobs:      d.workflow,
		Sessions:  d.sessions,
		Videos:    d.gen,
		Hub:       d.hub,
		Status:    d.Status,
		Token:     d.cfg.Paths.APIToken,
		Logger:    d.logger,
	})
	if err := d.apiServer.Start(d.ctx, d.cfg.Paths.APIBind); err != nil {
		d.scheduler.stop()
		d.workflow.Stop()
		d.apiServer = nil
		rollback()
		return err
	}

	d.running.Store(true)
	d.logger.Info("storyreel daemon started",
		logging.String("lock", d.lockPath),
		logging.String("api", d.apiServer.Addr()),
		logging.Int("workers", d.cfg.Workflow.Workers),
	)
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.apiServer.Stop()
	d.apiServer = nil
	d.scheduler.stop()
	d.workflow.Stop()
	if failed, err := d.store.FailRunning(context.Background(), store.DaemonStopReason); err != nil {
		d.logger.Warn("failed to close out interrupted jobs", logging.Error(err))
	} else if failed > 0 {
		d.logger.Info("in-flight jobs marked failed", logging.Int64("count", failed))
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("storyreel daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// APIAddr reports the address the HTTP API is bound to while running.
func (d *Daemon) APIAddr() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.apiServer.Addr()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) api.DaemonStatus {
	status := api.DaemonStatus{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		DatabasePath: d.store.Path(),
		LockFilePath: d.lockPath,
		LogFilePath:  d.cfg.LogFilePath(),
		Workflow:     d.workflow.Status(ctx),
	}
	if health, err := d.store.CheckHealth(ctx); err == nil || health.Error != "" {
		status.Database = &health
	}
	d.checksMu.RLock()
	for _, check := range d.checks {
		status.Checks = append(status.Checks, api.CheckStatus(check))
	}
	d.checksMu.RUnlock()
	return status
}

func (d *Daemon) runPreflight(ctx context.Context) {
	results := preflight.RunAll(ctx, d.cfg)
	for _, failed := range preflight.Failed(results) {
		logging.WarnWithContext(d.logger, "preflight check failed", "preflight_failed",
			logging.String("check", failed.Name),
			logging.String("detail", failed.Detail),
			logging.String(logging.FieldImpact, "generation requests may fail until this is fixed"),
		)
	}
	d.checksMu.Lock()
	d.checks = results
	d.checksMu.Unlock()
}
