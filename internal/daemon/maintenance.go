package daemon

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"storyreel/internal/logging"
)

// MaintenanceResult reports what a pruning pass removed.
type MaintenanceResult struct {
	JobsRemoved int64 `json:"jobs_removed"`
	LogsRemoved int   `json:"logs_removed"`
}

// scheduler runs periodic maintenance on a cron schedule.
type scheduler struct {
	logger *slog.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

func newScheduler(logger *slog.Logger) *scheduler {
	return &scheduler{logger: logging.NewComponentLogger(logger, "maintenance")}
}

// start registers task on the cron schedule. An empty schedule leaves maintenance disabled.
func (s *scheduler) start(schedule string, task func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if schedule == "" || s.cron != nil {
		return nil
	}
	c := cron.New(cron.WithChain(cron.Recover(cron.DiscardLogger), cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(schedule, task); err != nil {
		return err
	}
	c.Start()
	s.cron = c
	s.logger.Debug("maintenance scheduled", logging.String("schedule", schedule))
	return nil
}

// stop halts the schedule and waits briefly for a running pass.
func (s *scheduler) stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	select {
	case <-c.Stop().Done():
	case <-time.After(10 * time.Second):
		s.logger.Warn("maintenance pass still running at shutdown")
	}
}

// Prune deletes finished jobs older than the job retention and daemon log
// files older than the log retention. A zero retention disables that half.
func (d *Daemon) Prune(ctx context.Context) (MaintenanceResult, error) {
	var result MaintenanceResult
	if days := d.cfg.Maintenance.JobRetentionDays; days > 0 {
		cutoff := time.Now().AddDate(0, 0, -days)
		removed, err := d.store.PruneJobs(ctx, cutoff)
		if err != nil {
			return result, err
		}
		result.JobsRemoved = removed
	}
	result.LogsRemoved = logging.CleanupOldLogs(d.logger, d.cfg.Logging.RetentionDays, logging.RetentionTarget{
		Dir:     d.cfg.Paths.LogDir,
		Pattern: "*.log",
		Exclude: []string{d.cfg.LogFilePath()},
	})
	return result, nil
}

func (d *Daemon) runMaintenance(ctx context.Context) {
	result, err := d.Prune(ctx)
	if err != nil {
		d.logger.Warn("maintenance failed", logging.Error(err), logging.String(logging.FieldEventType, "maintenance_failed"))
		return
	}
	d.logger.Info("maintenance completed",
		logging.Int64("jobs_removed", result.JobsRemoved),
		logging.Int("logs_removed", result.LogsRemoved),
		logging.String(logging.FieldEventType, "maintenance"),
	)
}
