package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"storyreel/internal/logging"
	"storyreel/internal/script"
	"storyreel/internal/services"
	"storyreel/internal/store"
)

func (m *Manager) processJob(ctx context.Context, workerLogger *slog.Logger, job *store.Job) {
	jobCtx := services.WithProjectID(ctx, job.ProjectID)
	jobCtx = services.WithJobID(jobCtx, job.ID)
	jobCtx = services.WithStage(jobCtx, string(job.Kind))
	jobCtx = services.WithRequestID(jobCtx, uuid.NewString())
	logger := logging.WithContext(jobCtx, workerLogger)

	start := time.Now()
	logger.Info("job started",
		logging.String("target", job.Target),
		logging.String(logging.FieldEventType, "job_start"),
	)

	err := m.executeWithHeartbeat(jobCtx, job)
	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			logger.Debug("job interrupted by shutdown")
			return
		}
		m.handleJobFailure(ctx, logger, job, err)
		return
	}

	if err := m.store.CompleteJob(ctx, job.ID); err != nil {
		m.setLastError(err)
		logger.Error("failed to persist job completion", logging.Error(err))
		return
	}
	job.Status = store.JobCompleted
	m.setLastJob(job)
	logger.Info("job completed",
		logging.String(logging.FieldEventType, "job_complete"),
		logging.Duration("job_duration", time.Since(start)),
	)
	m.notify(ctx, logger, job, nil)
}

func (m *Manager) executeWithHeartbeat(ctx context.Context, job *store.Job) error {
	hbCtx, hbCancel := context.WithCancel(ctx)
	var hbWG sync.WaitGroup
	hbWG.Add(1)
	go m.heartbeat.StartLoop(hbCtx, &hbWG, job.ID)

	err := m.execute(ctx, job)
	hbCancel()
	hbWG.Wait()
	return err
}

func (m *Manager) execute(ctx context.Context, job *store.Job) error {
	switch job.Kind {
	case store.JobAnalyze:
		var payload AnalyzePayload
		if err := json.Unmarshal([]byte(job.Payload), &payload); err != nil {
			return services.Wrap(services.ErrValidation, string(job.Kind), "decode payload", "", err)
		}
		_, err := m.runner.Analyze(ctx, job.ProjectID, payload.Text, payload.Mode)
		return err
	case store.JobBreakdown:
		path, err := script.ParseBeatPath(job.Target)
		if err != nil {
			return services.Wrap(services.ErrValidation, string(job.Kind), "parse target", "", err)
		}
		_, err = m.runner.GenerateShots(ctx, job.ProjectID, path)
		return err
	case store.JobImage, store.JobVideo:
		path, err := script.ParseShotPath(job.Target)
		if err != nil {
			return services.Wrap(services.ErrValidation, string(job.Kind), "parse target", "", err)
		}
		if job.Kind == store.JobImage {
			_, err = m.runner.GenerateImage(ctx, job.ProjectID, path)
		} else {
			_, err = m.runner.GenerateVideo(ctx, job.ProjectID, path)
		}
		return err
	default:
		return fmt.Errorf("unknown job kind %q", job.Kind)
	}
}

func (m *Manager) handleJobFailure(ctx context.Context, logger *slog.Logger, job *store.Job, jobErr error) {
	m.setLastError(jobErr)
	message := jobErr.Error()
	logging.ErrorWithContext(logger, "job failed", "job_failure",
		logging.Error(jobErr),
		logging.Alert("job_failure"),
		logging.String("target", job.Target),
		logging.String(logging.FieldErrorHint, "see the project activity log; re-run the request to retry"),
	)
	if err := m.store.FailJob(ctx, job.ID, message); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("daemon shutting down, could not record job failure")
		} else {
			logger.Error("failed to persist job failure", logging.Error(err))
		}
	}
	job.Status = store.JobFailed
	job.ErrorMessage = message
	m.setLastJob(job)
	m.notify(ctx, logger, job, jobErr)
}

// notify pushes the job outcome. Delivery failures are logged and never
// change the job's status.
func (m *Manager) notify(ctx context.Context, logger *slog.Logger, job *store.Job, jobErr error) {
	m.mu.RLock()
	notifier := m.notifier
	m.mu.RUnlock()
	if notifier == nil || !notifier.Enabled() || ctx.Err() != nil {
		return
	}
	title := ""
	if project, err := m.store.GetProject(ctx, job.ProjectID); err == nil {
		title = project.Title
	}
	var err error
	if jobErr != nil {
		err = notifier.NotifyJobFailed(ctx, job, title, jobErr)
	} else {
		err = notifier.NotifyJobCompleted(ctx, job, title)
	}
	if err != nil {
		logging.WarnWithContext(logger, "job notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
		)
	}
}
