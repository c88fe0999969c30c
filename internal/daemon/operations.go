package daemon

import (
	"context"
	"errors"
	"strings"

	"storyreel/internal/logging"
	"storyreel/internal/notifications"
	"storyreel/internal/script"
	"storyreel/internal/services"
	"storyreel/internal/services/genai"
	"storyreel/internal/store"
	"storyreel/internal/workflow"
)

// Projects lists dashboard summaries.
func (d *Daemon) Projects(ctx context.Context) ([]store.ProjectSummary, error) {
	return d.workspace.Projects(ctx)
}

// Project returns the full tree of one project.
func (d *Daemon) Project(ctx context.Context, projectID string) (script.Project, error) {
	return d.workspace.Project(ctx, projectID)
}

// DeleteProject removes a project with its logs and jobs.
func (d *Daemon) DeleteProject(ctx context.Context, projectID string) error {
	return d.workspace.DeleteProject(ctx, projectID)
}

// ToggleScene flips a scene's expanded flag.
func (d *Daemon) ToggleScene(ctx context.Context, projectID, sceneID string) (script.Project, error) {
	return d.workspace.ToggleScene(ctx, projectID, sceneID)
}

// Import creates a project from text. With wait the analysis runs inline;
// otherwise an analyze job is queued and returned.
func (d *Daemon) Import(ctx context.Context, title, text string, mode genai.Mode, wait bool) (script.Project, *store.Job, error) {
	if strings.TrimSpace(text) == "" {
		return script.Project{}, nil, services.Wrap(services.ErrValidation, "import", "", "text is required", nil)
	}
	if wait {
		p, err := d.workspace.Import(ctx, title, text, mode)
		return p, nil, err
	}
	p, err := d.workspace.CreateProject(ctx, strings.TrimSpace(title))
	if err != nil {
		return script.Project{}, nil, err
	}
	job, err := d.workflow.Enqueue(ctx, p.ID, store.JobAnalyze, "", &workflow.AnalyzePayload{Text: text, Mode: mode})
	if err != nil {
		if delErr := d.workspace.DeleteProject(ctx, p.ID); delErr != nil {
			d.logger.Warn("failed to remove placeholder project", logging.String(logging.FieldProjectID, p.ID), logging.Error(delErr))
		}
		return script.Project{}, nil, err
	}
	return p, job, nil
}

// Submit checks a breakdown, image or video request against the current tree
// and queues it.
func (d *Daemon) Submit(ctx context.Context, projectID string, kind store.JobKind, target string) (*store.Job, error) {
	if kind == store.JobAnalyze {
		return nil, services.Wrap(services.ErrValidation, "", "submit", "use import for analysis", nil)
	}
	if err := d.workspace.Precheck(ctx, projectID, kind, target); err != nil {
		return nil, err
	}
	return d.workflow.Enqueue(ctx, projectID, kind, target, nil)
}

// Jobs lists jobs, optionally for one project and a set of statuses.
func (d *Daemon) Jobs(ctx context.Context, projectID string, statuses ...store.JobStatus) ([]*store.Job, error) {
	return d.workflow.Jobs(ctx, projectID, statuses...)
}

// ProjectLogs returns activity log entries after since.
func (d *Daemon) ProjectLogs(ctx context.Context, projectID string, since int64) ([]store.LogEntry, error) {
	return d.workspace.Logs(ctx, projectID, since)
}

// LogEvents reads the daemon log stream. With tail the newest limit events
// are returned regardless of since.
func (d *Daemon) LogEvents(ctx context.Context, since uint64, limit int, tail, follow bool) ([]logging.LogEvent, uint64, error) {
	if d.hub == nil {
		return nil, 0, nil
	}
	if tail && since == 0 {
		events, next := d.hub.Tail(limit)
		return events, next, nil
	}
	events, next, err := d.hub.Fetch(ctx, since, limit, follow)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return events, next, nil
	}
	return events, next, err
}

// DatabaseHealth reports store diagnostics.
func (d *Daemon) DatabaseHealth(ctx context.Context) (store.DatabaseHealth, error) {
	return d.store.CheckHealth(ctx)
}

// LogPath is the daemon's JSON log file.
func (d *Daemon) LogPath() string {
	return d.cfg.LogFilePath()
}

// TestNotification sends a test push. sent is false when no topic is set.
func (d *Daemon) TestNotification(ctx context.Context) (bool, error) {
	notifier := notifications.NewService(d.cfg)
	if !notifier.Enabled() {
		return false, nil
	}
	if err := notifier.TestNotification(ctx); err != nil {
		return false, err
	}
	return true, nil
}
