package workflow

import (
	"context"

	"storyreel/internal/logging"
	"storyreel/internal/store"
)

// StatusSummary is lightweight workflow diagnostics.
type StatusSummary struct {
	Running   bool                `json:"running"`
	Workers   int                 `json:"workers"`
	LastError string              `json:"last_error,omitempty"`
	LastJob   *store.Job          `json:"last_job,omitempty"`
	Jobs      store.HealthSummary `json:"jobs"`
}

// Status returns the latest workflow information.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	summary := StatusSummary{Running: m.running, Workers: m.workers}
	if m.lastErr != nil {
		summary.LastError = m.lastErr.Error()
	}
	if m.lastJob != nil {
		job := *m.lastJob
		summary.LastJob = &job
	}
	m.mu.RUnlock()

	jobs, err := m.store.Health(ctx)
	if err != nil {
		m.logger.Warn("failed to read job stats", logging.Error(err))
	}
	summary.Jobs = jobs
	return summary
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) setLastJob(job *store.Job) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job == nil {
		m.lastJob = nil
		return
	}
	copied := *job
	m.lastJob = &copied
}
