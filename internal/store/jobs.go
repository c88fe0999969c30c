package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const jobColumns = "id, project_id, kind, target, payload, status, error_message, last_heartbeat, created_at, updated_at"

// Enqueue records a pending job. It returns ErrJobActive when a pending or
// running job already exists for the same project and target.
func (s *Store) Enqueue(ctx context.Context, projectID string, kind JobKind, target, payload string) (*Job, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, errors.New("project id is required")
	}
	if _, ok := ParseJobKind(string(kind)); !ok {
		return nil, fmt.Errorf("unknown job kind %q", kind)
	}
	timestamp := formatTime(time.Now())
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO jobs (project_id, kind, target, payload, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		projectID,
		kind,
		target,
		nullableString(payload),
		JobPending,
		timestamp,
		timestamp,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s %s", ErrJobActive, kind, describeTarget(target))
		}
		return nil, fmt.Errorf("insert job: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetJob(ctx, id)
}

// GetJob fetches a job by identifier. A missing job returns nil without error.
func (s *Store) GetJob(ctx context.Context, id int64) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// ListJobs returns jobs ordered by id, optionally filtered by project and status.
func (s *Store) ListJobs(ctx context.Context, projectID string, statuses ...JobStatus) ([]*Job, error) {
	var (
		clauses []string
		args    []any
	)
	if projectID != "" {
		clauses = append(clauses, "project_id = ?")
		args = append(args, projectID)
	}
	if len(statuses) > 0 {
		clauses = append(clauses, "status IN ("+makePlaceholders(len(statuses))+")")
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query := `SELECT ` + jobColumns + ` FROM jobs`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// ClaimNext atomically moves the oldest pending job to running and returns it.
// It returns nil when no job is pending.
func (s *Store) ClaimNext(ctx context.Context) (*Job, error) {
	ctx = ensureContext(ctx)
	now := formatTime(time.Now())
	var job *Job
	err := retryOnBusy(ctx, func() error {
		row := s.db.QueryRowContext(
			ctx,
			`UPDATE jobs SET status = ?, last_heartbeat = ?, updated_at = ?
             WHERE id = (SELECT id FROM jobs WHERE status = ? ORDER BY id LIMIT 1)
             RETURNING `+jobColumns,
			JobRunning,
			now,
			now,
			JobPending,
		)
		claimed, scanErr := scanJob(row)
		if scanErr != nil {
			return scanErr
		}
		job = claimed
		return nil
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim job: %w", err)
	}
	return job, nil
}

// UpdateHeartbeat updates the last heartbeat timestamp for a running job.
func (s *Store) UpdateHeartbeat(ctx context.Context, id int64) error {
	now := formatTime(time.Now())
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE jobs SET last_heartbeat = ?, updated_at = ? WHERE id = ? AND status = ?`,
		now,
		now,
		id,
		JobRunning,
	); err != nil {
		return fmt.Errorf("update heartbeat: %w", err)
	}
	return nil
}

// CompleteJob marks a job completed.
func (s *Store) CompleteJob(ctx context.Context, id int64) error {
	return s.finishJob(ctx, id, JobCompleted, "")
}

// FailJob marks a job failed with the provided message.
func (s *Store) FailJob(ctx context.Context, id int64, message string) error {
	return s.finishJob(ctx, id, JobFailed, message)
}

func (s *Store) finishJob(ctx context.Context, id int64, status JobStatus, message string) error {
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE jobs SET status = ?, error_message = ?, last_heartbeat = NULL, updated_at = ? WHERE id = ?`,
		status,
		nullableString(message),
		formatTime(time.Now()),
		id,
	); err != nil {
		return fmt.Errorf("finish job: %w", err)
	}
	return nil
}

// ReclaimStale returns running jobs whose heartbeat is older than cutoff to pending.
func (s *Store) ReclaimStale(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs SET status = ?, last_heartbeat = NULL, updated_at = ?
         WHERE status = ? AND last_heartbeat IS NOT NULL AND last_heartbeat < ?`,
		JobPending,
		formatTime(time.Now()),
		JobRunning,
		formatTime(cutoff),
	)
	if err != nil {
		return 0, fmt.Errorf("reclaim stale jobs: %w", err)
	}
	return res.RowsAffected()
}

// FailRunning marks every running job failed. The daemon calls it on startup
// and shutdown since requests in flight cannot be resumed.
func (s *Store) FailRunning(ctx context.Context, reason string) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs SET status = ?, error_message = ?, last_heartbeat = NULL, updated_at = ? WHERE status = ?`,
		JobFailed,
		nullableString(reason),
		formatTime(time.Now()),
		JobRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("fail running jobs: %w", err)
	}
	return res.RowsAffected()
}

// PruneJobs deletes completed and failed jobs last updated before olderThan.
func (s *Store) PruneJobs(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`DELETE FROM jobs WHERE status IN (?, ?) AND updated_at < ?`,
		JobCompleted,
		JobFailed,
		formatTime(olderThan),
	)
	if err != nil {
		return 0, fmt.Errorf("prune jobs: %w", err)
	}
	return res.RowsAffected()
}

func describeTarget(target string) string {
	if target == "" {
		return "(project)"
	}
	return target
}

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		job          Job
		kind         string
		status       string
		payload      sql.NullString
		errorMessage sql.NullString
		heartbeatRaw sql.NullString
		createdRaw   sql.NullString
		updatedRaw   sql.NullString
	)
	if err := scanner.Scan(
		&job.ID,
		&job.ProjectID,
		&kind,
		&job.Target,
		&payload,
		&status,
		&errorMessage,
		&heartbeatRaw,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	job.Kind = JobKind(kind)
	job.Status = JobStatus(status)
	job.Payload = payload.String
	job.ErrorMessage = errorMessage.String
	if created, err := parseTimeString(createdRaw.String); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		job.UpdatedAt = updated
	}
	if heartbeatRaw.Valid {
		if heartbeat, err := parseTimeString(heartbeatRaw.String); err == nil {
			job.LastHeartbeat = &heartbeat
		}
	}
	return &job, nil
}
