package store

import (
	"context"
	"fmt"
	"time"
)

// AppendLog stores a log entry and assigns the next per-project sequence number.
func (s *Store) AppendLog(ctx context.Context, projectID string, severity Severity, message string, at time.Time) (LogEntry, error) {
	if at.IsZero() {
		at = time.Now()
	}
	entry := LogEntry{
		ProjectID: projectID,
		Severity:  severity,
		Message:   message,
		CreatedAt: at.UTC(),
	}
	ctx = ensureContext(ctx)
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(
			ctx,
			`INSERT INTO project_logs (project_id, seq, severity, message, created_at)
             VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM project_logs WHERE project_id = ?), ?, ?, ?)
             RETURNING seq`,
			projectID,
			projectID,
			severity,
			message,
			formatTime(entry.CreatedAt),
		).Scan(&entry.Seq)
	})
	if err != nil {
		return LogEntry{}, fmt.Errorf("append log: %w", err)
	}
	return entry, nil
}

// LogsSince returns entries with a sequence number greater than since, oldest
// first. When limit is positive only the newest limit entries are returned.
func (s *Store) LogsSince(ctx context.Context, projectID string, since int64, limit int) ([]LogEntry, error) {
	query := `SELECT project_id, seq, severity, message, created_at FROM (
                  SELECT project_id, seq, severity, message, created_at FROM project_logs
                  WHERE project_id = ? AND seq > ? ORDER BY seq DESC LIMIT ?
              ) ORDER BY seq`
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, query, projectID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("query logs: %w", err)
	}
	defer rows.Close()

	var entries []LogEntry
	for rows.Next() {
		var (
			entry      LogEntry
			severity   string
			createdRaw string
		)
		if err := rows.Scan(&entry.ProjectID, &entry.Seq, &severity, &entry.Message, &createdRaw); err != nil {
			return nil, fmt.Errorf("scan log: %w", err)
		}
		entry.Severity = Severity(severity)
		if created, err := parseTimeString(createdRaw); err == nil {
			entry.CreatedAt = created
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
