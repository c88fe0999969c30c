package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"storyreel/internal/script"
)

// SaveProject inserts or replaces the stored snapshot of a project tree.
func (s *Store) SaveProject(ctx context.Context, project script.Project) error {
	if strings.TrimSpace(project.ID) == "" {
		return errors.New("project id is required")
	}
	tree, err := json.Marshal(project)
	if err != nil {
		return fmt.Errorf("marshal project: %w", err)
	}
	if err := s.execWithoutResultRetry(
		ctx,
		`INSERT INTO projects (id, title, status, scene_count, tree_json, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET
             title = excluded.title,
             status = excluded.status,
             scene_count = excluded.scene_count,
             tree_json = excluded.tree_json,
             updated_at = excluded.updated_at`,
		project.ID,
		project.Title,
		project.Status,
		project.SceneCount(),
		string(tree),
		formatTime(project.CreatedAt),
		formatTime(project.UpdatedAt),
	); err != nil {
		return fmt.Errorf("save project: %w", err)
	}
	return nil
}

// GetProject loads a project tree. It returns ErrProjectNotFound for unknown ids.
func (s *Store) GetProject(ctx context.Context, id string) (script.Project, error) {
	var tree string
	err := s.db.QueryRowContext(ctx, `SELECT tree_json FROM projects WHERE id = ?`, id).Scan(&tree)
	if errors.Is(err, sql.ErrNoRows) {
		return script.Project{}, fmt.Errorf("%w: %s", ErrProjectNotFound, id)
	}
	if err != nil {
		return script.Project{}, fmt.Errorf("get project: %w", err)
	}
	var project script.Project
	if err := json.Unmarshal([]byte(tree), &project); err != nil {
		return script.Project{}, fmt.Errorf("decode project %s: %w", id, err)
	}
	return project, nil
}

// ListProjects returns dashboard summaries, most recently updated first.
func (s *Store) ListProjects(ctx context.Context) ([]ProjectSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, status, scene_count, created_at, updated_at
         FROM projects ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var summaries []ProjectSummary
	for rows.Next() {
		var (
			summary    ProjectSummary
			status     string
			createdRaw string
			updatedRaw string
		)
		if err := rows.Scan(&summary.ID, &summary.Title, &status, &summary.SceneCount, &createdRaw, &updatedRaw); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		summary.Status = script.ProjectStatus(status)
		if created, err := parseTimeString(createdRaw); err == nil {
			summary.CreatedAt = created
		}
		if updated, err := parseTimeString(updatedRaw); err == nil {
			summary.UpdatedAt = updated
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

// DeleteProject removes a project together with its logs and jobs.
func (s *Store) DeleteProject(ctx context.Context, id string) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete project: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}
