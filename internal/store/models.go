package store

import (
	"errors"
	"strings"
	"time"

	"storyreel/internal/script"
)

// JobKind identifies which generative operation a job performs.
type JobKind string

const (
	JobAnalyze   JobKind = "analyze"
	JobBreakdown JobKind = "breakdown"
	JobImage     JobKind = "image"
	JobVideo     JobKind = "video"
)

// ParseJobKind normalizes a textual kind.
func ParseJobKind(value string) (JobKind, bool) {
	switch JobKind(strings.ToLower(strings.TrimSpace(value))) {
	case JobAnalyze:
		return JobAnalyze, true
	case JobBreakdown:
		return JobBreakdown, true
	case JobImage:
		return JobImage, true
	case JobVideo:
		return JobVideo, true
	default:
		return "", false
	}
}

// JobStatus represents the lifecycle of a job.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// IsTerminal reports whether the status is final.
func (s JobStatus) IsTerminal() bool {
	return s == JobCompleted || s == JobFailed
}

// DaemonStopReason is recorded on jobs that were running when the daemon shut down.
const DaemonStopReason = "Daemon stopped"

var (
	// ErrJobActive is returned when a pending or running job already exists for the same target.
	ErrJobActive = errors.New("a job is already active for this target")
	// ErrProjectNotFound is returned when a project id is unknown.
	ErrProjectNotFound = errors.New("project not found")
)

// Job is a persisted request against the generative API.
type Job struct {
	ID            int64      `json:"id"`
	ProjectID     string     `json:"project_id"`
	Kind          JobKind    `json:"kind"`
	Target        string     `json:"target,omitempty"`
	Payload       string     `json:"-"`
	Status        JobStatus  `json:"status"`
	ErrorMessage  string     `json:"error_message,omitempty"`
	LastHeartbeat *time.Time `json:"last_heartbeat,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Severity classifies an activity log entry.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// ParseSeverity normalizes a severity label, defaulting to info.
func ParseSeverity(value string) Severity {
	switch Severity(strings.ToLower(strings.TrimSpace(value))) {
	case SeveritySuccess:
		return SeveritySuccess
	case SeverityWarning:
		return SeverityWarning
	case SeverityError:
		return SeverityError
	default:
		return SeverityInfo
	}
}

// LogEntry is one line in a project's activity log.
type LogEntry struct {
	ProjectID string    `json:"project_id"`
	Seq       int64     `json:"seq"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// ProjectSummary is the dashboard view of a project.
type ProjectSummary struct {
	ID         string               `json:"id"`
	Title      string               `json:"title"`
	Status     script.ProjectStatus `json:"status"`
	SceneCount int                  `json:"scene_count"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

// HealthSummary aggregates job counts by lifecycle bucket.
type HealthSummary struct {
	Projects  int `json:"projects"`
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Running   int `json:"running"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// DatabaseHealth describes the on-disk database for diagnostics.
type DatabaseHealth struct {
	DBPath           string `json:"db_path"`
	DatabaseExists   bool   `json:"database_exists"`
	DatabaseReadable bool   `json:"database_readable"`
	SchemaVersion    int    `json:"schema_version"`
	IntegrityCheck   bool   `json:"integrity_check"`
	Error            string `json:"error,omitempty"`
}
