package api

import (
	"storyreel/internal/logging"
	"storyreel/internal/script"
	"storyreel/internal/store"
	"storyreel/internal/workflow"
)

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool                   `json:"running"`
	PID          int                    `json:"pid"`
	DatabasePath string                 `json:"database_path"`
	LockFilePath string                 `json:"lock_file_path"`
	LogFilePath  string                 `json:"log_file_path,omitempty"`
	Workflow     workflow.StatusSummary `json:"workflow"`
	Database     *store.DatabaseHealth  `json:"database,omitempty"`
	Checks       []CheckStatus          `json:"checks,omitempty"`
}

// CheckStatus mirrors a preflight result.
type CheckStatus struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// SignInRequest is the mocked sign-in form.
type SignInRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// SelectRequest changes the current screen.
type SelectRequest struct {
	Screen string `json:"screen"`
}

// OpenRequest opens a project in the workspace screen.
type OpenRequest struct {
	ProjectID string `json:"project_id"`
}

// ImportRequest carries narrative text to analyze.
type ImportRequest struct {
	Title string `json:"title"`
	Text  string `json:"text"`
	Mode  string `json:"mode"`
}

// ImportResponse returns the project and, for queued imports, its analyze job.
type ImportResponse struct {
	Project script.Project `json:"project"`
	Job     *store.Job     `json:"job,omitempty"`
}

// ProjectListResponse wraps dashboard summaries.
type ProjectListResponse struct {
	Projects []store.ProjectSummary `json:"projects"`
}

// JobResponse wraps a single job.
type JobResponse struct {
	Job *store.Job `json:"job"`
}

// JobListResponse wraps a collection of jobs.
type JobListResponse struct {
	Jobs []*store.Job `json:"jobs"`
}

// ActivityResponse is a page of a project's activity log. Next is the
// sequence number to pass as since on the following request.
type ActivityResponse struct {
	Entries []store.LogEntry `json:"entries"`
	Next    int64            `json:"next"`
}

// LogStreamResponse is a page of daemon log events.
type LogStreamResponse struct {
	Events []logging.LogEvent `json:"events"`
	Next   uint64             `json:"next"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewActivityResponse builds a page and its continuation cursor.
func NewActivityResponse(entries []store.LogEntry, since int64) ActivityResponse {
	next := since
	if n := len(entries); n > 0 {
		next = entries[n-1].Seq
	}
	if entries == nil {
		entries = []store.LogEntry{}
	}
	return ActivityResponse{Entries: entries, Next: next}
}
