package ipc

import (
	"storyreel/internal/api"
	"storyreel/internal/logging"
	"storyreel/internal/script"
	"storyreel/internal/store"
)

// StartRequest triggers daemon workflow startup.
type StartRequest struct{}

// StartResponse indicates whether the daemon was started.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest stops the daemon workflow and API.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse combines daemon status with the bound API address.
type StatusResponse struct {
	Status  api.DaemonStatus `json:"status"`
	APIAddr string           `json:"api_addr,omitempty"`
}

// ProjectListRequest lists dashboard summaries.
type ProjectListRequest struct{}

// ProjectListResponse contains dashboard summaries.
type ProjectListResponse struct {
	Projects []store.ProjectSummary `json:"projects"`
}

// ProjectRequest addresses one project.
type ProjectRequest struct {
	ProjectID string `json:"project_id"`
}

// ProjectResponse carries a full project tree.
type ProjectResponse struct {
	Project script.Project `json:"project"`
}

// ProjectImportRequest creates a project from text. Wait runs the analysis
// before returning instead of queueing it.
type ProjectImportRequest struct {
	Title string `json:"title"`
	Text  string `json:"text"`
	Mode  string `json:"mode"`
	Wait  bool   `json:"wait"`
}

// ProjectImportResponse returns the project and the queued job, if any.
type ProjectImportResponse struct {
	Project script.Project `json:"project"`
	Job     *store.Job     `json:"job,omitempty"`
}

// ProjectDeleteResponse confirms removal.
type ProjectDeleteResponse struct {
	Deleted bool `json:"deleted"`
}

// SceneToggleRequest flips a scene's expanded flag.
type SceneToggleRequest struct {
	ProjectID string `json:"project_id"`
	SceneID   string `json:"scene_id"`
}

// ProjectLogsRequest reads activity entries after Since.
type ProjectLogsRequest struct {
	ProjectID string `json:"project_id"`
	Since     int64  `json:"since"`
}

// ProjectLogsResponse is one page of activity entries.
type ProjectLogsResponse = api.ActivityResponse

// SubmitRequest queues a breakdown, image or video job. Target is a
// scene/beat path for breakdowns and scene/beat/shot for media.
type SubmitRequest struct {
	ProjectID string `json:"project_id"`
	Kind      string `json:"kind"`
	Target    string `json:"target"`
}

// SubmitResponse returns the queued job.
type SubmitResponse struct {
	Job *store.Job `json:"job"`
}

// JobListRequest filters jobs by project and status.
type JobListRequest struct {
	ProjectID string   `json:"project_id"`
	Statuses  []string `json:"statuses"`
}

// JobListResponse contains jobs in submission order.
type JobListResponse struct {
	Jobs []*store.Job `json:"jobs"`
}

// LogTailRequest reads the daemon log file by offset.
type LogTailRequest struct {
	Offset     int64 `json:"offset"`
	Limit      int   `json:"limit"`
	Follow     bool  `json:"follow"`
	WaitMillis int   `json:"wait_millis"`
}

// LogTailResponse returns log lines and the next offset.
type LogTailResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}

// LogEventsRequest reads the in-memory stream hub.
type LogEventsRequest struct {
	Since     uint64 `json:"since"`
	Limit     int    `json:"limit"`
	Tail      bool   `json:"tail"`
	Follow    bool   `json:"follow"`
	ProjectID string `json:"project_id"`
}

// LogEventsResponse is a page of stream hub events.
type LogEventsResponse struct {
	Events []logging.LogEvent `json:"events"`
	Next   uint64             `json:"next"`
}

// DatabaseHealthRequest fetches database diagnostics.
type DatabaseHealthRequest struct{}

// DatabaseHealthResponse reports database health information.
type DatabaseHealthResponse struct {
	Health store.DatabaseHealth `json:"health"`
}

// PruneRequest runs maintenance immediately.
type PruneRequest struct{}

// PruneResponse reports what maintenance removed.
type PruneResponse struct {
	JobsRemoved int64 `json:"jobs_removed"`
	LogsRemoved int   `json:"logs_removed"`
}

// TestNotificationRequest sends a test push.
type TestNotificationRequest struct{}

// TestNotificationResponse reports whether the push was sent.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message,omitempty"`
}
