package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"storyreel/internal/config"
	"storyreel/internal/store"
)

const userAgent = "storyreel/0.1"

// Service defines the notification surface exposed to the workflow.
type Service interface {
	NotifyJobCompleted(ctx context.Context, job *store.Job, projectTitle string) error
	NotifyJobFailed(ctx context.Context, job *store.Job, projectTitle string, jobErr error) error
	TestNotification(ctx context.Context) error
	Enabled() bool
}

// NewService builds a notification service backed by ntfy when configured.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:     topic,
		client:       &http.Client{Timeout: timeout},
		onlyFailures: cfg.Notifications.OnlyFailures,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint     string
	client       *http.Client
	onlyFailures bool
}

func (n *ntfyService) Enabled() bool { return true }

func (n *ntfyService) NotifyJobCompleted(ctx context.Context, job *store.Job, projectTitle string) error {
	if n.onlyFailures || job == nil {
		return nil
	}
	data := payload{
		title:   "storyreel - " + completedTitle(job.Kind),
		message: fmt.Sprintf("%s: %s", subject(projectTitle, job), completedVerb(job.Kind)),
		tags:    []string{"storyreel", string(job.Kind), "completed"},
	}
	if job.Kind == store.JobVideo {
		data.priority = "high"
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyJobFailed(ctx context.Context, job *store.Job, projectTitle string, jobErr error) error {
	if job == nil {
		return nil
	}
	reason := "unknown error"
	if jobErr != nil {
		reason = strings.TrimSpace(jobErr.Error())
	}
	data := payload{
		title:    "storyreel - Job Failed",
		message:  fmt.Sprintf("%s: %s failed: %s", subject(projectTitle, job), job.Kind, reason),
		tags:     []string{"storyreel", string(job.Kind), "error"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "storyreel - Test",
		message:  "Notification system test",
		tags:     []string{"storyreel", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func subject(projectTitle string, job *store.Job) string {
	title := strings.TrimSpace(projectTitle)
	if title == "" {
		title = job.ProjectID
	}
	if job.Target == "" {
		return title
	}
	return title + " " + job.Target
}

func completedTitle(kind store.JobKind) string {
	switch kind {
	case store.JobAnalyze:
		return "Script Ready"
	case store.JobBreakdown:
		return "Shot List Ready"
	case store.JobImage:
		return "Image Ready"
	case store.JobVideo:
		return "Video Ready"
	default:
		return "Job Complete"
	}
}

func completedVerb(kind store.JobKind) string {
	switch kind {
	case store.JobAnalyze:
		return "scenes and beats extracted"
	case store.JobBreakdown:
		return "shot list generated"
	case store.JobImage:
		return "still generated"
	case store.JobVideo:
		return "clip rendered"
	default:
		return "done"
	}
}

type noopService struct{}

func (noopService) Enabled() bool { return false }
func (noopService) NotifyJobCompleted(context.Context, *store.Job, string) error {
	return nil
}
func (noopService) NotifyJobFailed(context.Context, *store.Job, string, error) error {
	return nil
}
func (noopService) TestNotification(context.Context) error { return nil }
