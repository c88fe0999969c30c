package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"storyreel/internal/config"
	"storyreel/internal/notifications"
	"storyreel/internal/store"
)

type captured struct {
	calls    int
	title    string
	tags     string
	priority string
	body     string
}

func newNtfyServer(t *testing.T, status int) (*httptest.Server, *captured) {
	t.Helper()
	got := &captured{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		got.calls++
		got.title = r.Header.Get("Title")
		got.tags = r.Header.Get("Tags")
		got.priority = r.Header.Get("Priority")
		body, _ := io.ReadAll(r.Body)
		got.body = string(body)
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)
	return server, got
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	svc := notifications.NewService(&cfg)
	if svc.Enabled() {
		t.Fatal("expected notifier to be disabled without a topic")
	}
	if err := svc.NotifyJobCompleted(context.Background(), &store.Job{Kind: store.JobVideo}, "x"); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		job            store.Job
		failure        error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name:          "breakdown completed",
			job:           store.Job{ProjectID: "p1", Kind: store.JobBreakdown, Target: "s1/b1"},
			expectTitle:   "storyreel - Shot List Ready",
			expectMessage: "Lighthouse s1/b1: shot list generated",
			expectTags:    "storyreel,breakdown,completed",
		},
		{
			name:           "video completed",
			job:            store.Job{ProjectID: "p1", Kind: store.JobVideo, Target: "s1/b1/sh1"},
			expectTitle:    "storyreel - Video Ready",
			expectMessage:  "Lighthouse s1/b1/sh1: clip rendered",
			expectTags:     "storyreel,video,completed",
			expectPriority: "high",
		},
		{
			name:           "image failed",
			job:            store.Job{ProjectID: "p1", Kind: store.JobImage, Target: "s1/b1/sh1"},
			failure:        errors.New("content policy"),
			expectTitle:    "storyreel - Job Failed",
			expectMessage:  "Lighthouse s1/b1/sh1: image failed: content policy",
			expectTags:     "storyreel,image,error",
			expectPriority: "high",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server, got := newNtfyServer(t, http.StatusOK)
			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5
			svc := notifications.NewService(&cfg)

			var err error
			if tc.failure != nil {
				err = svc.NotifyJobFailed(context.Background(), &tc.job, "Lighthouse", tc.failure)
			} else {
				err = svc.NotifyJobCompleted(context.Background(), &tc.job, "Lighthouse")
			}
			if err != nil {
				t.Fatalf("notification returned error: %v", err)
			}
			if got.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, got.title)
			}
			if got.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, got.body)
			}
			if got.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, got.tags)
			}
			if got.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, got.priority)
			}
		})
	}
}

func TestOnlyFailuresSkipsCompletions(t *testing.T) {
	server, got := newNtfyServer(t, http.StatusOK)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.OnlyFailures = true
	svc := notifications.NewService(&cfg)

	job := &store.Job{ProjectID: "p1", Kind: store.JobImage, Target: "s/b/sh"}
	if err := svc.NotifyJobCompleted(context.Background(), job, ""); err != nil {
		t.Fatalf("NotifyJobCompleted: %v", err)
	}
	if got.calls != 0 {
		t.Fatalf("expected no push for completion, got %d", got.calls)
	}
	if err := svc.NotifyJobFailed(context.Background(), job, "", nil); err != nil {
		t.Fatalf("NotifyJobFailed: %v", err)
	}
	if got.calls != 1 || got.body != "p1 s/b/sh: image failed: unknown error" {
		t.Fatalf("unexpected push: calls=%d body=%q", got.calls, got.body)
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	server, _ := newNtfyServer(t, http.StatusForbidden)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := notifications.NewService(&cfg)
	if err := svc.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error for 403 response")
	}
}
