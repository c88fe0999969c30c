package logs_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"storyreel/internal/api"
	"storyreel/internal/logging"
	"storyreel/internal/logs"
	"storyreel/internal/store"
)

func TestNewStreamClientEmptyBind(t *testing.T) {
	client, err := logs.NewStreamClient("", "")
	if err != nil {
		t.Fatalf("NewStreamClient error: %v", err)
	}
	if client != nil {
		t.Fatal("expected nil client for empty bind")
	}
}

func TestStreamClientFetchBuildsQueryAndDecodes(t *testing.T) {
	var (
		gotPath  string
		gotQuery url.Values
		gotAuth  string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(api.LogStreamResponse{
			Events: []logging.LogEvent{{Timestamp: time.Now().UTC(), Level: "info", Message: "hello"}},
			Next:   42,
		})
	}))
	defer srv.Close()

	client, err := logs.NewStreamClient(strings.TrimPrefix(srv.URL, "http://"), "secret")
	if err != nil {
		t.Fatalf("NewStreamClient error: %v", err)
	}
	resp, err := client.Fetch(context.Background(), logs.StreamQuery{
		Since: 3, Limit: 50, Follow: true, Tail: true, Component: "workflow", ProjectID: "p1",
	})
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if gotPath != "/v1/api/logs" || gotAuth != "Bearer secret" {
		t.Fatalf("unexpected request path=%q auth=%q", gotPath, gotAuth)
	}
	want := map[string]string{"since": "3", "limit": "50", "follow": "1", "tail": "1", "component": "workflow", "project": "p1"}
	for key, value := range want {
		if gotQuery.Get(key) != value {
			t.Fatalf("query %s = %q, want %q", key, gotQuery.Get(key), value)
		}
	}
	if resp.Next != 42 || len(resp.Events) != 1 || resp.Events[0].Message != "hello" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestStreamClientActivity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/api/projects/p1/logs" || r.URL.Query().Get("since") != "2" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(api.ActivityResponse{
			Entries: []store.LogEntry{{ProjectID: "p1", Seq: 3, Severity: store.SeveritySuccess, Message: "done"}},
			Next:    3,
		})
	}))
	defer srv.Close()

	client, _ := logs.NewStreamClient(srv.URL, "")
	page, err := client.Activity(context.Background(), "p1", 2)
	if err != nil {
		t.Fatalf("Activity error: %v", err)
	}
	if page.Next != 3 || len(page.Entries) != 1 || page.Entries[0].Message != "done" {
		t.Fatalf("unexpected page: %+v", page)
	}
}

func TestStreamClientReportsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: "unauthorized"})
	}))
	defer srv.Close()

	client, _ := logs.NewStreamClient(srv.URL, "")
	_, err := client.Fetch(context.Background(), logs.StreamQuery{})
	if err == nil || !strings.Contains(err.Error(), "401") || !strings.Contains(err.Error(), "unauthorized") {
		t.Fatalf("expected status error, got %v", err)
	}
	if logs.IsAPIUnavailable(err) {
		t.Fatal("status errors are not unavailability")
	}
}

func TestIsAPIUnavailable(t *testing.T) {
	var client *logs.StreamClient
	if _, err := client.Fetch(context.Background(), logs.StreamQuery{}); !logs.IsAPIUnavailable(err) {
		t.Fatalf("expected nil client to be unavailable, got %v", err)
	}

	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()
	client, _ = logs.NewStreamClient(addr, "")
	_, err := client.Fetch(context.Background(), logs.StreamQuery{})
	if !logs.IsAPIUnavailable(err) {
		t.Fatalf("expected closed server to be unavailable, got %v", err)
	}
	if logs.IsAPIUnavailable(errors.New("other")) {
		t.Fatal("unexpected unavailability for plain error")
	}
}
