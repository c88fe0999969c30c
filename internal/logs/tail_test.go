package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"storyreel/internal/logs"
)

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "storyreel.log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func TestTailLastLines(t *testing.T) {
	path := writeLog(t, "a\nb\nc\n")

	result, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: -1, Limit: 2})
	if err != nil {
		t.Fatalf("tail returned error: %v", err)
	}
	if len(result.Lines) != 2 || result.Lines[0] != "b" || result.Lines[1] != "c" {
		t.Fatalf("unexpected lines: %#v", result.Lines)
	}
	if result.Offset != 6 {
		t.Fatalf("expected offset 6, got %d", result.Offset)
	}
}

func TestTailLastLinesShorterFile(t *testing.T) {
	path := writeLog(t, "only\n")

	result, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: -1, Limit: 10})
	if err != nil {
		t.Fatalf("tail returned error: %v", err)
	}
	if len(result.Lines) != 1 || result.Lines[0] != "only" {
		t.Fatalf("unexpected lines: %#v", result.Lines)
	}
}

func TestTailFromOffsetLeavesPartialLine(t *testing.T) {
	path := writeLog(t, "one\ntwo\npart")

	result, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: 4})
	if err != nil {
		t.Fatalf("tail returned error: %v", err)
	}
	if len(result.Lines) != 1 || result.Lines[0] != "two" {
		t.Fatalf("unexpected lines: %#v", result.Lines)
	}
	if result.Offset != 8 {
		t.Fatalf("expected offset 8, got %d", result.Offset)
	}
}

func TestTailMissingFile(t *testing.T) {
	result, err := logs.Tail(context.Background(), filepath.Join(t.TempDir(), "absent.log"), logs.TailOptions{Offset: -1, Limit: 5})
	if err != nil {
		t.Fatalf("tail returned error: %v", err)
	}
	if len(result.Lines) != 0 || result.Offset != 0 {
		t.Fatalf("expected empty result, got %+v", result)
	}
}

func TestTailFollowWaits(t *testing.T) {
	path := writeLog(t, "start\n")
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	result, err := logs.Tail(ctx, path, logs.TailOptions{Offset: -1, Limit: 1})
	if err != nil {
		t.Fatalf("initial tail: %v", err)
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return
		}
		defer file.Close()
		_, _ = file.WriteString("next\n")
	}()

	next, err := logs.Tail(ctx, path, logs.TailOptions{Offset: result.Offset, Follow: true, Wait: 2 * time.Second})
	if err != nil {
		t.Fatalf("follow tail: %v", err)
	}
	if len(next.Lines) != 1 || next.Lines[0] != "next" {
		t.Fatalf("expected appended line, got %#v", next.Lines)
	}
}

func TestTailFollowTimesOut(t *testing.T) {
	path := writeLog(t, "start\n")

	result, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: 6, Follow: true, Wait: 300 * time.Millisecond})
	if err != nil {
		t.Fatalf("follow tail: %v", err)
	}
	if len(result.Lines) != 0 || result.Offset != 6 {
		t.Fatalf("expected no lines at the same offset, got %+v", result)
	}
}

func TestParseLine(t *testing.T) {
	line := `{"ts":"2026-03-01T10:00:00Z","level":"warn","msg":"video failed","component":"workflow","project_id":"p1","job_id":3,"stage":"video","shot":"s/b/sh"}`
	entry, ok := logs.ParseLine(line)
	if !ok {
		t.Fatal("expected JSON line to parse")
	}
	if entry.Level != "warn" || entry.ProjectID != "p1" || entry.JobID != 3 || entry.Fields["shot"] != "s/b/sh" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if _, ok := logs.ParseLine("plain text"); ok {
		t.Fatal("expected plain text to be rejected")
	}
}
