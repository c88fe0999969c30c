package main

import (
	"strings"
	"testing"
)

func TestLogsFallsBackToLogFile(t *testing.T) {
	env := setupCLITestEnv(t)
	logPath := env.cfg.LogFilePath()
	lines := []string{
		`{"ts":"2026-01-02T03:04:05Z","level":"info","msg":"daemon started","component":"daemon"}`,
		`{"ts":"2026-01-02T03:04:06Z","level":"error","msg":"image failed","component":"workflow","project_id":"proj-1","job_id":3}`,
		`plain text line`,
	}
	for _, line := range lines {
		if err := appendLine(logPath, line); err != nil {
			t.Fatalf("append log: %v", err)
		}
	}

	out, _, err := runCLI(t, []string{"logs", "-n", "5"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "[daemon]")
	requireContains(t, out, "daemon started")
	requireContains(t, out, "project proj-1 job #3 - image failed")
	requireContains(t, out, "plain text line")

	out, _, err = runCLI(t, []string{"logs", "--project", "proj-1"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("logs --project: %v", err)
	}
	if strings.Contains(out, "daemon started") || strings.Contains(out, "plain text line") {
		t.Fatalf("expected only project lines, got %q", out)
	}
	requireContains(t, out, "image failed")
}
