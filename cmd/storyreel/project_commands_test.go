package main

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"storyreel/internal/script"
	"storyreel/internal/store"
	"storyreel/internal/testsupport"
)

func TestProjectListAndShow(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"project", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("project list: %v", err)
	}
	requireContains(t, out, "No projects yet")

	testsupport.SeedProject(t, env.store, testsupport.SampleProject())

	out, _, err = runCLI(t, []string{"project", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("project list: %v", err)
	}
	requireContains(t, out, testsupport.ProjectID)
	requireContains(t, out, "The Lighthouse")

	out, _, err = runCLI(t, []string{"project", "show", testsupport.ProjectID}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("project show: %v", err)
	}
	requireContains(t, out, "EXT. CLIFF - DAWN")
	requireContains(t, out, "shot "+testsupport.SiblingID)

	out, _, err = runCLI(t, []string{"project", "show", testsupport.ProjectID, "--json"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("project show --json: %v", err)
	}
	var decoded script.Project
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("decode json: %v (%q)", err, out)
	}
	if decoded.ID != testsupport.ProjectID || len(decoded.Scenes) != 1 {
		t.Fatalf("unexpected project: %+v", decoded)
	}
}

func TestProjectImportFromStdin(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLIWithInput(t, strings.NewReader("Boats leave the harbour at dawn."),
		[]string{"project", "import", "-", "--title", "Harbour", "--wait"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("project import: %v", err)
	}
	requireContains(t, out, "Created project")
	requireContains(t, out, "(1 scenes)")

	summaries, err := env.store.ListProjects(t.Context())
	if err != nil || len(summaries) != 1 {
		t.Fatalf("expected one stored project, got %+v err=%v", summaries, err)
	}
}

func TestProjectToggleAndLogs(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.SeedProject(t, env.store, testsupport.SampleProject())
	if _, err := env.store.AppendLog(t.Context(), testsupport.ProjectID, store.SeverityWarning, "quota low", time.Now()); err != nil {
		t.Fatalf("AppendLog: %v", err)
	}

	out, _, err := runCLI(t, []string{"project", "toggle", testsupport.ProjectID, testsupport.SceneID}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("project toggle: %v", err)
	}
	requireContains(t, out, "collapsed")

	if _, _, err := runCLI(t, []string{"project", "toggle", testsupport.ProjectID, "missing"}, env.socketPath, env.configPath); err == nil {
		t.Fatal("expected unknown scene to fail")
	}

	out, _, err = runCLI(t, []string{"project", "logs", testsupport.ProjectID}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("project logs: %v", err)
	}
	requireContains(t, out, "quota low")
}

func TestProjectDelete(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.SeedProject(t, env.store, testsupport.SampleProject())

	out, _, err := runCLI(t, []string{"project", "delete", testsupport.ProjectID}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("project delete: %v", err)
	}
	requireContains(t, out, "Deleted project "+testsupport.ProjectID)
}
