package session

import (
	"context"
	"errors"
	"testing"

	"storyreel/internal/store"
)

type stubLister struct {
	projects []store.ProjectSummary
}

func (s stubLister) ListProjects(context.Context) ([]store.ProjectSummary, error) {
	return s.projects, nil
}

func TestSignInRequiresEmail(t *testing.T) {
	m := NewManager(stubLister{})
	if _, err := m.SignIn("  ", "Ada"); !errors.Is(err, ErrEmailRequired) {
		t.Fatalf("expected ErrEmailRequired, got %v", err)
	}
}

func TestSignInLandsOnDashboard(t *testing.T) {
	m := NewManager(stubLister{})
	s, err := m.SignIn("writer@example.com", "")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if s.Token == "" || s.View.Screen != ScreenDashboard || s.User.Name != "writer" {
		t.Fatalf("unexpected session: %+v", s)
	}
	other, _ := m.SignIn("writer@example.com", "")
	if other.Token == s.Token {
		t.Fatal("expected distinct tokens")
	}
}

func TestSelectAndOpenProject(t *testing.T) {
	m := NewManager(stubLister{})
	s, _ := m.SignIn("a@b.c", "A")

	view, err := m.OpenProject(s.Token, "proj-1")
	if err != nil {
		t.Fatalf("OpenProject: %v", err)
	}
	if view.Screen != ScreenWorkspace || view.ProjectID != "proj-1" {
		t.Fatalf("unexpected view: %+v", view)
	}

	view, err = m.Select(s.Token, ScreenImport)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if view.Screen != ScreenImport || view.ProjectID != "" {
		t.Fatalf("unexpected view after select: %+v", view)
	}

	if _, err := m.Select("nope", ScreenLanding); !errors.Is(err, ErrUnknownSession) {
		t.Fatalf("expected ErrUnknownSession, got %v", err)
	}
}

func TestParseScreen(t *testing.T) {
	tests := []struct {
		in      string
		want    Screen
		wantErr bool
	}{
		{in: "landing", want: ScreenLanding},
		{in: " Workspace ", want: ScreenWorkspace},
		{in: "settings", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseScreen(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrUnknownScreen) {
				t.Errorf("ParseScreen(%q) expected ErrUnknownScreen, got %v", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseScreen(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestDashboardListsProjects(t *testing.T) {
	m := NewManager(stubLister{projects: []store.ProjectSummary{{ID: "p1", Title: "One", SceneCount: 3}}})
	s, _ := m.SignIn("a@b.c", "A")

	projects, err := m.Dashboard(context.Background(), s.Token)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if len(projects) != 1 || projects[0].SceneCount != 3 {
		t.Fatalf("unexpected projects: %+v", projects)
	}

	m.SignOut(s.Token)
	if _, err := m.Dashboard(context.Background(), s.Token); !errors.Is(err, ErrUnknownSession) {
		t.Fatalf("expected ErrUnknownSession after sign out, got %v", err)
	}
}
