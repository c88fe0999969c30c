// Package session tracks which screen each signed-in user is looking at.
//
// Screen selection is a plain assignment; there are no transition guards.
// Authentication is mocked: any non-empty email signs in.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"storyreel/internal/store"
)

// Screen names a top-level view.
type Screen string

const (
	ScreenLanding   Screen = "landing"
	ScreenAuth      Screen = "auth"
	ScreenDashboard Screen = "dashboard"
	ScreenImport    Screen = "import"
	ScreenWorkspace Screen = "workspace"
)

var (
	// ErrEmailRequired is returned when signing in without an email.
	ErrEmailRequired = errors.New("email is required")
	// ErrUnknownSession is returned for tokens that were never issued or were signed out.
	ErrUnknownSession = errors.New("unknown session")
	// ErrUnknownScreen is returned for screen names outside the known set.
	ErrUnknownScreen = errors.New("unknown screen")
)

// ParseScreen validates a screen name.
func ParseScreen(value string) (Screen, error) {
	switch s := Screen(strings.ToLower(strings.TrimSpace(value))); s {
	case ScreenLanding, ScreenAuth, ScreenDashboard, ScreenImport, ScreenWorkspace:
		return s, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownScreen, value)
	}
}

// User is the signed-in identity.
type User struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// View is the current screen selection.
type View struct {
	Screen    Screen `json:"screen"`
	ProjectID string `json:"project_id,omitempty"`
}

// Session is one signed-in browser.
type Session struct {
	Token     string    `json:"token"`
	User      User      `json:"user"`
	View      View      `json:"view"`
	CreatedAt time.Time `json:"created_at"`
}

// ProjectLister provides the dashboard's project list.
type ProjectLister interface {
	ListProjects(ctx context.Context) ([]store.ProjectSummary, error)
}

// Manager holds sessions in memory.
type Manager struct {
	projects ProjectLister
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]Session
}

// NewManager constructs a session manager backed by projects.
func NewManager(projects ProjectLister) *Manager {
	return &Manager{projects: projects, now: time.Now, sessions: make(map[string]Session)}
}

// SignIn accepts any non-empty email and lands the user on the dashboard.
func (m *Manager) SignIn(email, name string) (Session, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return Session{}, ErrEmailRequired
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	s := Session{
		Token:     uuid.NewString(),
		User:      User{Email: email, Name: name},
		View:      View{Screen: ScreenDashboard},
		CreatedAt: m.now().UTC(),
	}
	m.mu.Lock()
	m.sessions[s.Token] = s
	m.mu.Unlock()
	return s, nil
}

// SignOut forgets a session. Unknown tokens are ignored.
func (m *Manager) SignOut(token string) {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
}

// Get returns the session for token.
func (m *Manager) Get(token string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	if !ok {
		return Session{}, ErrUnknownSession
	}
	return s, nil
}

// Select switches to screen. Leaving the workspace clears the open project.
func (m *Manager) Select(token string, screen Screen) (View, error) {
	return m.setView(token, func(v View) View {
		if screen != ScreenWorkspace {
			v.ProjectID = ""
		}
		v.Screen = screen
		return v
	})
}

// OpenProject selects the workspace screen for projectID.
func (m *Manager) OpenProject(token, projectID string) (View, error) {
	return m.setView(token, func(View) View {
		return View{Screen: ScreenWorkspace, ProjectID: projectID}
	})
}

// Dashboard lists projects for the dashboard screen.
func (m *Manager) Dashboard(ctx context.Context, token string) ([]store.ProjectSummary, error) {
	if _, err := m.Get(token); err != nil {
		return nil, err
	}
	return m.projects.ListProjects(ctx)
}

func (m *Manager) setView(token string, fn func(View) View) (View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	if !ok {
		return View{}, ErrUnknownSession
	}
	s.View = fn(s.View)
	m.sessions[token] = s
	return s.View, nil
}
