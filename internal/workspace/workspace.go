package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"storyreel/internal/logging"
	"storyreel/internal/script"
	"storyreel/internal/services"
	"storyreel/internal/services/genai"
	"storyreel/internal/store"
)

// Generator is the generative API surface the workspace drives.
type Generator interface {
	AnalyzeText(ctx context.Context, text string, mode genai.Mode) (script.ProjectDraft, error)
	BreakdownBeat(ctx context.Context, beat genai.BeatContext) ([]script.ShotDraft, error)
	GenerateImage(ctx context.Context, prompt string) (genai.Image, error)
	GenerateVideo(ctx context.Context, req genai.VideoRequest) (string, error)
}

var (
	// ErrBusy is returned when a request is already outstanding for the target.
	ErrBusy = errors.New("a request is already in progress for this target")
	// ErrImageRequired is returned when a clip is requested for a shot without a still.
	ErrImageRequired = errors.New("shot has no image yet")
)

// Workspace holds one in-memory tree per open project.
type Workspace struct {
	store  *store.Store
	gen    Generator
	logger *slog.Logger
	now    func() time.Time
	logs   *Logbook

	mu    sync.Mutex
	trees map[string]script.Project
	busy  map[string]struct{}

	persistMu sync.Mutex
}

// Option customizes a Workspace.
type Option func(*Workspace)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(w *Workspace) {
		if now != nil {
			w.now = now
		}
	}
}

// WithLogCapacity bounds the in-memory log ring per project.
func WithLogCapacity(capacity int) Option {
	return func(w *Workspace) {
		w.logs.capacity = normalizeCapacity(capacity)
	}
}

// New constructs a workspace backed by st and driven by gen.
func New(st *store.Store, gen Generator, logger *slog.Logger, opts ...Option) *Workspace {
	logger = logging.NewComponentLogger(logger, "workspace")
	w := &Workspace{
		store:  st,
		gen:    gen,
		logger: logger,
		now:    time.Now,
		trees:  make(map[string]script.Project),
		busy:   make(map[string]struct{}),
	}
	w.logs = newLogbook(st, logger, defaultLogCapacity)
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Project returns a deep copy of the current tree.
func (w *Workspace) Project(ctx context.Context, projectID string) (script.Project, error) {
	p, err := w.load(ctx, projectID)
	if err != nil {
		return script.Project{}, err
	}
	return p.Clone(), nil
}

// Projects lists stored projects for the dashboard, most recently updated first.
func (w *Workspace) Projects(ctx context.Context) ([]store.ProjectSummary, error) {
	return w.store.ListProjects(ctx)
}

// CreateProject stores an empty project ready for analysis.
func (w *Workspace) CreateProject(ctx context.Context, title string) (script.Project, error) {
	now := w.now().UTC()
	p := script.Project{
		ID:        script.NewID(),
		Title:     title,
		Status:    script.StatusDraft,
		Assets:    []script.Asset{},
		Scenes:    []script.Scene{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if p.Title == "" {
		p.Title = untitled
	}
	if err := w.store.SaveProject(ctx, p); err != nil {
		return script.Project{}, err
	}
	w.mu.Lock()
	w.trees[p.ID] = p
	w.mu.Unlock()
	w.logger.Info("project created", logging.String(logging.FieldProjectID, p.ID), logging.String("title", p.Title))
	return p.Clone(), nil
}

// DeleteProject forgets the tree and removes it, with its logs and jobs, from the store.
func (w *Workspace) DeleteProject(ctx context.Context, projectID string) error {
	// Holding persistMu keeps an in-flight save from writing the row back.
	w.persistMu.Lock()
	removed, err := w.store.DeleteProject(ctx, projectID)
	if err != nil {
		w.persistMu.Unlock()
		return err
	}
	w.mu.Lock()
	delete(w.trees, projectID)
	w.mu.Unlock()
	w.persistMu.Unlock()
	w.logs.forget(projectID)
	if !removed {
		return fmt.Errorf("%w: %s", store.ErrProjectNotFound, projectID)
	}
	return nil
}

// ToggleScene flips a scene's expanded flag.
func (w *Workspace) ToggleScene(ctx context.Context, projectID, sceneID string) (script.Project, error) {
	p, err := w.update(ctx, projectID, func(cur script.Project) (script.Project, error) {
		return script.ToggleScene(cur, sceneID)
	})
	if err != nil {
		return script.Project{}, err
	}
	return p.Clone(), nil
}

// load returns the cached tree, reading it from the store on first use.
func (w *Workspace) load(ctx context.Context, projectID string) (script.Project, error) {
	w.mu.Lock()
	p, ok := w.trees[projectID]
	w.mu.Unlock()
	if ok {
		return p, nil
	}
	stored, err := w.store.GetProject(ctx, projectID)
	if err != nil {
		return script.Project{}, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if cur, ok := w.trees[projectID]; ok {
		return cur, nil
	}
	w.trees[projectID] = stored
	return stored, nil
}

// update applies a pure replacement to the latest tree, swaps it in and
// persists it. fn runs under the swap lock and must not block.
func (w *Workspace) update(ctx context.Context, projectID string, fn func(script.Project) (script.Project, error)) (script.Project, error) {
	if _, err := w.load(ctx, projectID); err != nil {
		return script.Project{}, err
	}
	w.mu.Lock()
	next, err := fn(w.trees[projectID])
	if err != nil {
		w.mu.Unlock()
		return script.Project{}, err
	}
	if err := script.Validate(next); err != nil {
		w.mu.Unlock()
		return script.Project{}, services.Wrap(services.ErrValidation, "tree", projectID, "refusing invalid tree", err)
	}
	next.Status = next.DeriveStatus()
	next.UpdatedAt = w.now().UTC()
	w.trees[projectID] = next
	w.mu.Unlock()

	if err := w.persist(ctx, projectID); err != nil {
		return next, err
	}
	return next, nil
}

// persist writes whatever tree is current when the write starts, so racing
// swaps always leave the newest tree on disk.
func (w *Workspace) persist(ctx context.Context, projectID string) error {
	w.persistMu.Lock()
	defer w.persistMu.Unlock()
	w.mu.Lock()
	p, ok := w.trees[projectID]
	w.mu.Unlock()
	if !ok {
		return nil
	}
	if err := w.store.SaveProject(ctx, p); err != nil {
		logging.ErrorWithContext(w.logger, "project save failed", "project_save_failed",
			logging.String(logging.FieldProjectID, projectID),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check database permissions and free disk space"),
		)
		return err
	}
	return nil
}

// acquire claims target within a project or returns ErrBusy.
func (w *Workspace) acquire(projectID, target string) (func(), error) {
	key := projectID + "|" + target
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, taken := w.busy[key]; taken {
		return nil, fmt.Errorf("%w: %s", ErrBusy, target)
	}
	w.busy[key] = struct{}{}
	return func() {
		w.mu.Lock()
		delete(w.busy, key)
		w.mu.Unlock()
	}, nil
}

// Busy reports whether a request is outstanding for target.
func (w *Workspace) Busy(projectID, target string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, taken := w.busy[projectID+"|"+target]
	return taken
}
