package workspace

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storyreel/internal/logging"
	"storyreel/internal/script"
	"storyreel/internal/services"
	"storyreel/internal/services/genai"
	"storyreel/internal/store"
)

const (
	untitled      = "Untitled"
	analyzeTarget = "analyze"
)

// Import creates a project and analyzes text into its tree.
func (w *Workspace) Import(ctx context.Context, title, text string, mode genai.Mode) (script.Project, error) {
	if strings.TrimSpace(text) == "" {
		return script.Project{}, services.Wrap(services.ErrValidation, "analyze", "import", "text is empty", nil)
	}
	p, err := w.CreateProject(ctx, strings.TrimSpace(title))
	if err != nil {
		return script.Project{}, err
	}
	return w.Analyze(ctx, p.ID, text, mode)
}

// Analyze sends text to the analysis call and replaces the project's assets
// and scenes with the result. An explicit project title is kept.
func (w *Workspace) Analyze(ctx context.Context, projectID, text string, mode genai.Mode) (script.Project, error) {
	release, err := w.acquire(projectID, analyzeTarget)
	if err != nil {
		return script.Project{}, err
	}
	defer release()
	ctx = services.WithStage(services.WithProjectID(ctx, projectID), string(store.JobAnalyze))

	if _, err := w.load(ctx, projectID); err != nil {
		return script.Project{}, err
	}
	if strings.TrimSpace(text) == "" {
		return script.Project{}, w.fail(ctx, projectID, services.Wrap(services.ErrValidation, "analyze", "", "text is empty", nil))
	}
	w.info(ctx, projectID, store.SeverityInfo, fmt.Sprintf("Analyzing %s (%d characters)", mode, len([]rune(text))))

	draft, err := w.gen.AnalyzeText(ctx, text, mode)
	if err != nil {
		return script.Project{}, w.fail(ctx, projectID, services.Wrap(services.ErrExternalTool, "analyze", "", "analysis request failed", err))
	}

	built := script.FromAnalysis(draft, w.now().UTC())
	p, err := w.update(ctx, projectID, func(cur script.Project) (script.Project, error) {
		next := built
		next.ID = cur.ID
		next.CreatedAt = cur.CreatedAt
		if cur.Title != "" && cur.Title != untitled {
			next.Title = cur.Title
		}
		return next, nil
	})
	if err != nil {
		return script.Project{}, w.fail(ctx, projectID, err)
	}
	w.info(ctx, projectID, store.SeveritySuccess,
		fmt.Sprintf("Script ready: %q with %d scenes and %d assets", p.Title, len(p.Scenes), len(p.Assets)))
	return p.Clone(), nil
}

// GenerateShots asks for a shot list for one beat and replaces the beat's shots.
func (w *Workspace) GenerateShots(ctx context.Context, projectID string, path script.BeatPath) (script.Project, error) {
	release, err := w.acquire(projectID, path.String())
	if err != nil {
		return script.Project{}, err
	}
	defer release()
	ctx = services.WithStage(services.WithProjectID(ctx, projectID), string(store.JobBreakdown))

	p, err := w.load(ctx, projectID)
	if err != nil {
		return script.Project{}, err
	}
	scene, beat, ok := script.FindBeat(p, path)
	if !ok {
		return script.Project{}, w.fail(ctx, projectID, notFound("breakdown", path.String()))
	}
	w.info(ctx, projectID, store.SeverityInfo, fmt.Sprintf("Breaking down beat in %s", scene.Slugline))

	drafts, err := w.gen.BreakdownBeat(ctx, genai.BeatContext{SceneHeading: scene.Slugline, Beat: beat, Assets: p.Assets})
	if err != nil {
		return script.Project{}, w.fail(ctx, projectID, services.Wrap(services.ErrExternalTool, "breakdown", path.String(), "shot breakdown failed", err))
	}
	shots := script.ShotsFromDrafts(drafts, p.Assets)

	next, err := w.update(ctx, projectID, func(cur script.Project) (script.Project, error) {
		_, latest, ok := script.FindBeat(cur, path)
		if !ok {
			return script.Project{}, notFound("breakdown", path.String())
		}
		latest.Shots = shots
		return script.ReplaceBeat(cur, path.SceneID, latest)
	})
	if err != nil {
		return script.Project{}, w.fail(ctx, projectID, err)
	}
	w.info(ctx, projectID, store.SeveritySuccess, fmt.Sprintf("Generated %d shots", len(shots)))
	return next.Clone(), nil
}

// GenerateImage renders a still for a shot, folding the scene heading and the
// referenced asset descriptions into the prompt.
func (w *Workspace) GenerateImage(ctx context.Context, projectID string, path script.ShotPath) (script.Project, error) {
	release, err := w.acquire(projectID, path.String())
	if err != nil {
		return script.Project{}, err
	}
	defer release()
	ctx = services.WithStage(services.WithProjectID(ctx, projectID), string(store.JobImage))

	p, err := w.load(ctx, projectID)
	if err != nil {
		return script.Project{}, err
	}
	scene, _, shot, ok := script.FindShot(p, path)
	if !ok {
		return script.Project{}, w.fail(ctx, projectID, notFound("image", path.String()))
	}
	w.info(ctx, projectID, store.SeverityInfo, fmt.Sprintf("Rendering %s still", shotLabel(shot)))

	img, err := w.gen.GenerateImage(ctx, genai.ImagePrompt(shot, scene.Slugline, p.AssetsByID()))
	if err != nil {
		return script.Project{}, w.fail(ctx, projectID, services.Wrap(services.ErrExternalTool, "image", path.String(), "image generation failed", err))
	}
	ref := &script.MediaRef{URI: img.DataURL(), MIMEType: img.MIMEType, CreatedAt: w.now().UTC()}

	next, err := w.replaceShot(ctx, projectID, path, "image", func(s script.Shot) script.Shot {
		s.Image = ref
		return s
	})
	if err != nil {
		return script.Project{}, w.fail(ctx, projectID, err)
	}
	w.info(ctx, projectID, store.SeveritySuccess, fmt.Sprintf("Still ready for %s", shotLabel(shot)))
	return next.Clone(), nil
}

// GenerateVideo animates a shot's still. A shot without a still is refused
// before any request is made.
func (w *Workspace) GenerateVideo(ctx context.Context, projectID string, path script.ShotPath) (script.Project, error) {
	ctx = services.WithStage(services.WithProjectID(ctx, projectID), string(store.JobVideo))

	p, err := w.load(ctx, projectID)
	if err != nil {
		return script.Project{}, err
	}
	scene, _, shot, ok := script.FindShot(p, path)
	if !ok {
		return script.Project{}, w.fail(ctx, projectID, notFound("video", path.String()))
	}
	if !shot.HasImage() {
		return script.Project{}, w.fail(ctx, projectID,
			services.Wrap(services.ErrValidation, "video", path.String(), "generate a still first", ErrImageRequired))
	}
	still, err := genai.ParseDataURL(shot.Image.URI)
	if err != nil {
		return script.Project{}, w.fail(ctx, projectID, services.Wrap(services.ErrValidation, "video", path.String(), "stored still is unreadable", err))
	}

	release, err := w.acquire(projectID, path.String())
	if err != nil {
		return script.Project{}, err
	}
	defer release()
	w.info(ctx, projectID, store.SeverityInfo, fmt.Sprintf("Animating %s", shotLabel(shot)))

	uri, err := w.gen.GenerateVideo(ctx, genai.VideoRequest{Prompt: genai.VideoPrompt(shot, scene.Slugline), Image: still})
	if err != nil {
		return script.Project{}, w.fail(ctx, projectID, services.Wrap(services.ErrExternalTool, "video", path.String(), "video generation failed", err))
	}
	ref := &script.MediaRef{URI: uri, MIMEType: "video/mp4", CreatedAt: w.now().UTC()}

	next, err := w.replaceShot(ctx, projectID, path, "video", func(s script.Shot) script.Shot {
		s.Video = ref
		return s
	})
	if err != nil {
		return script.Project{}, w.fail(ctx, projectID, err)
	}
	w.info(ctx, projectID, store.SeveritySuccess, fmt.Sprintf("Clip ready for %s", shotLabel(shot)))
	return next.Clone(), nil
}

// Precheck refuses a queued request whose target does not exist, or a clip
// for a shot without a still, before a job is stored for it. Refusals are
// written to the project log like any other failure.
func (w *Workspace) Precheck(ctx context.Context, projectID string, kind store.JobKind, target string) error {
	ctx = services.WithStage(services.WithProjectID(ctx, projectID), string(kind))
	p, err := w.load(ctx, projectID)
	if err != nil {
		return err
	}
	switch kind {
	case store.JobBreakdown:
		path, err := script.ParseBeatPath(target)
		if err != nil {
			return services.Wrap(services.ErrValidation, string(kind), "", "", err)
		}
		if _, _, ok := script.FindBeat(p, path); !ok {
			return w.fail(ctx, projectID, notFound(string(kind), path.String()))
		}
	case store.JobImage, store.JobVideo:
		path, err := script.ParseShotPath(target)
		if err != nil {
			return services.Wrap(services.ErrValidation, string(kind), "", "", err)
		}
		_, _, shot, ok := script.FindShot(p, path)
		if !ok {
			return w.fail(ctx, projectID, notFound(string(kind), path.String()))
		}
		if kind == store.JobVideo && !shot.HasImage() {
			return w.fail(ctx, projectID,
				services.Wrap(services.ErrValidation, "video", path.String(), "generate a still first", ErrImageRequired))
		}
	}
	return nil
}

// replaceShot merges a change into the shot as it exists in the latest tree.
func (w *Workspace) replaceShot(ctx context.Context, projectID string, path script.ShotPath, stage string, change func(script.Shot) script.Shot) (script.Project, error) {
	return w.update(ctx, projectID, func(cur script.Project) (script.Project, error) {
		_, _, latest, ok := script.FindShot(cur, path)
		if !ok {
			return script.Project{}, notFound(stage, path.String())
		}
		return script.ReplaceShot(cur, path.SceneID, path.BeatID, change(latest.Clone()))
	})
}

// fail records err in the project log and returns it unchanged.
func (w *Workspace) fail(ctx context.Context, projectID string, err error) error {
	if err == nil {
		return nil
	}
	logger := logging.WithContext(ctx, w.logger)
	severity := services.FailureSeverity(err)
	if severity == store.SeverityError {
		logging.ErrorWithContext(logger, "request failed", "request_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the activity log and re-run the request"),
		)
	} else {
		logging.WarnWithContext(logger, "request refused", "request_refused",
			logging.Error(err),
			logging.String(logging.FieldImpact, "no change was made to the project"),
		)
	}
	if _, logErr := w.logs.append(ctx, projectID, severity, err.Error(), w.now()); logErr != nil && !errors.Is(logErr, context.Canceled) {
		logger.Warn("activity log write failed", logging.Error(logErr))
	}
	return err
}

func (w *Workspace) info(ctx context.Context, projectID string, severity store.Severity, message string) {
	if _, err := w.logs.append(ctx, projectID, severity, message, w.now()); err != nil {
		logging.WithContext(ctx, w.logger).Warn("activity log write failed", logging.Error(err))
	}
}

func notFound(stage, path string) error {
	return services.Wrap(services.ErrNotFound, stage, path, "", script.ErrNotFound)
}

func shotLabel(shot script.Shot) string {
	if shot.ShotType == "" {
		return "shot"
	}
	return strings.ToLower(shot.ShotType) + " shot"
}
