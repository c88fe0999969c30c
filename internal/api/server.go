package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"storyreel/internal/logging"
	"storyreel/internal/script"
	"storyreel/internal/services/genai"
	"storyreel/internal/session"
	"storyreel/internal/store"
	"storyreel/internal/workflow"
)

// Workspace is the project state the API reads and mutates directly.
type Workspace interface {
	Projects(ctx context.Context) ([]store.ProjectSummary, error)
	Project(ctx context.Context, projectID string) (script.Project, error)
	CreateProject(ctx context.Context, title string) (script.Project, error)
	DeleteProject(ctx context.Context, projectID string) error
	ToggleScene(ctx context.Context, projectID, sceneID string) (script.Project, error)
	Import(ctx context.Context, title, text string, mode genai.Mode) (script.Project, error)
	Precheck(ctx context.Context, projectID string, kind store.JobKind, target string) error
	Logs(ctx context.Context, projectID string, since int64) ([]store.LogEntry, error)
}

// Jobs queues generation requests for the workflow workers.
type Jobs interface {
	Enqueue(ctx context.Context, projectID string, kind store.JobKind, target string, payload *workflow.AnalyzePayload) (*store.Job, error)
	Jobs(ctx context.Context, projectID string, statuses ...store.JobStatus) ([]*store.Job, error)
}

// VideoOpener streams stored clip content.
type VideoOpener interface {
	OpenVideo(ctx context.Context, uri string) (io.ReadCloser, string, error)
}

// Deps are the collaborators behind the routes.
type Deps struct {
	Workspace Workspace
	Jobs      Jobs
	Sessions  *session.Manager
	Videos    VideoOpener
	Hub       *logging.StreamHub
	Status    func(ctx context.Context) DaemonStatus
	Token     string
	Logger    *slog.Logger

	// StreamInterval is how often the activity websocket polls for entries.
	StreamInterval time.Duration
	// MaxImportBytes caps uploaded and posted text.
	MaxImportBytes int64
}

const (
	defaultStreamInterval = 500 * time.Millisecond
	defaultMaxImportBytes = 2 << 20
	defaultLogLimit       = 200
)

// Server is the HTTP API server.
type Server struct {
	deps   Deps
	logger *slog.Logger
	engine *gin.Engine

	listener net.Listener
	server   *http.Server
}

// New builds the router. It does not listen until Start.
func New(deps Deps) *Server {
	if deps.StreamInterval <= 0 {
		deps.StreamInterval = defaultStreamInterval
	}
	if deps.MaxImportBytes <= 0 {
		deps.MaxImportBytes = defaultMaxImportBytes
	}
	s := &Server{deps: deps, logger: logging.NewComponentLogger(deps.Logger, "api-server")}
	s.engine = s.routes()
	s.server = &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), authMiddleware(s.deps.Token))

	v1 := r.Group("/v1/api")
	{
		v1.POST("/session", s.signIn)
		v1.DELETE("/session", s.signOut)
		v1.GET("/session/view", s.currentView)
		v1.PUT("/session/view", s.selectView)
		v1.POST("/session/open", s.openProject)
		v1.GET("/dashboard", s.dashboard)

		v1.GET("/projects", s.listProjects)
		v1.POST("/projects/import", s.importProject)
		v1.GET("/projects/:project_id", s.getProject)
		v1.DELETE("/projects/:project_id", s.deleteProject)
		v1.POST("/projects/:project_id/scenes/:scene_id/toggle", s.toggleScene)
		v1.POST("/projects/:project_id/scenes/:scene_id/beats/:beat_id/shots", s.enqueueBreakdown)
		v1.POST("/projects/:project_id/scenes/:scene_id/beats/:beat_id/shots/:shot_id/image", s.enqueueShot(store.JobImage))
		v1.POST("/projects/:project_id/scenes/:scene_id/beats/:beat_id/shots/:shot_id/video", s.enqueueShot(store.JobVideo))
		v1.GET("/projects/:project_id/scenes/:scene_id/beats/:beat_id/shots/:shot_id/video/content", s.videoContent)
		v1.GET("/projects/:project_id/jobs", s.listJobs)
		v1.GET("/projects/:project_id/logs", s.projectLogs)
		v1.GET("/projects/:project_id/logs/ws", s.projectLogStream)

		v1.GET("/jobs", s.listJobs)
		v1.GET("/logs", s.daemonLogs)
		v1.GET("/status", s.status)
	}
	return r
}

// Start listens on bind and serves until ctx is cancelled or Stop is called.
func (s *Server) Start(ctx context.Context, bind string) error {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return nil
	}
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr reports the bound address, or empty before Start.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down, waiting briefly for in-flight requests.
func (s *Server) Stop() {
	if s == nil || s.server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("api request",
			logging.String("method", c.Request.Method),
			logging.String("path", c.FullPath()),
			logging.Int("status", c.Writer.Status()),
			logging.Duration("elapsed", time.Since(start)),
		)
	}
}
