package api

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"storyreel/internal/script"
	"storyreel/internal/services"
	"storyreel/internal/services/genai"
	"storyreel/internal/store"
	"storyreel/internal/workflow"
)

func (s *Server) listProjects(c *gin.Context) {
	projects, err := s.deps.Workspace.Projects(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	if projects == nil {
		projects = []store.ProjectSummary{}
	}
	c.JSON(http.StatusOK, ProjectListResponse{Projects: projects})
}

func (s *Server) getProject(c *gin.Context) {
	p, err := s.deps.Workspace.Project(c.Request.Context(), c.Param("project_id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) deleteProject(c *gin.Context) {
	if err := s.deps.Workspace.DeleteProject(c.Request.Context(), c.Param("project_id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) importProject(c *gin.Context) {
	req, err := s.readImport(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	mode := genai.ParseMode(req.Mode)
	ctx := c.Request.Context()

	if wait, _ := strconv.ParseBool(c.Query("wait")); wait {
		p, err := s.deps.Workspace.Import(ctx, req.Title, req.Text, mode)
		if err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, ImportResponse{Project: p})
		return
	}

	p, err := s.deps.Workspace.CreateProject(ctx, req.Title)
	if err != nil {
		s.fail(c, err)
		return
	}
	job, err := s.deps.Jobs.Enqueue(ctx, p.ID, store.JobAnalyze, "", &workflow.AnalyzePayload{Text: req.Text, Mode: mode})
	if err != nil {
		_ = s.deps.Workspace.DeleteProject(ctx, p.ID)
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, ImportResponse{Project: p, Job: job})
}

// readImport accepts either a JSON body or a multipart upload with a "file"
// part. Form fields title, mode and text mirror the JSON body.
func (s *Server) readImport(c *gin.Context) (ImportRequest, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.deps.MaxImportBytes+64<<10)

	var req ImportRequest
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		req.Title = c.PostForm("title")
		req.Mode = c.PostForm("mode")
		req.Text = c.PostForm("text")
		if header, err := c.FormFile("file"); err == nil {
			file, err := header.Open()
			if err != nil {
				return req, services.Wrap(services.ErrValidation, "import", "upload", "unreadable file", err)
			}
			defer file.Close()
			data, err := io.ReadAll(io.LimitReader(file, s.deps.MaxImportBytes+1))
			if err != nil {
				return req, services.Wrap(services.ErrValidation, "import", "upload", "unreadable file", err)
			}
			if int64(len(data)) > s.deps.MaxImportBytes {
				return req, services.Wrap(services.ErrValidation, "import", "upload", fmt.Sprintf("file exceeds %d bytes", s.deps.MaxImportBytes), nil)
			}
			req.Text = string(data)
			if strings.TrimSpace(req.Title) == "" {
				req.Title = strings.TrimSuffix(filepath.Base(header.Filename), filepath.Ext(header.Filename))
			}
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		return req, services.Wrap(services.ErrValidation, "import", "decode", "invalid import payload", err)
	}

	req.Title = strings.TrimSpace(req.Title)
	if strings.TrimSpace(req.Text) == "" {
		return req, services.Wrap(services.ErrValidation, "import", "", "text is required", nil)
	}
	if int64(len(req.Text)) > s.deps.MaxImportBytes {
		return req, services.Wrap(services.ErrValidation, "import", "", fmt.Sprintf("text exceeds %d bytes", s.deps.MaxImportBytes), nil)
	}
	return req, nil
}

func (s *Server) toggleScene(c *gin.Context) {
	p, err := s.deps.Workspace.ToggleScene(c.Request.Context(), c.Param("project_id"), c.Param("scene_id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) enqueueBreakdown(c *gin.Context) {
	path := script.BeatPath{SceneID: c.Param("scene_id"), BeatID: c.Param("beat_id")}
	s.enqueue(c, store.JobBreakdown, path.String())
}

func (s *Server) enqueueShot(kind store.JobKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.enqueue(c, kind, shotPathParam(c).String())
	}
}

func (s *Server) enqueue(c *gin.Context, kind store.JobKind, target string) {
	ctx := c.Request.Context()
	projectID := c.Param("project_id")
	if err := s.deps.Workspace.Precheck(ctx, projectID, kind, target); err != nil {
		s.fail(c, err)
		return
	}
	job, err := s.deps.Jobs.Enqueue(ctx, projectID, kind, target, nil)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, JobResponse{Job: job})
}

func (s *Server) listJobs(c *gin.Context) {
	var statuses []store.JobStatus
	for _, value := range c.QueryArray("status") {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			statuses = append(statuses, store.JobStatus(strings.ToLower(trimmed)))
		}
	}
	jobs, err := s.deps.Jobs.Jobs(c.Request.Context(), c.Param("project_id"), statuses...)
	if err != nil {
		s.fail(c, err)
		return
	}
	if jobs == nil {
		jobs = []*store.Job{}
	}
	c.JSON(http.StatusOK, JobListResponse{Jobs: jobs})
}

// videoContent proxies a finished clip so the browser never sees the
// generative API credentials.
func (s *Server) videoContent(c *gin.Context) {
	if s.deps.Videos == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, ErrorResponse{Error: "video content is unavailable"})
		return
	}
	ctx := c.Request.Context()
	p, err := s.deps.Workspace.Project(ctx, c.Param("project_id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	path := shotPathParam(c)
	_, _, shot, ok := script.FindShot(p, path)
	if !ok {
		s.fail(c, fmt.Errorf("%w: %s", script.ErrNotFound, path))
		return
	}
	if !shot.HasVideo() {
		c.AbortWithStatusJSON(http.StatusNotFound, ErrorResponse{Error: "shot has no video"})
		return
	}
	body, contentType, err := s.deps.Videos.OpenVideo(ctx, shot.Video.URI)
	if err != nil {
		s.fail(c, services.Wrap(services.ErrExternalTool, "video", "content", "", err))
		return
	}
	defer body.Close()
	c.DataFromReader(http.StatusOK, -1, contentType, body, nil)
}

func shotPathParam(c *gin.Context) script.ShotPath {
	return script.ShotPath{SceneID: c.Param("scene_id"), BeatID: c.Param("beat_id"), ShotID: c.Param("shot_id")}
}
