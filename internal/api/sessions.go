package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storyreel/internal/session"
	"storyreel/internal/store"
)

func (s *Server) signIn(c *gin.Context) {
	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid sign-in payload")
		return
	}
	sess, err := s.deps.Sessions.SignIn(req.Email, req.Name)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

func (s *Server) signOut(c *gin.Context) {
	s.deps.Sessions.SignOut(sessionToken(c))
	c.Status(http.StatusNoContent)
}

func (s *Server) currentView(c *gin.Context) {
	sess, err := s.deps.Sessions.Get(sessionToken(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.View)
}

func (s *Server) selectView(c *gin.Context) {
	var req SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid view payload")
		return
	}
	screen, err := session.ParseScreen(req.Screen)
	if err != nil {
		s.fail(c, err)
		return
	}
	view, err := s.deps.Sessions.Select(sessionToken(c), screen)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) openProject(c *gin.Context) {
	var req OpenRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.ProjectID) == "" {
		badRequest(c, "project_id is required")
		return
	}
	token := sessionToken(c)
	if _, err := s.deps.Sessions.Get(token); err != nil {
		s.fail(c, err)
		return
	}
	if _, err := s.deps.Workspace.Project(c.Request.Context(), req.ProjectID); err != nil {
		s.fail(c, err)
		return
	}
	view, err := s.deps.Sessions.OpenProject(token, req.ProjectID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) dashboard(c *gin.Context) {
	projects, err := s.deps.Sessions.Dashboard(c.Request.Context(), sessionToken(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	if projects == nil {
		projects = []store.ProjectSummary{}
	}
	c.JSON(http.StatusOK, ProjectListResponse{Projects: projects})
}
