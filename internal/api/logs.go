package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"storyreel/internal/logging"
)

// A nil CheckOrigin refuses cross-origin browser handshakes.
var upgrader = websocket.Upgrader{}

func (s *Server) projectLogs(c *gin.Context) {
	since, _ := strconv.ParseInt(c.Query("since"), 10, 64)
	entries, err := s.deps.Workspace.Logs(c.Request.Context(), c.Param("project_id"), since)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, NewActivityResponse(entries, since))
}

// projectLogStream pushes activity log pages over a websocket until the
// client disconnects. Each message is an ActivityResponse.
func (s *Server) projectLogStream(c *gin.Context) {
	projectID := c.Param("project_id")
	since, _ := strconv.ParseInt(c.Query("since"), 10, 64)
	if _, err := s.deps.Workspace.Project(c.Request.Context(), projectID); err != nil {
		s.fail(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", logging.String(logging.FieldProjectID, projectID), logging.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	// The read side only exists to notice the client going away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.deps.StreamInterval)
	defer ticker.Stop()
	for {
		entries, err := s.deps.Workspace.Logs(ctx, projectID, since)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				_ = conn.WriteJSON(ErrorResponse{Error: err.Error()})
			}
			return
		}
		if len(entries) > 0 {
			page := NewActivityResponse(entries, since)
			if err := conn.WriteJSON(page); err != nil {
				return
			}
			since = page.Next
		}
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) daemonLogs(c *gin.Context) {
	hub := s.deps.Hub
	if hub == nil {
		c.JSON(http.StatusOK, LogStreamResponse{Events: []logging.LogEvent{}})
		return
	}
	since, _ := strconv.ParseUint(c.Query("since"), 10, 64)
	limit, _ := strconv.Atoi(c.Query("limit"))
	if limit <= 0 {
		limit = defaultLogLimit
	}
	follow, _ := strconv.ParseBool(c.Query("follow"))
	tail, _ := strconv.ParseBool(c.Query("tail"))
	component := strings.TrimSpace(c.Query("component"))
	projectID := strings.TrimSpace(c.Query("project"))

	var (
		events []logging.LogEvent
		next   uint64
	)
	if tail && since == 0 && !follow {
		events, next = hub.Tail(limit)
	} else {
		var err error
		events, next, err = hub.Fetch(c.Request.Context(), since, limit, follow)
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			s.fail(c, err)
			return
		}
	}

	filtered := make([]logging.LogEvent, 0, len(events))
	for _, evt := range events {
		if component != "" && !strings.EqualFold(component, evt.Component) {
			continue
		}
		if projectID != "" && evt.ProjectID != projectID {
			continue
		}
		filtered = append(filtered, evt)
	}
	c.JSON(http.StatusOK, LogStreamResponse{Events: filtered, Next: next})
}

func (s *Server) status(c *gin.Context) {
	if s.deps.Status == nil {
		c.JSON(http.StatusOK, DaemonStatus{Running: true})
		return
	}
	c.JSON(http.StatusOK, s.deps.Status(c.Request.Context()))
}
