package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storyreel/internal/logging"
	"storyreel/internal/script"
	"storyreel/internal/services"
	"storyreel/internal/session"
	"storyreel/internal/store"
	"storyreel/internal/workspace"
)

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, workspace.ErrImageRequired):
		return http.StatusUnprocessableEntity
	case errors.Is(err, workspace.ErrBusy), errors.Is(err, store.ErrJobActive):
		return http.StatusConflict
	case errors.Is(err, store.ErrProjectNotFound), errors.Is(err, script.ErrNotFound), errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrUnknownSession):
		return http.StatusUnauthorized
	case errors.Is(err, session.ErrEmailRequired), errors.Is(err, session.ErrUnknownScreen), errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrExternalTool), errors.Is(err, services.ErrTransient):
		return http.StatusBadGateway
	case errors.Is(err, services.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("api request failed",
			logging.String("path", c.FullPath()),
			logging.Int("status", status),
			logging.Error(err),
		)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: err.Error()})
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: message})
}
