package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskboard/pkg/auth"
	"taskboard/pkg/taskerr"
)

// writeError maps the core error taxonomy onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	var verr *taskerr.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": verr.Fields})
	case errors.Is(err, taskerr.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, taskerr.ErrAccessDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "you do not have permission to access this task"})
	case errors.Is(err, taskerr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, taskerr.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "the record was modified concurrently, reload and retry"})
	case errors.Is(err, auth.ErrUsernameTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, auth.ErrBadCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		zap.L().Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
