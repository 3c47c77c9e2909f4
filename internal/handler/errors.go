package handler

import (
	"errors"
	"net/http"

	"github.com/Baaaki/buy-sell-store/internal/middleware"
	"github.com/Baaaki/buy-sell-store/internal/service"
	"github.com/Baaaki/buy-sell-store/internal/validation"
	"github.com/Baaaki/buy-sell-store/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// respondError writes err as {"message": ...} with the status of its kind.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Log.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
	}
	c.JSON(status, gin.H{"message": err.Error()})
}

func statusFor(err error) int {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case service.IsNotFound(err):
		return http.StatusNotFound
	case service.IsConflict(err):
		return http.StatusConflict
	case errors.Is(err, service.ErrForbiddenRole),
		errors.Is(err, service.ErrInvalidRole),
		errors.Is(err, service.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, service.ErrUnauthenticated),
		errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func badRequest(c *gin.Context, msg string, err error) {
	logger.Log.Warn("Request parsing failed",
		zap.String("path", c.Request.URL.Path),
		zap.String("ip", c.ClientIP()),
		zap.Error(err),
	)
	c.JSON(http.StatusBadRequest, gin.H{"message": msg})
}

// principal returns the authenticated caller or writes 401.
func principal(c *gin.Context) (service.Principal, bool) {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication required"})
	}
	return p, ok
}

// pathID parses the :id route parameter or writes 400.
func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "id must be a valid UUID", err)
		return uuid.Nil, false
	}
	return id, true
}
