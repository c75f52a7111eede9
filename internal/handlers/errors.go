package handlers

import (
	"errors"
	"net/http"

	"github.com/modaliv/modaliv-backend/internal/queryfilter"
	"github.com/modaliv/modaliv-backend/internal/services"
	"github.com/modaliv/modaliv-backend/internal/services/auth"
	"github.com/modaliv/modaliv-backend/internal/services/notification"

	"github.com/gin-gonic/gin"
)

// statusFor maps domain sentinel errors to HTTP status codes. Anything
// unmapped is a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidArgument),
		errors.Is(err, auth.ErrTokenMalformed),
		errors.Is(err, queryfilter.ErrBadFilter):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidAccessToken),
		errors.Is(err, auth.ErrTokenNotFound),
		errors.Is(err, auth.ErrTokenExpired),
		errors.Is(err, auth.ErrTokenRevoked):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrUserDisabled):
		return http.StatusForbidden
	case errors.Is(err, auth.ErrUserNotFound),
		errors.Is(err, services.ErrProductNotFound),
		errors.Is(err, notification.ErrTemplateNotFound):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrUserExists),
		errors.Is(err, auth.ErrSessionLimitExceeded),
		errors.Is(err, services.ErrProductExists),
		errors.Is(err, notification.ErrTemplateInactive):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the standard error envelope for a domain error.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
