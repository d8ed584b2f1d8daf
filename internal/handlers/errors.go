package handlers

import (
	"net/http"

	"chessmistry-api/internal/apperrors"

	"github.com/gin-gonic/gin"
)

// statusFor maps an application error kind to its HTTP status
func statusFor(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindValidation:
		return http.StatusBadRequest
	case apperrors.KindInvalidCredentials, apperrors.KindInvalidSession:
		return http.StatusUnauthorized
	case apperrors.KindUserNotFound:
		return http.StatusNotFound
	case apperrors.KindDuplicateUsername:
		return http.StatusConflict
	case apperrors.KindStorage:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error envelope. Server-side failures keep their
// cause on the gin context for the access log and show a generic message.
func respondError(c *gin.Context, err error) {
	status := statusFor(apperrors.KindOf(err))
	message := apperrors.Message(err)

	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		if status == http.StatusInternalServerError {
			message = "internal server error"
		}
	}

	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": message})
}
