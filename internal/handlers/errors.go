package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/lazycord/pkg/apperrors"
)

// respondError переводит код доменной ошибки в HTTP статус
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch apperrors.CodeOf(err) {
	case apperrors.CodeNotFound:
		status = http.StatusNotFound
	case apperrors.CodeAlreadyExists, apperrors.CodeFailedPrecondition:
		status = http.StatusConflict
	case apperrors.CodePermissionDenied:
		status = http.StatusForbidden
	case apperrors.CodeUnauthenticated:
		status = http.StatusUnauthorized
	case apperrors.CodeInvalidArgument:
		status = http.StatusBadRequest
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
