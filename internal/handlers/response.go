package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"flooring_crm/internal/apperrors"

	"github.com/gin-gonic/gin"
)

// respondError writes err as {"error", "code"}. Messages of server-side
// failures are not exposed.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	code := apperrors.CodeOf(err)
	status := apperrors.HTTPStatus(code)

	message := "Internal server error"
	var appErr *apperrors.Error
	if status < http.StatusInternalServerError && errors.As(err, &appErr) {
		message = appErr.Message
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
	}

	c.AbortWithStatusJSON(status, gin.H{"error": message, "code": code})
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": message, "code": apperrors.CodeInvalidInput})
}

func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		badRequest(c, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}
