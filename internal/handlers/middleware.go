package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"flooring_crm/internal/apperrors"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

const (
	operatorTokenHeader = "X-Operator-Token"
	operatorNameHeader  = "X-Operator-Name"
	operatorKey         = "operator"
)

// OperatorAuth guards taxonomy edits and repairs. The token is compared
// against a bcrypt hash; with no hash configured every request is refused.
func OperatorAuth(tokenHash string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(operatorTokenHeader)
		if tokenHash == "" || token == "" ||
			bcrypt.CompareHashAndPassword([]byte(tokenHash), []byte(token)) != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Operator token required", "code": apperrors.CodeUnauthorized})
			return
		}

		name := strings.TrimSpace(c.GetHeader(operatorNameHeader))
		if name == "" {
			name = "operator"
		}
		c.Set(operatorKey, name)
		c.Next()
	}
}

func operatorName(c *gin.Context) string {
	return c.GetString(operatorKey)
}

// RequestLogger logs one line per request.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
