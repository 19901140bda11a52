package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/learning-tokens/lms-connector/internal/lmserr"
)

// StatusOf returns the HTTP status an error is reported with.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, lmserr.ErrAuthRequired):
		return http.StatusUnauthorized
	case lmserr.IsValidation(err):
		return http.StatusBadRequest
	case lmserr.IsNotFound(err):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// AbortWithError aborts the request with the status of err and the body {"error": message}.
//
// Errors outside the lmserr taxonomy are reported as "Internal server error"
// and logged; upstream errors carry the upstream message.
func AbortWithError(c *gin.Context, err error) {
	status := StatusOf(err)
	message := err.Error()

	if status == http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)

		if !lmserr.IsUpstream(err) {
			message = "Internal server error"
		}
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// PositiveIntParam parses the path parameter name as a positive integer.
func PositiveIntParam(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, lmserr.NewValidationError(name, name+" must be a positive integer")
	}

	return id, nil
}
