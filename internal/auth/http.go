package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

var (
	// ErrBadTokenFormat is returned when the Authorization header is not in the correct Bearer format.
	ErrBadTokenFormat = errors.New("bad token format")
)

// Middleware resolves the session token of the request and packs the session into context.
//
// Requests without a token, or with a token of an expired session, pass through
// without a session. It responds 400 for a malformed Authorization header and 500
// when the storage fails.
func Middleware(storage Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := ExtractToken(c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if token == "" {
			c.Next()
			return
		}

		info, err := storage.Get(c.Request.Context(), token)
		if errors.Is(err, ErrNotFound) {
			c.Next()
			return
		}
		if err != nil {
			slog.ErrorContext(c.Request.Context(), "failed to get session", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to get session"})
			return
		}

		c.Request = c.Request.WithContext(WithUser(c.Request.Context(), token, info))
		c.Next()
	}
}

// ExtractToken returns the session token from the session cookie or the
// Authorization header. The cookie wins when both are present.
//
// It returns an empty token if none is present.
func ExtractToken(r *http.Request) (string, error) {
	if cookie, err := r.Cookie(CookieAuthToken); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	authHeaderContent := r.Header.Get("Authorization")
	if authHeaderContent == "" {
		return "", nil
	}

	token, ok := strings.CutPrefix(authHeaderContent, "Bearer ")
	if !ok || token == "" {
		return "", ErrBadTokenFormat
	}

	return token, nil
}
