package classroomservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"

	"github.com/learning-tokens/lms-connector/httpapi"
	"github.com/learning-tokens/lms-connector/internal/auth"
	"github.com/learning-tokens/lms-connector/internal/classroom"
	"github.com/learning-tokens/lms-connector/internal/events"
	"github.com/learning-tokens/lms-connector/internal/gauth"
	"github.com/learning-tokens/lms-connector/internal/httputils"
	"github.com/learning-tokens/lms-connector/internal/lmserr"
	"github.com/learning-tokens/lms-connector/internal/metrics"
)

const contextKeyClient = "classroom:client"

// AuthURL returns the Google consent URL of a new login.
func (s *ClassroomService) AuthURL(c *gin.Context) {
	authURL, err := s.flow.AuthURL(c.Request.Context(), httputils.GetMachineName(c.Request.Context()))
	if err != nil {
		httpapi.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"authUrl": authURL,
		"message": "Visit the authUrl to complete authentication",
	})
}

// Callback exchanges the authorization code and starts a session.
func (s *ClassroomService) Callback(c *gin.Context) {
	ctx := c.Request.Context()

	if errMsg := c.Query("error"); errMsg != "" {
		httpapi.AbortWithError(c, lmserr.NewValidationError("error", "Authentication failed: "+errMsg))
		return
	}

	code, state := c.Query("code"), c.Query("state")
	if code == "" {
		httpapi.AbortWithError(c, lmserr.NewValidationError("code", ""))
		return
	}
	if state == "" {
		httpapi.AbortWithError(c, lmserr.NewValidationError("state", ""))
		return
	}

	token, _, err := s.flow.Exchange(ctx, state, code)
	if errors.Is(err, gauth.ErrBadState) {
		httpapi.AbortWithError(c, lmserr.NewValidationError("state", "Invalid or expired state. Please restart the login."))
		return
	}
	if err != nil {
		httpapi.AbortWithError(c, &lmserr.UpstreamError{
			Service:  "classroom",
			Function: "oauth2.exchange",
			Err:      err,
		})
		return
	}

	machine := httputils.GetMachineName(ctx)

	info := auth.TokenInfo{
		UserEmail:  s.userEmail(ctx, token),
		Machine:    machine,
		OAuthToken: token,
	}

	session, err := s.storage.Create(ctx, info)
	if err != nil {
		httpapi.AbortWithError(c, fmt.Errorf("create session: %w", err))
		return
	}

	metrics.RecordClassroomLogin()
	distinctID := info.UserEmail
	if distinctID == "" {
		distinctID = machine
	}
	s.events.TriggerEvent(ctx, events.Event{
		Type:       events.EventTypeClassroomLogin,
		DistinctID: distinctID,
		Payload:    map[string]any{"machine": machine},
	})

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		/* name */ auth.CookieAuthToken,
		/* value */ session,
		/* maxAge */ auth.DefaultTokenExpire,
		/* path */ "/",
		/* domain */ "",
		/* secure */ true,
		/* httpOnly */ true,
	)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Authentication successful! You can now use the APIs.",
		"session": session,
	})
}

// userEmail looks up the email of the signed-in account. It returns an empty
// string when the profile cannot be read.
func (s *ClassroomService) userEmail(ctx context.Context, token *oauth2.Token) string {
	client, err := s.clients(ctx, oauth2.StaticTokenSource(token))
	if err != nil {
		slog.WarnContext(ctx, "could not create classroom client", "error", err)
		return ""
	}

	profile, err := client.Profile(ctx)
	if err != nil {
		slog.WarnContext(ctx, "could not get classroom profile", "error", err)
		return ""
	}

	return profile.EmailAddress
}

// Status reports whether the request carries a session.
func (s *ClassroomService) Status(c *gin.Context) {
	info, ok := auth.GetUser(c.Request.Context())
	authenticated := ok && info.OAuthToken != nil

	message := "Authentication required"
	if authenticated {
		message = "Ready to use APIs"
	}

	c.JSON(http.StatusOK, gin.H{
		"authenticated":      authenticated,
		"hasClassroomAccess": authenticated,
		"message":            message,
	})
}

// Logout deletes the session and clears the session cookie.
func (s *ClassroomService) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)

	token, ok := auth.GetToken(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "You should be logged in to logout.",
		})
		return
	}

	if err := s.storage.Delete(c.Request.Context(), token); err != nil && !errors.Is(err, auth.ErrNotFound) {
		httpapi.AbortWithError(c, fmt.Errorf("delete session: %w", err))
		return
	}

	c.SetCookie(
		/* name */ auth.CookieAuthToken,
		/* value */ "",
		/* maxAge */ -1,
		/* path */ "/",
		/* domain */ "",
		/* secure */ true,
		/* httpOnly */ true,
	)

	c.Status(http.StatusResetContent)
}

// RequireSession aborts with 401 unless the request carries a session, and
// builds the Classroom client of that session.
//
// Tokens refreshed by the client are written back to the session.
func (s *ClassroomService) RequireSession(c *gin.Context) {
	ctx := c.Request.Context()

	token, hasToken := auth.GetToken(ctx)
	info, hasUser := auth.GetUser(ctx)
	if !hasToken || !hasUser || info.OAuthToken == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":   "Not authenticated",
			"message": "Please visit /api/classroom/auth to get authentication URL",
		})
		return
	}

	tokenSource := s.flow.TokenSource(ctx, info.OAuthToken, func(refreshed *oauth2.Token) {
		updated := info
		updated.OAuthToken = refreshed

		if err := s.storage.Update(context.WithoutCancel(ctx), token, updated); err != nil {
			slog.WarnContext(ctx, "could not save refreshed token", "error", err)
		}
	})

	client, err := s.clients(ctx, tokenSource)
	if err != nil {
		httpapi.AbortWithError(c, err)
		return
	}

	c.Set(contextKeyClient, client)
	c.Next()
}

func clientOf(c *gin.Context) classroom.Client {
	return c.MustGet(contextKeyClient).(classroom.Client)
}
