package auth

import (
	"context"
	"errors"

	"golang.org/x/oauth2"
)

var ErrNotFound = errors.New("no such session")

// Storage is the storage for Classroom sessions.
type Storage interface {
	// Get the session for the given token and extend its expiration time.
	// It returns the session info if the token is valid,
	// otherwise it returns an error.
	//
	// Error is implementation-defined except for ErrNotFound.
	// ErrNotFound is returned when the token is not found.
	Get(ctx context.Context, token string) (TokenInfo, error)

	// Peek the session for the given token. It does not extend the expiration time.
	//
	// Error is implementation-defined except for ErrNotFound.
	Peek(ctx context.Context, token string) (TokenInfo, error)

	// Create a new session and return its token.
	Create(ctx context.Context, info TokenInfo) (string, error)

	// Update replaces the session info of an existing token, keeping its expiration time.
	//
	// ErrNotFound is returned when the token is not found.
	Update(ctx context.Context, token string, info TokenInfo) error

	// Delete the specified session.
	//
	// Error is implementation-defined except for ErrNotFound.
	// ErrNotFound is returned when the token is not found.
	Delete(ctx context.Context, token string) error
}

// TokenInfo is the information of a session.
type TokenInfo struct {
	UserEmail string `json:"user_email"` // the Classroom account of the session, may be empty
	Machine   string `json:"machine"`    // the User-Agent that created the session

	OAuthToken *oauth2.Token `json:"oauth_token"` // the Google token pair

	Meta map[string]string `json:"meta,omitempty"`
}

var (
	ErrValidationRequireMachine    = errors.New("machine is required")
	ErrValidationRequireOAuthToken = errors.New("oauth token is required")
)

func (t TokenInfo) Validate() error {
	if t.Machine == "" {
		return ErrValidationRequireMachine
	}

	if t.OAuthToken == nil || t.OAuthToken.AccessToken == "" {
		return ErrValidationRequireOAuthToken
	}

	return nil
}

// DefaultTokenExpire is the default expiration time of the session in seconds.
const DefaultTokenExpire = 8 * 60 * 60 // 8 hr

// CookieAuthToken is the cookie carrying the session token.
const CookieAuthToken = "Classroom-Session"
