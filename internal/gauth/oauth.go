// Package gauth runs the Google OAuth login of the Classroom adapter.
package gauth

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/learning-tokens/lms-connector/internal/config"
)

// Scopes are the Google Classroom scopes requested at login.
var Scopes = []string{
	"https://www.googleapis.com/auth/classroom.courses",
	"https://www.googleapis.com/auth/classroom.coursework.me",
	"https://www.googleapis.com/auth/classroom.coursework.students",
	"https://www.googleapis.com/auth/classroom.rosters",
	"https://www.googleapis.com/auth/classroom.profile.emails",
	"https://www.googleapis.com/auth/classroom.student-submissions.me.readonly",
	"https://www.googleapis.com/auth/classroom.student-submissions.students.readonly",
}

// BuildOAuthConfig builds an oauth2.Config from a GAuthConfig.
func BuildOAuthConfig(gauthConfig config.GAuthConfig, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     gauthConfig.ClientID,
		ClientSecret: gauthConfig.ClientSecret,
		RedirectURL:  redirectURL,
		Scopes:       Scopes,
		Endpoint:     google.Endpoint,
	}
}

// LoginState is the data kept with a state token between the
// authorization request and the callback.
type LoginState struct {
	Machine   string    `json:"machine"`
	CreatedAt time.Time `json:"created_at"`
}

// Flow is the authorization code flow of one OAuth client.
type Flow struct {
	oauthConfig *oauth2.Config
	states      StateStorage
}

func NewFlow(oauthConfig *oauth2.Config, states StateStorage) *Flow {
	return &Flow{oauthConfig: oauthConfig, states: states}
}

// AuthURL creates a state token for machine and returns the Google consent URL.
//
// Offline access is requested with a forced consent prompt so that Google
// issues a refresh token on every login.
func (f *Flow) AuthURL(ctx context.Context, machine string) (string, error) {
	data, err := json.Marshal(LoginState{Machine: machine, CreatedAt: time.Now()})
	if err != nil {
		return "", fmt.Errorf("marshal login state: %w", err)
	}

	state, err := f.states.New(ctx, data)
	if err != nil {
		return "", fmt.Errorf("create state: %w", err)
	}

	return f.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce), nil
}

// Exchange consumes the state token and exchanges the authorization code for a token pair.
//
// It returns ErrBadState when the state is unknown, expired or already used.
func (f *Flow) Exchange(ctx context.Context, state, code string) (*oauth2.Token, LoginState, error) {
	data, err := f.states.Use(ctx, state)
	if err != nil {
		return nil, LoginState{}, err
	}

	var loginState LoginState
	if err := json.Unmarshal(data, &loginState); err != nil {
		return nil, LoginState{}, ErrBadState
	}

	token, err := f.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, LoginState{}, fmt.Errorf("exchange code: %w", err)
	}

	return token, loginState, nil
}

// TokenSource returns a token source that refreshes token when it expires.
//
// onRefresh receives every token whose access token differs from the
// previous one, so the caller can persist it.
func (f *Flow) TokenSource(ctx context.Context, token *oauth2.Token, onRefresh func(*oauth2.Token)) oauth2.TokenSource {
	return &notifyingTokenSource{
		base:      f.oauthConfig.TokenSource(ctx, token),
		last:      token.AccessToken,
		onRefresh: onRefresh,
	}
}

type notifyingTokenSource struct {
	base      oauth2.TokenSource
	onRefresh func(*oauth2.Token)

	mu   sync.Mutex
	last string
}

func (s *notifyingTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if token.AccessToken != s.last {
		s.last = token.AccessToken
		if s.onRefresh != nil {
			s.onRefresh(token)
		}
	}

	return token, nil
}
