package gauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/learning-tokens/lms-connector/internal/config"
	"github.com/learning-tokens/lms-connector/internal/testhelper"
)

// memoryStateStorage is a StateStorage kept in memory.
type memoryStateStorage struct {
	mu     sync.Mutex
	next   int
	states map[string][]byte
}

func newMemoryStateStorage() *memoryStateStorage {
	return &memoryStateStorage{states: make(map[string][]byte)}
}

func (m *memoryStateStorage) New(ctx context.Context, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.next++
	token := "state-" + strconv.Itoa(m.next)
	m.states[token] = data
	return token, nil
}

func (m *memoryStateStorage) Use(ctx context.Context, token string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.states[token]
	if !ok {
		return nil, ErrBadState
	}
	delete(m.states, token)
	return data, nil
}

// newTokenServer fakes the Google token endpoint. Every request gets a
// new access token named after the grant type.
func newTokenServer(t *testing.T) (*httptest.Server, *[]url.Values) {
	t.Helper()

	var (
		mu       sync.Mutex
		requests []url.Values
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())

		mu.Lock()
		requests = append(requests, r.PostForm)
		count := len(requests)
		mu.Unlock()

		testhelper.WriteJSON(w, http.StatusOK, map[string]any{
			"access_token":  r.PostForm.Get("grant_type") + "-" + strconv.Itoa(count),
			"refresh_token": "refresh",
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	}))
	t.Cleanup(srv.Close)

	return srv, &requests
}

func newTestFlow(t *testing.T) (*Flow, *[]url.Values) {
	srv, requests := newTokenServer(t)

	oauthConfig := BuildOAuthConfig(config.GAuthConfig{ClientID: "client", ClientSecret: "secret"}, "https://lms.test/api/classroom/callback")
	oauthConfig.Endpoint = oauth2.Endpoint{
		AuthURL:   "https://accounts.test/o/oauth2/auth",
		TokenURL:  srv.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}

	return NewFlow(oauthConfig, newMemoryStateStorage()), requests
}

func TestFlow_AuthURL(t *testing.T) {
	flow, _ := newTestFlow(t)

	authURL, err := flow.AuthURL(context.Background(), "curl/8.0")
	require.NoError(t, err)

	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	query := parsed.Query()

	assert.Equal(t, "client", query.Get("client_id"))
	assert.Equal(t, "https://lms.test/api/classroom/callback", query.Get("redirect_uri"))
	assert.Equal(t, "offline", query.Get("access_type"))
	assert.Equal(t, "consent", query.Get("prompt"))
	assert.Contains(t, query.Get("scope"), "https://www.googleapis.com/auth/classroom.courses")
	assert.Contains(t, query.Get("scope"), "https://www.googleapis.com/auth/classroom.rosters")
	assert.NotEmpty(t, query.Get("state"))
}

func TestFlow_Exchange(t *testing.T) {
	ctx := context.Background()

	t.Run("valid state", func(t *testing.T) {
		flow, requests := newTestFlow(t)

		authURL, err := flow.AuthURL(ctx, "curl/8.0")
		require.NoError(t, err)
		parsed, err := url.Parse(authURL)
		require.NoError(t, err)
		state := parsed.Query().Get("state")

		token, loginState, err := flow.Exchange(ctx, state, "the-code")
		require.NoError(t, err)
		assert.Equal(t, "authorization_code-1", token.AccessToken)
		assert.Equal(t, "refresh", token.RefreshToken)
		assert.Equal(t, "curl/8.0", loginState.Machine)

		require.Len(t, *requests, 1)
		assert.Equal(t, "the-code", (*requests)[0].Get("code"))

		_, _, err = flow.Exchange(ctx, state, "the-code")
		assert.ErrorIs(t, err, ErrBadState, "state is single-use")
	})

	t.Run("unknown state", func(t *testing.T) {
		flow, requests := newTestFlow(t)

		_, _, err := flow.Exchange(ctx, "forged", "the-code")
		assert.ErrorIs(t, err, ErrBadState)
		assert.Empty(t, *requests, "code must not be exchanged")
	})
}

func TestFlow_TokenSource(t *testing.T) {
	flow, _ := newTestFlow(t)

	t.Run("valid token is not refreshed", func(t *testing.T) {
		var refreshed []*oauth2.Token
		source := flow.TokenSource(context.Background(), &oauth2.Token{
			AccessToken:  "access",
			RefreshToken: "refresh",
			Expiry:       time.Now().Add(time.Hour),
		}, func(token *oauth2.Token) {
			refreshed = append(refreshed, token)
		})

		token, err := source.Token()
		require.NoError(t, err)
		assert.Equal(t, "access", token.AccessToken)
		assert.Empty(t, refreshed)
	})

	t.Run("expired token is refreshed and reported once", func(t *testing.T) {
		var refreshed []*oauth2.Token
		source := flow.TokenSource(context.Background(), &oauth2.Token{
			AccessToken:  "access",
			RefreshToken: "refresh",
			Expiry:       time.Now().Add(-time.Hour),
		}, func(token *oauth2.Token) {
			refreshed = append(refreshed, token)
		})

		token, err := source.Token()
		require.NoError(t, err)
		assert.Equal(t, "refresh_token-1", token.AccessToken)

		_, err = source.Token()
		require.NoError(t, err)

		require.Len(t, refreshed, 1)
		assert.Equal(t, "refresh_token-1", refreshed[0].AccessToken)
	})
}
