package testhelper

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/learning-tokens/lms-connector/internal/config"
)

// FakeCanvasToken is the API token accepted by FakeCanvas.
const FakeCanvasToken = "fake-canvas-token"

// FakeCanvas is an in-process Canvas REST API rooted at /api/v1.
type FakeCanvas struct {
	Server *httptest.Server

	mux *http.ServeMux
}

// NewFakeCanvas starts a FakeCanvas that is closed when the test ends.
func NewFakeCanvas(t *testing.T) *FakeCanvas {
	t.Helper()

	f := &FakeCanvas{mux: http.NewServeMux()}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+FakeCanvasToken {
			WriteJSON(w, http.StatusUnauthorized, map[string]any{
				"errors": []map[string]string{{"message": "Invalid access token."}},
			})
			return
		}

		f.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.Server.Close)

	return f
}

// Handle registers a handler for a method and path below /api/v1,
// such as "GET /courses/{id}/files".
func (f *FakeCanvas) Handle(method, path string, handler http.HandlerFunc) {
	f.mux.HandleFunc(method+" /api/v1"+path, handler)
}

// Config returns the adapter configuration that points at the fake.
func (f *FakeCanvas) Config() config.CanvasConfig {
	return config.CanvasConfig{
		APIBase:  f.Server.URL + "/api/v1",
		APIToken: FakeCanvasToken,
	}
}

// WriteJSON writes v as a JSON response.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
