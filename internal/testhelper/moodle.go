package testhelper

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/learning-tokens/lms-connector/internal/config"
)

// FakeMoodleToken is the web service token accepted by FakeMoodle.
const FakeMoodleToken = "fake-moodle-token"

// MoodleFunc handles one web service function of FakeMoodle.
//
// A returned error is reported as a Moodle exception envelope with status 200.
type MoodleFunc func(params url.Values) (any, error)

// FakeMoodle is an in-process Moodle web service endpoint.
type FakeMoodle struct {
	Server *httptest.Server

	mu       sync.Mutex
	handlers map[string]MoodleFunc
	calls    map[string][]url.Values
}

// NewFakeMoodle starts a FakeMoodle that is closed when the test ends.
func NewFakeMoodle(t *testing.T) *FakeMoodle {
	t.Helper()

	f := &FakeMoodle{
		handlers: make(map[string]MoodleFunc),
		calls:    make(map[string][]url.Values),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /webservice/rest/server.php", f.serve)
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)

	return f
}

// Handle registers the handler of a web service function.
func (f *FakeMoodle) Handle(function string, fn MoodleFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.handlers[function] = fn
}

// Config returns the adapter configuration that points at the fake.
func (f *FakeMoodle) Config() config.MoodleConfig {
	return config.MoodleConfig{
		URL:         f.Server.URL,
		Token:       FakeMoodleToken,
		Concurrency: 4,
	}
}

// Calls returns the parameters of every call to function, without the
// wstoken, wsfunction and moodlewsrestformat fields.
func (f *FakeMoodle) Calls(function string) []url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]url.Values(nil), f.calls[function]...)
}

func (f *FakeMoodle) serve(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeMoodleException(w, "invalidparameter", err.Error())
		return
	}

	if r.PostForm.Get("wstoken") != FakeMoodleToken {
		writeMoodleException(w, "invalidtoken", "Invalid token - token not found")
		return
	}
	if r.PostForm.Get("moodlewsrestformat") != "json" {
		writeMoodleException(w, "invalidparameter", "moodlewsrestformat must be json")
		return
	}

	function := r.PostForm.Get("wsfunction")
	params := url.Values{}
	for key, values := range r.PostForm {
		switch key {
		case "wstoken", "wsfunction", "moodlewsrestformat":
			continue
		}
		params[key] = values
	}

	f.mu.Lock()
	handler, ok := f.handlers[function]
	f.calls[function] = append(f.calls[function], params)
	f.mu.Unlock()

	if !ok {
		writeMoodleException(w, "invalidrecord", "Can't find data record in database table external_functions.")
		return
	}

	resp, err := handler(params)
	if err != nil {
		writeMoodleException(w, "moodleerror", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func writeMoodleException(w http.ResponseWriter, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"exception": "moodle_exception",
		"errorcode": code,
		"message":   message,
	})
}
