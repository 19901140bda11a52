package moodle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learning-tokens/lms-connector/internal/config"
	"github.com/learning-tokens/lms-connector/internal/lmserr"
	"github.com/learning-tokens/lms-connector/internal/testhelper"
)

func TestClient_Call(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes response and sends form", func(t *testing.T) {
		fake := testhelper.NewFakeMoodle(t)
		fake.Handle("core_webservice_get_site_info", func(params url.Values) (any, error) {
			return map[string]any{"sitename": "Demo", "release": "4.3", "userid": 2}, nil
		})

		client := NewClient(fake.Config())
		info, err := client.SiteInfo(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Demo", info.SiteName)
		assert.Equal(t, "4.3", info.Release)
		assert.Equal(t, ID(2), info.UserID)
		assert.Len(t, fake.Calls("core_webservice_get_site_info"), 1)
	})

	t.Run("exception envelope with status 200", func(t *testing.T) {
		fake := testhelper.NewFakeMoodle(t)
		fake.Handle("core_course_get_courses", func(params url.Values) (any, error) {
			return nil, errors.New("Access control exception")
		})

		client := NewClient(fake.Config())
		_, err := client.Courses(ctx)
		require.Error(t, err)

		var upstreamErr *lmserr.UpstreamError
		require.ErrorAs(t, err, &upstreamErr)
		assert.Equal(t, "moodle", upstreamErr.Service)
		assert.Equal(t, "core_course_get_courses", upstreamErr.Function)
		assert.Equal(t, http.StatusOK, upstreamErr.StatusCode)
		assert.Contains(t, upstreamErr.Message, "Access control exception")
	})

	t.Run("wrong token", func(t *testing.T) {
		fake := testhelper.NewFakeMoodle(t)
		cfg := fake.Config()
		cfg.Token = "wrong"

		err := NewClient(cfg).Call(ctx, "core_webservice_get_site_info", nil, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Invalid token")
	})

	t.Run("non-2xx status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		t.Cleanup(srv.Close)

		err := NewClient(config.MoodleConfig{URL: srv.URL, Token: "x"}).Call(ctx, "core_webservice_get_site_info", nil, nil)

		var upstreamErr *lmserr.UpstreamError
		require.ErrorAs(t, err, &upstreamErr)
		assert.Equal(t, http.StatusBadGateway, upstreamErr.StatusCode)
		assert.Equal(t, "HTTP 502: Bad Gateway", upstreamErr.Message)
	})

	t.Run("undecodable body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>maintenance</html>"))
		}))
		t.Cleanup(srv.Close)

		var out SiteInfo
		err := NewClient(config.MoodleConfig{URL: srv.URL, Token: "x"}).Call(ctx, "core_webservice_get_site_info", nil, &out)
		assert.True(t, lmserr.IsUpstream(err))
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()

		err := NewClient(config.MoodleConfig{URL: srv.URL, Token: "x"}).Call(ctx, "core_webservice_get_site_info", nil, nil)
		var upstreamErr *lmserr.UpstreamError
		require.ErrorAs(t, err, &upstreamErr)
		assert.Equal(t, 0, upstreamErr.StatusCode)
		assert.NotNil(t, upstreamErr.Err)
	})

	t.Run("trailing slash in base url", func(t *testing.T) {
		fake := testhelper.NewFakeMoodle(t)
		fake.Handle("core_webservice_get_site_info", func(params url.Values) (any, error) {
			return map[string]any{}, nil
		})
		cfg := fake.Config()
		cfg.URL += "/"

		require.NoError(t, NewClient(cfg).Call(ctx, "core_webservice_get_site_info", nil, nil))
	})
}

func TestClient_Functions(t *testing.T) {
	ctx := context.Background()
	fake := testhelper.NewFakeMoodle(t)
	client := NewClient(fake.Config())

	fake.Handle("core_course_get_courses", func(params url.Values) (any, error) {
		return []map[string]any{{"id": params.Get("options[ids][0]"), "fullname": "Databases"}}, nil
	})
	fake.Handle("mod_quiz_get_quizzes_by_courses", func(params url.Values) (any, error) {
		return map[string]any{"quizzes": []map[string]any{
			{"id": 7, "course": 3, "name": "Quiz 1", "grade": "10.00000", "timelimit": 600},
			{"id": 8, "course": 4, "name": "Quiz 2", "grade": nil},
		}}, nil
	})
	fake.Handle("mod_quiz_get_user_attempts", func(params url.Values) (any, error) {
		return map[string]any{"attempts": []map[string]any{
			{"id": 1, "attempt": 1, "sumgrades": "7.50000", "state": "finished"},
			{"id": 2, "attempt": 2, "sumgrades": nil, "state": "inprogress"},
		}}, nil
	})
	fake.Handle("core_user_get_users_by_field", func(params url.Values) (any, error) {
		if params.Get("values[0]") == "99" {
			return []any{}, nil
		}
		return []map[string]any{{"id": 5, "username": "student5", "email": "s5@example.com"}}, nil
	})

	t.Run("courses by id", func(t *testing.T) {
		courses, err := client.Courses(ctx, 3)
		require.NoError(t, err)
		require.Len(t, courses, 1)
		assert.Equal(t, ID(3), courses[0].ID)
	})

	t.Run("quizzes with loose grades", func(t *testing.T) {
		quizzes, err := client.QuizzesByCourses(ctx, 3, 4)
		require.NoError(t, err)
		require.Len(t, quizzes, 2)
		assert.Equal(t, 10.0, quizzes[0].Grade.Value(100))
		assert.Nil(t, quizzes[1].Grade)
		assert.Equal(t, 100.0, quizzes[1].Grade.Value(100))

		calls := fake.Calls("mod_quiz_get_quizzes_by_courses")
		require.NotEmpty(t, calls)
		last := calls[len(calls)-1]
		assert.Equal(t, "3", last.Get("courseids[0]"))
		assert.Equal(t, "4", last.Get("courseids[1]"))
	})

	t.Run("user attempts", func(t *testing.T) {
		attempts, err := client.UserAttempts(ctx, 7, 5)
		require.NoError(t, err)
		require.Len(t, attempts, 2)
		assert.Equal(t, 7.5, attempts[0].SumGrades.Value(0))
		assert.Nil(t, attempts[1].SumGrades)

		calls := fake.Calls("mod_quiz_get_user_attempts")
		assert.Equal(t, "5", calls[len(calls)-1].Get("userid"))
	})

	t.Run("token user attempts omit userid", func(t *testing.T) {
		_, err := client.UserAttempts(ctx, 7, 0)
		require.NoError(t, err)

		calls := fake.Calls("mod_quiz_get_user_attempts")
		assert.False(t, calls[len(calls)-1].Has("userid"))
	})

	t.Run("user by id", func(t *testing.T) {
		user, ok, err := client.UserByID(ctx, 5)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "student5", user.Username)

		_, ok, err = client.UserByID(ctx, 99)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestLooseTypes(t *testing.T) {
	var v struct {
		A Float  `json:"a"`
		B *Float `json:"b"`
		C ID     `json:"c"`
		D Text   `json:"d"`
		E Text   `json:"e"`
		F Float  `json:"f"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"a":"4.5","b":null,"c":"12","d":3,"e":"text","f":"n/a"}`), &v))
	assert.Equal(t, Float(4.5), v.A)
	assert.Nil(t, v.B)
	assert.Equal(t, ID(12), v.C)
	assert.Equal(t, Text("3"), v.D)
	assert.Equal(t, Text("text"), v.E)
	assert.Equal(t, Float(0), v.F)

	var bad struct {
		C ID `json:"c"`
	}
	assert.Error(t, json.Unmarshal([]byte(`{"c":"abc"}`), &bad))
}

func TestClient_CallIsLoggedAtInfo(t *testing.T) {
	var buf bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))
	t.Cleanup(func() { slog.SetDefault(previous) })

	fake := testhelper.NewFakeMoodle(t)
	fake.Handle("mod_quiz_get_user_attempts", func(params url.Values) (any, error) {
		return map[string]any{"attempts": []any{}}, nil
	})

	_, err := NewClient(fake.Config()).UserAttempts(context.Background(), 100, 10)
	require.NoError(t, err)

	var record map[string]any
	require.NoError(t, json.Unmarshal(bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))[0], &record))
	assert.Equal(t, "INFO", record["level"])
	assert.Equal(t, "calling moodle", record["msg"])
	assert.Equal(t, "mod_quiz_get_user_attempts", record["function"])
	assert.Contains(t, record["params"], "quizid=100")
	assert.NotContains(t, buf.String(), testhelper.FakeMoodleToken)
}
