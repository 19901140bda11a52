package classroom

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	classroom "google.golang.org/api/classroom/v1"
	"google.golang.org/api/option"

	"github.com/learning-tokens/lms-connector/internal/lmserr"
	"github.com/learning-tokens/lms-connector/internal/testhelper"
)

func newTestClient(t *testing.T, mux *http.ServeMux) *ServiceClient {
	t.Helper()

	return newTestClientWithToken(t, mux, "access")
}

func newTestClientWithToken(t *testing.T, mux *http.ServeMux, accessToken string) *ServiceClient {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access" {
			testhelper.WriteJSON(w, http.StatusUnauthorized, map[string]any{
				"error": map[string]any{"code": 401, "message": "Request had invalid authentication credentials."},
			})
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(context.Background(),
		oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}),
		option.WithEndpoint(srv.URL+"/"),
	)
	require.NoError(t, err)

	return client
}

func TestServiceClient_Courses(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/courses", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "100", r.URL.Query().Get("pageSize"))

		if r.URL.Query().Get("pageToken") == "" {
			testhelper.WriteJSON(w, http.StatusOK, map[string]any{
				"courses":       []map[string]any{{"id": "1", "name": "Databases"}},
				"nextPageToken": "p2",
			})
			return
		}

		testhelper.WriteJSON(w, http.StatusOK, map[string]any{
			"courses": []map[string]any{{"id": "2", "name": "Networks"}},
		})
	})

	courses, err := newTestClient(t, mux).Courses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Databases", "Networks"}, lo.Map(courses, func(course *classroom.Course, _ int) string {
		return course.Name
	}))
}

func TestServiceClient_EmptyLists(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/courses/{id}/students", func(w http.ResponseWriter, r *http.Request) {
		testhelper.WriteJSON(w, http.StatusOK, map[string]any{})
	})

	students, err := newTestClient(t, mux).Students(context.Background(), "1")
	require.NoError(t, err)
	assert.NotNil(t, students)
	assert.Empty(t, students)
}

func TestServiceClient_Errors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/courses/{id}", func(w http.ResponseWriter, r *http.Request) {
		testhelper.WriteJSON(w, http.StatusNotFound, map[string]any{
			"error": map[string]any{"code": 404, "message": "Requested entity was not found.", "status": "NOT_FOUND"},
		})
	})

	_, err := newTestClient(t, mux).Course(context.Background(), "404")

	var upstreamErr *lmserr.UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, "classroom", upstreamErr.Service)
	assert.Equal(t, "courses.get", upstreamErr.Function)
	assert.Equal(t, http.StatusNotFound, upstreamErr.StatusCode)
	assert.Equal(t, "Requested entity was not found.", upstreamErr.Message)
}

func TestServiceClient_GradeSubmission(t *testing.T) {
	ctx := context.Background()

	t.Run("assigned grade only", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("PATCH /v1/courses/{course}/courseWork/{work}/studentSubmissions/{id}", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "c1", r.PathValue("course"))
			assert.Equal(t, "w1", r.PathValue("work"))
			assert.Equal(t, "s1", r.PathValue("id"))
			assert.Equal(t, "assignedGrade", r.URL.Query().Get("updateMask"))

			var body map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, map[string]any{"assignedGrade": float64(0)}, body, "zero grade is sent")

			testhelper.WriteJSON(w, http.StatusOK, map[string]any{"id": "s1", "assignedGrade": 0})
		})

		submission, err := newTestClient(t, mux).GradeSubmission(ctx, "c1", "w1", "s1", Grade{AssignedGrade: lo.ToPtr(0.0)})
		require.NoError(t, err)
		assert.Equal(t, "s1", submission.Id)
	})

	t.Run("both grades", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("PATCH /v1/courses/{course}/courseWork/{work}/studentSubmissions/{id}", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "assignedGrade,draftGrade", r.URL.Query().Get("updateMask"))
			testhelper.WriteJSON(w, http.StatusOK, map[string]any{"id": "s1", "assignedGrade": 90, "draftGrade": 85})
		})

		submission, err := newTestClient(t, mux).GradeSubmission(ctx, "c1", "w1", "s1", Grade{
			AssignedGrade: lo.ToPtr(90.0),
			DraftGrade:    lo.ToPtr(85.0),
		})
		require.NoError(t, err)
		assert.Equal(t, 85.0, submission.DraftGrade)
	})

	t.Run("no grade", func(t *testing.T) {
		_, err := newTestClient(t, http.NewServeMux()).GradeSubmission(ctx, "c1", "w1", "s1", Grade{})
		assert.True(t, lmserr.IsValidation(err))
	})
}

func TestServiceClient_BadCredentials(t *testing.T) {
	_, err := newTestClientWithToken(t, http.NewServeMux(), "revoked").Profile(context.Background())
	require.Error(t, err)

	var upstreamErr *lmserr.UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, http.StatusUnauthorized, upstreamErr.StatusCode)
}

func TestGrade_Empty(t *testing.T) {
	assert.True(t, Grade{}.Empty())
	assert.False(t, Grade{DraftGrade: lo.ToPtr(1.0)}.Empty())
}
