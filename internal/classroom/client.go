// Package classroom is the gateway to the Google Classroom API on behalf of a signed-in user.
package classroom

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"
	classroom "google.golang.org/api/classroom/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/learning-tokens/lms-connector/internal/lmserr"
	"github.com/learning-tokens/lms-connector/internal/metrics"
)

const serviceName = "classroom"

// pageSize is the page size of list calls.
const pageSize = 100

// Client is what the Classroom routes can do for the signed-in user.
type Client interface {
	Profile(ctx context.Context) (*classroom.UserProfile, error)

	Courses(ctx context.Context) ([]*classroom.Course, error)
	Course(ctx context.Context, courseID string) (*classroom.Course, error)
	CreateCourse(ctx context.Context, course *classroom.Course) (*classroom.Course, error)

	Teachers(ctx context.Context, courseID string) ([]*classroom.Teacher, error)
	Students(ctx context.Context, courseID string) ([]*classroom.Student, error)

	CourseWork(ctx context.Context, courseID string) ([]*classroom.CourseWork, error)
	CreateCourseWork(ctx context.Context, courseID string, courseWork *classroom.CourseWork) (*classroom.CourseWork, error)

	Submissions(ctx context.Context, courseID, courseWorkID string) ([]*classroom.StudentSubmission, error)
	GradeSubmission(ctx context.Context, courseID, courseWorkID, submissionID string, grade Grade) (*classroom.StudentSubmission, error)
}

// Factory builds a Client that authenticates with tokenSource.
type Factory func(ctx context.Context, tokenSource oauth2.TokenSource) (Client, error)

// Grade is a grade update of a student submission. Nil fields are left unchanged.
type Grade struct {
	AssignedGrade *float64 `json:"assignedGrade"`
	DraftGrade    *float64 `json:"draftGrade"`
}

// Empty reports whether the update changes nothing.
func (g Grade) Empty() bool {
	return g.AssignedGrade == nil && g.DraftGrade == nil
}

// submission returns the patch body and its update mask.
func (g Grade) submission() (*classroom.StudentSubmission, string) {
	submission := &classroom.StudentSubmission{}

	var fields []string
	if g.AssignedGrade != nil {
		submission.AssignedGrade = *g.AssignedGrade
		submission.ForceSendFields = append(submission.ForceSendFields, "AssignedGrade")
		fields = append(fields, "assignedGrade")
	}
	if g.DraftGrade != nil {
		submission.DraftGrade = *g.DraftGrade
		submission.ForceSendFields = append(submission.ForceSendFields, "DraftGrade")
		fields = append(fields, "draftGrade")
	}

	return submission, strings.Join(fields, ",")
}

// ServiceClient is the Client backed by the generated Classroom service.
type ServiceClient struct {
	service *classroom.Service
}

// NewFactory returns a Factory passing opts to every service, such as
// option.WithEndpoint in tests.
func NewFactory(opts ...option.ClientOption) Factory {
	return func(ctx context.Context, tokenSource oauth2.TokenSource) (Client, error) {
		client, err := NewClient(ctx, tokenSource, opts...)
		if err != nil {
			return nil, err
		}

		return client, nil
	}
}

// NewClient creates a ServiceClient authenticated with tokenSource.
func NewClient(ctx context.Context, tokenSource oauth2.TokenSource, opts ...option.ClientOption) (*ServiceClient, error) {
	httpClient := &http.Client{
		Transport: otelhttp.NewTransport(&oauth2.Transport{
			Source: tokenSource,
			Base:   http.DefaultTransport,
		}),
	}

	service, err := classroom.NewService(ctx, append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create classroom service: %w", err)
	}

	return &ServiceClient{service: service}, nil
}

func (c *ServiceClient) Profile(ctx context.Context) (*classroom.UserProfile, error) {
	profile, err := c.service.UserProfiles.Get("me").Context(ctx).Do()
	return profile, record("userProfiles.get", err)
}

func (c *ServiceClient) Courses(ctx context.Context) ([]*classroom.Course, error) {
	courses := []*classroom.Course{}
	err := c.service.Courses.List().PageSize(pageSize).Pages(ctx, func(resp *classroom.ListCoursesResponse) error {
		courses = append(courses, resp.Courses...)
		return nil
	})

	return courses, record("courses.list", err)
}

func (c *ServiceClient) Course(ctx context.Context, courseID string) (*classroom.Course, error) {
	course, err := c.service.Courses.Get(courseID).Context(ctx).Do()
	return course, record("courses.get", err)
}

func (c *ServiceClient) CreateCourse(ctx context.Context, course *classroom.Course) (*classroom.Course, error) {
	created, err := c.service.Courses.Create(course).Context(ctx).Do()
	return created, record("courses.create", err)
}

func (c *ServiceClient) Teachers(ctx context.Context, courseID string) ([]*classroom.Teacher, error) {
	teachers := []*classroom.Teacher{}
	err := c.service.Courses.Teachers.List(courseID).PageSize(pageSize).Pages(ctx, func(resp *classroom.ListTeachersResponse) error {
		teachers = append(teachers, resp.Teachers...)
		return nil
	})

	return teachers, record("courses.teachers.list", err)
}

func (c *ServiceClient) Students(ctx context.Context, courseID string) ([]*classroom.Student, error) {
	students := []*classroom.Student{}
	err := c.service.Courses.Students.List(courseID).PageSize(pageSize).Pages(ctx, func(resp *classroom.ListStudentsResponse) error {
		students = append(students, resp.Students...)
		return nil
	})

	return students, record("courses.students.list", err)
}

func (c *ServiceClient) CourseWork(ctx context.Context, courseID string) ([]*classroom.CourseWork, error) {
	courseWork := []*classroom.CourseWork{}
	err := c.service.Courses.CourseWork.List(courseID).PageSize(pageSize).Pages(ctx, func(resp *classroom.ListCourseWorkResponse) error {
		courseWork = append(courseWork, resp.CourseWork...)
		return nil
	})

	return courseWork, record("courses.courseWork.list", err)
}

func (c *ServiceClient) CreateCourseWork(ctx context.Context, courseID string, courseWork *classroom.CourseWork) (*classroom.CourseWork, error) {
	created, err := c.service.Courses.CourseWork.Create(courseID, courseWork).Context(ctx).Do()
	return created, record("courses.courseWork.create", err)
}

func (c *ServiceClient) Submissions(ctx context.Context, courseID, courseWorkID string) ([]*classroom.StudentSubmission, error) {
	submissions := []*classroom.StudentSubmission{}
	err := c.service.Courses.CourseWork.StudentSubmissions.List(courseID, courseWorkID).PageSize(pageSize).
		Pages(ctx, func(resp *classroom.ListStudentSubmissionsResponse) error {
			submissions = append(submissions, resp.StudentSubmissions...)
			return nil
		})

	return submissions, record("courses.courseWork.studentSubmissions.list", err)
}

func (c *ServiceClient) GradeSubmission(ctx context.Context, courseID, courseWorkID, submissionID string, grade Grade) (*classroom.StudentSubmission, error) {
	if grade.Empty() {
		return nil, lmserr.NewValidationError("grade", "No grade data provided")
	}

	submission, updateMask := grade.submission()
	patched, err := c.service.Courses.CourseWork.StudentSubmissions.
		Patch(courseID, courseWorkID, submissionID, submission).
		UpdateMask(updateMask).
		Context(ctx).
		Do()

	return patched, record("courses.courseWork.studentSubmissions.patch", err)
}

// record counts the call and turns a failure into an UpstreamError.
func record(function string, err error) error {
	if err != nil {
		upstreamErr := &lmserr.UpstreamError{
			Service:  serviceName,
			Function: function,
			Err:      err,
		}

		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			upstreamErr.StatusCode = apiErr.Code
			upstreamErr.Message = apiErr.Message
		}

		slog.Error("classroom call failed", "function", function, "status", upstreamErr.StatusCode, "error", err)
		err = upstreamErr
	}

	metrics.RecordUpstreamRequest(serviceName, function, err)
	return err
}

var _ Client = (*ServiceClient)(nil)
