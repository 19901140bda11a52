// Package moodleservice serves the Moodle adapter under /api/moodle.
package moodleservice

import (
	"github.com/gin-gonic/gin"

	"github.com/learning-tokens/lms-connector/httpapi"
	"github.com/learning-tokens/lms-connector/internal/events"
	"github.com/learning-tokens/lms-connector/internal/moodle"
	"github.com/learning-tokens/lms-connector/internal/performance"
	"github.com/learning-tokens/lms-connector/internal/review"
)

type MoodleService struct {
	client     *moodle.Client
	aggregator *performance.Aggregator
	builder    *review.Builder
	events     *events.EventService
}

// NewMoodleService creates a MoodleService that runs at most concurrency
// attempt lookups at a time per request.
func NewMoodleService(client *moodle.Client, concurrency int, eventService *events.EventService) *MoodleService {
	return &MoodleService{
		client:     client,
		aggregator: performance.NewAggregator(client, concurrency),
		builder:    review.NewBuilder(client),
		events:     eventService,
	}
}

func (s *MoodleService) Register(router gin.IRouter) {
	group := router.Group("/moodle")

	group.GET("/test", s.TestConnection)
	group.GET("/courses", s.ListCourses)
	group.GET("/courses/:courseId", s.CoursePerformance)
	group.GET("/quizzes/:quizId/questions", s.QuizQuestions)
	group.GET("/attempts/:attemptId", s.AttemptReview)
	group.GET("/students/:userId/quiz/:quizId/attempts", s.StudentAttempts)
	group.GET("/students/:userId/course/:courseId", s.StudentPerformance)
}

var _ httpapi.Service = (*MoodleService)(nil)
