package moodleservice

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/learning-tokens/lms-connector/httpapi"
	"github.com/learning-tokens/lms-connector/internal/events"
	"github.com/learning-tokens/lms-connector/internal/httputils"
	"github.com/learning-tokens/lms-connector/internal/moodle"
	"github.com/learning-tokens/lms-connector/internal/normalize"
)

// TestConnection reports the site the adapter is connected to.
func (s *MoodleService) TestConnection(c *gin.Context) {
	info, err := s.client.SiteInfo(c.Request.Context())
	if err != nil {
		httpapi.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        "success",
		"siteName":      info.SiteName,
		"moodleVersion": info.Release,
		"user":          normalize.FullName(info.FirstName, info.LastName),
		"message":       "Connection successful!",
	})
}

// ListCourses lists every course but the site course.
func (s *MoodleService) ListCourses(c *gin.Context) {
	courses, err := s.client.Courses(c.Request.Context())
	if err != nil {
		httpapi.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, lo.Filter(courses, func(course moodle.Course, _ int) bool {
		return course.ID != moodle.SiteCourseID
	}))
}

func (s *MoodleService) CoursePerformance(c *gin.Context) {
	courseID, err := httpapi.PositiveIntParam(c, "courseId")
	if err != nil {
		httpapi.AbortWithError(c, err)
		return
	}

	result, err := s.aggregator.ComputeCoursePerformance(c.Request.Context(), moodle.ID(courseID))
	if err != nil {
		httpapi.AbortWithError(c, err)
		return
	}

	s.events.TriggerEvent(c.Request.Context(), events.Event{
		Type:       events.EventTypeCoursePerformanceComputed,
		DistinctID: httputils.GetMachineName(c.Request.Context()),
		Payload: map[string]any{
			"course_id":      courseID,
			"student_count":  result.Course.StudentCount,
			"quiz_count":     result.Summary.TotalQuizzes,
			"failed_lookups": result.FailedLookups,
		},
	})

	c.JSON(http.StatusOK, result)
}

// QuizQuestions lists the questions of a quiz. Answers are included with ?includeAnswers=true.
func (s *MoodleService) QuizQuestions(c *gin.Context) {
	quizID, err := httpapi.PositiveIntParam(c, "quizId")
	if err != nil {
		httpapi.AbortWithError(c, err)
		return
	}

	includeAnswers, _ := strconv.ParseBool(c.Query("includeAnswers"))

	result, err := s.builder.QuizQuestions(c.Request.Context(), moodle.ID(quizID), includeAnswers)
	if err != nil {
		httpapi.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *MoodleService) AttemptReview(c *gin.Context) {
	attemptID, err := httpapi.PositiveIntParam(c, "attemptId")
	if err != nil {
		httpapi.AbortWithError(c, err)
		return
	}

	result, err := s.builder.BuildReview(c.Request.Context(), moodle.ID(attemptID))
	if err != nil {
		httpapi.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *MoodleService) StudentAttempts(c *gin.Context) {
	userID, err := httpapi.PositiveIntParam(c, "userId")
	if err != nil {
		httpapi.AbortWithError(c, err)
		return
	}

	quizID, err := httpapi.PositiveIntParam(c, "quizId")
	if err != nil {
		httpapi.AbortWithError(c, err)
		return
	}

	result, err := s.aggregator.StudentAttempts(c.Request.Context(), moodle.ID(userID), moodle.ID(quizID))
	if err != nil {
		httpapi.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *MoodleService) StudentPerformance(c *gin.Context) {
	userID, err := httpapi.PositiveIntParam(c, "userId")
	if err != nil {
		httpapi.AbortWithError(c, err)
		return
	}

	courseID, err := httpapi.PositiveIntParam(c, "courseId")
	if err != nil {
		httpapi.AbortWithError(c, err)
		return
	}

	result, err := s.aggregator.ComputeStudentPerformance(c.Request.Context(), moodle.ID(userID), moodle.ID(courseID))
	if err != nil {
		httpapi.AbortWithError(c, err)
		return
	}

	s.events.TriggerEvent(c.Request.Context(), events.Event{
		Type:       events.EventTypeStudentPerformanceComputed,
		DistinctID: httputils.GetMachineName(c.Request.Context()),
		Payload: map[string]any{
			"course_id":      courseID,
			"user_id":        userID,
			"quizzes_taken":  result.Performance.QuizzesTaken,
			"failed_lookups": result.FailedLookups,
		},
	})

	c.JSON(http.StatusOK, result)
}
