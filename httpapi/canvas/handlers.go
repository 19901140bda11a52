package canvasservice

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/learning-tokens/lms-connector/httpapi"
	"github.com/learning-tokens/lms-connector/internal/canvas"
)

// respond writes the result of fetch, or aborts with its error.
func respond[T any](c *gin.Context, fetch func(ctx context.Context) (T, error)) {
	result, err := fetch(c.Request.Context())
	if err != nil {
		httpapi.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *CanvasService) ListCourses(c *gin.Context) {
	respond(c, s.client.Courses)
}

func (s *CanvasService) ListAssignments(c *gin.Context) {
	courseID := c.Param("courseId")
	respond(c, func(ctx context.Context) ([]canvas.Raw, error) {
		return s.client.Assignments(ctx, courseID)
	})
}

func (s *CanvasService) ListStudents(c *gin.Context) {
	courseID := c.Param("courseId")
	respond(c, func(ctx context.Context) ([]canvas.Student, error) {
		return s.client.Students(ctx, courseID)
	})
}

// QuizGrades joins the submissions of a quiz with the enrolled students.
func (s *CanvasService) QuizGrades(c *gin.Context) {
	courseID, quizID := c.Param("courseId"), c.Param("quizId")
	respond(c, func(ctx context.Context) (*canvas.QuizGrades, error) {
		return s.client.QuizGrades(ctx, courseID, quizID)
	})
}

func (s *CanvasService) ListFiles(c *gin.Context) {
	courseID := c.Param("courseId")
	respond(c, func(ctx context.Context) ([]canvas.File, error) {
		return s.client.Files(ctx, courseID)
	})
}

func (s *CanvasService) ListFolders(c *gin.Context) {
	courseID := c.Param("courseId")
	respond(c, func(ctx context.Context) ([]canvas.Folder, error) {
		return s.client.Folders(ctx, courseID)
	})
}
