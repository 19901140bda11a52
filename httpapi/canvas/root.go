// Package canvasservice serves the Canvas adapter under /api/canvas.
package canvasservice

import (
	"github.com/gin-gonic/gin"

	"github.com/learning-tokens/lms-connector/httpapi"
	"github.com/learning-tokens/lms-connector/internal/canvas"
)

type CanvasService struct {
	client *canvas.Client
}

func NewCanvasService(client *canvas.Client) *CanvasService {
	return &CanvasService{client: client}
}

func (s *CanvasService) Register(router gin.IRouter) {
	group := router.Group("/canvas")

	group.GET("/courses", s.ListCourses)

	course := group.Group("/courses/:courseId")
	course.GET("/assignments", s.ListAssignments)
	course.GET("/students", s.ListStudents)
	course.GET("/quizzes/:quizId/grades", s.QuizGrades)
	course.GET("/files", s.ListFiles)
	course.GET("/folders", s.ListFolders)
}

var _ httpapi.Service = (*CanvasService)(nil)
