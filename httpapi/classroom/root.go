// Package classroomservice serves the Google Classroom adapter under /api/classroom.
//
// Every route runs on behalf of the signed-in Google account of the session.
// Sessions are created by the OAuth callback and carried in the
// Classroom-Session cookie or an Authorization: Bearer header.
package classroomservice

import (
	"github.com/gin-gonic/gin"

	"github.com/learning-tokens/lms-connector/httpapi"
	"github.com/learning-tokens/lms-connector/internal/auth"
	"github.com/learning-tokens/lms-connector/internal/classroom"
	"github.com/learning-tokens/lms-connector/internal/events"
	"github.com/learning-tokens/lms-connector/internal/gauth"
)

type ClassroomService struct {
	flow    *gauth.Flow
	storage auth.Storage
	clients classroom.Factory
	events  *events.EventService
}

func NewClassroomService(flow *gauth.Flow, storage auth.Storage, clients classroom.Factory, eventService *events.EventService) *ClassroomService {
	return &ClassroomService{
		flow:    flow,
		storage: storage,
		clients: clients,
		events:  eventService,
	}
}

func (s *ClassroomService) Register(router gin.IRouter) {
	group := router.Group("/classroom")
	group.Use(auth.Middleware(s.storage))

	group.GET("/auth", s.AuthURL)
	group.GET("/callback", s.Callback)
	group.GET("/status", s.Status)
	group.POST("/logout", s.Logout)

	authed := group.Group("", s.RequireSession)
	authed.GET("/profile", s.Profile)

	authed.GET("/courses", s.ListCourses)
	authed.POST("/courses", s.CreateCourse)
	authed.GET("/courses/:courseId", s.GetCourse)
	authed.GET("/courses/:courseId/teachers", s.ListTeachers)
	authed.GET("/courses/:courseId/students", s.ListStudents)

	authed.GET("/courses/:courseId/courseWork", s.ListCourseWork)
	authed.POST("/courses/:courseId/courseWork", s.CreateCourseWork)
	authed.GET("/courses/:courseId/courseWork/:courseWorkId/studentSubmissions", s.ListSubmissions)
	authed.PATCH("/courses/:courseId/courseWork/:courseWorkId/studentSubmissions/:id", s.GradeSubmission)
}

var _ httpapi.Service = (*ClassroomService)(nil)
