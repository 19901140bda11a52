package classroomservice

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	classroomapi "google.golang.org/api/classroom/v1"

	"github.com/learning-tokens/lms-connector/httpapi"
	"github.com/learning-tokens/lms-connector/internal/classroom"
	"github.com/learning-tokens/lms-connector/internal/lmserr"
)

const (
	defaultSection   = "Default Section"
	defaultWorkType  = "ASSIGNMENT"
	defaultMaxPoints = 100
)

// dueDateLayouts are the accepted formats of a course work due date.
var dueDateLayouts = []string{time.DateOnly, time.RFC3339}

func (s *ClassroomService) Profile(c *gin.Context) {
	profile, err := clientOf(c).Profile(c.Request.Context())
	if err != nil {
		httpapi.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "profile": profile})
}

func (s *ClassroomService) ListCourses(c *gin.Context) {
	courses, err := clientOf(c).Courses(c.Request.Context())
	if err != nil {
		httpapi.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"totalCount": len(courses),
		"courses":    courses,
	})
}

func (s *ClassroomService) GetCourse(c *gin.Context) {
	course, err := clientOf(c).Course(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		httpapi.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "course": course})
}

type createCourseRequest struct {
	Name        string `json:"name"`
	Section     string `json:"section"`
	Description string `json:"description"`
	Room        string `json:"room"`
}

// CreateCourse creates an active course owned by the signed-in user.
func (s *ClassroomService) CreateCourse(c *gin.Context) {
	var req createCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.AbortWithError(c, lmserr.NewValidationError("body", "Invalid request body"))
		return
	}
	if req.Name == "" {
		httpapi.AbortWithError(c, lmserr.NewValidationError("name", "Course name is required"))
		return
	}

	section := req.Section
	if section == "" {
		section = defaultSection
	}

	course, err := clientOf(c).CreateCourse(c.Request.Context(), &classroomapi.Course{
		Name:        req.Name,
		Section:     section,
		Description: req.Description,
		Room:        req.Room,
		OwnerId:     "me",
		CourseState: "ACTIVE",
	})
	if err != nil {
		httpapi.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Course created successfully",
		"course":  course,
	})
}

func (s *ClassroomService) ListTeachers(c *gin.Context) {
	teachers, err := clientOf(c).Teachers(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		httpapi.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(teachers), "teachers": teachers})
}

func (s *ClassroomService) ListStudents(c *gin.Context) {
	students, err := clientOf(c).Students(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		httpapi.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(students), "students": students})
}

func (s *ClassroomService) ListCourseWork(c *gin.Context) {
	courseWork, err := clientOf(c).CourseWork(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		httpapi.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(courseWork), "courseWork": courseWork})
}

type createCourseWorkRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	WorkType    string  `json:"workType"`
	MaxPoints   float64 `json:"maxPoints"`
	DueDate     string  `json:"dueDate"`
}

// courseWork builds a published course work. A due date is due at 23:59 of that day.
func (r createCourseWorkRequest) courseWork() (*classroomapi.CourseWork, error) {
	if r.Title == "" {
		return nil, lmserr.NewValidationError("title", "Assignment title is required")
	}

	courseWork := &classroomapi.CourseWork{
		Title:       r.Title,
		Description: r.Description,
		WorkType:    r.WorkType,
		State:       "PUBLISHED",
		MaxPoints:   r.MaxPoints,
	}
	if courseWork.WorkType == "" {
		courseWork.WorkType = defaultWorkType
	}
	if courseWork.MaxPoints == 0 {
		courseWork.MaxPoints = defaultMaxPoints
	}

	if r.DueDate != "" {
		due, err := parseDueDate(r.DueDate)
		if err != nil {
			return nil, err
		}

		courseWork.DueDate = &classroomapi.Date{
			Year:  int64(due.Year()),
			Month: int64(due.Month()),
			Day:   int64(due.Day()),
		}
		courseWork.DueTime = &classroomapi.TimeOfDay{Hours: 23, Minutes: 59}
	}

	return courseWork, nil
}

func parseDueDate(value string) (time.Time, error) {
	for _, layout := range dueDateLayouts {
		if due, err := time.Parse(layout, value); err == nil {
			return due, nil
		}
	}

	return time.Time{}, lmserr.NewValidationError("dueDate", "dueDate must be a date such as 2025-01-31")
}

func (s *ClassroomService) CreateCourseWork(c *gin.Context) {
	var req createCourseWorkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.AbortWithError(c, lmserr.NewValidationError("body", "Invalid request body"))
		return
	}

	courseWork, err := req.courseWork()
	if err != nil {
		httpapi.AbortWithError(c, err)
		return
	}

	created, err := clientOf(c).CreateCourseWork(c.Request.Context(), c.Param("courseId"), courseWork)
	if err != nil {
		httpapi.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "Assignment created successfully",
		"courseWork": created,
	})
}

func (s *ClassroomService) ListSubmissions(c *gin.Context) {
	submissions, err := clientOf(c).Submissions(c.Request.Context(), c.Param("courseId"), c.Param("courseWorkId"))
	if err != nil {
		httpapi.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(submissions), "submissions": submissions})
}

// GradeSubmission sets the assigned or draft grade of a submission.
func (s *ClassroomService) GradeSubmission(c *gin.Context) {
	var grade classroom.Grade
	if err := c.ShouldBindJSON(&grade); err != nil {
		httpapi.AbortWithError(c, lmserr.NewValidationError("body", "Invalid request body"))
		return
	}
	if grade.Empty() {
		httpapi.AbortWithError(c, lmserr.NewValidationError("grade", "No grade data provided"))
		return
	}

	submission, err := clientOf(c).GradeSubmission(c.Request.Context(),
		c.Param("courseId"), c.Param("courseWorkId"), c.Param("id"), grade)
	if err != nil {
		httpapi.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "Submission updated successfully",
		"submission": submission,
	})
}
