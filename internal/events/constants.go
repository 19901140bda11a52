package events

type EventType string

const (
	EventTypeCoursePerformanceComputed  EventType = "course_performance_computed"
	EventTypeStudentPerformanceComputed EventType = "student_performance_computed"

	EventTypeClassroomLogin EventType = "classroom_login"
)
