package performance

import "github.com/learning-tokens/lms-connector/internal/moodle"

// CoursePerformance is the quiz performance of every student in a course.
type CoursePerformance struct {
	Course   CourseInfo     `json:"course"`
	Students []StudentScore `json:"students"`
	Summary  CourseSummary  `json:"summary"`
	Quizzes  []QuizInfo     `json:"quizzes"`

	// FailedLookups is the number of (student, quiz) attempt lookups that failed.
	FailedLookups int `json:"-"`
}

type CourseInfo struct {
	ID           moodle.ID `json:"id"`
	Name         string    `json:"name"`
	ShortName    string    `json:"shortName"`
	StudentCount int       `json:"studentCount"`
}

// StudentScore is the average of a student's best attempts.
type StudentScore struct {
	ID           moodle.ID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Score        float64   `json:"score"`
	QuizzesTaken int       `json:"quizzesTaken"`
}

type CourseSummary struct {
	TotalStudents int     `json:"totalStudents"`
	AverageScore  float64 `json:"averageScore"`
	TotalQuizzes  int     `json:"totalQuizzes"`
}

type QuizInfo struct {
	ID        moodle.ID `json:"id"`
	Name      string    `json:"name"`
	MaxGrade  float64   `json:"maxGrade"`
	TimeLimit int64     `json:"timeLimit"`
}

// StudentPerformance is the quiz performance of one student in a course.
type StudentPerformance struct {
	Student      StudentInfo    `json:"student"`
	CourseID     moodle.ID      `json:"courseId"`
	Performance  StudentSummary `json:"performance"`
	QuizAttempts []QuizAttempts `json:"quizAttempts"`

	FailedLookups int `json:"-"`
}

type StudentInfo struct {
	ID       moodle.ID `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Username string    `json:"username"`
}

type StudentSummary struct {
	AverageScore float64 `json:"averageScore"`
	QuizzesTaken int     `json:"quizzesTaken"`
	TotalQuizzes int     `json:"totalQuizzes"`
}

// QuizAttempts is a student's attempts at one quiz with the best one picked.
type QuizAttempts struct {
	Quiz        QuizRef          `json:"quiz"`
	BestAttempt moodle.Attempt   `json:"bestAttempt"`
	AllAttempts []moodle.Attempt `json:"allAttempts"`
	Score       float64          `json:"score"`
}

type QuizRef struct {
	ID       moodle.ID `json:"id"`
	Name     string    `json:"name"`
	MaxGrade float64   `json:"maxGrade"`
}

// StudentAttempts is every attempt of a student at a quiz.
type StudentAttempts struct {
	UserID        moodle.ID        `json:"userId"`
	QuizID        moodle.ID        `json:"quizId"`
	TotalAttempts int              `json:"totalAttempts"`
	Attempts      []AttemptSummary `json:"attempts"`
	BestAttempt   *AttemptSummary  `json:"bestAttempt"`
}

type AttemptSummary struct {
	ID         moodle.ID `json:"id"`
	Attempt    int       `json:"attempt"`
	TimeStart  int64     `json:"timeStart"`
	TimeFinish int64     `json:"timeFinish"`
	State      string    `json:"state"`
	SumGrades  float64   `json:"sumGrades"`
	Grade      float64   `json:"grade"`
	Percentage float64   `json:"percentage"`
}
