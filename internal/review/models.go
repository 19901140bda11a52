package review

import "github.com/learning-tokens/lms-connector/internal/moodle"

// NoAnswer is the student answer of a question that was not answered.
const NoAnswer = "No answer"

// Review is the scorecard of one attempt.
type Review struct {
	Attempt   AttemptInfo      `json:"attempt"`
	Questions []QuestionReview `json:"questions"`
	Summary   Summary          `json:"summary"`
}

type AttemptInfo struct {
	ID         moodle.ID `json:"id"`
	UserID     moodle.ID `json:"userId"`
	QuizID     moodle.ID `json:"quizId"`
	State      string    `json:"state"`
	TimeStart  int64     `json:"timeStart"`
	TimeFinish int64     `json:"timeFinish"`
	TimeTaken  int64     `json:"timeTaken"` // seconds, 0 when unknown
}

// QuestionReview is one question with the student's answer and its correctness.
type QuestionReview struct {
	ID           moodle.ID `json:"id"`
	Number       int       `json:"number"`
	Name         string    `json:"name"`
	QuestionText string    `json:"questionText"`
	QuestionType string    `json:"questionType"`

	StudentAnswer   string  `json:"studentAnswer"`
	StudentResponse *string `json:"studentResponse"`

	Mark      float64 `json:"mark"`
	MaxMark   float64 `json:"maxMark"`
	IsCorrect bool    `json:"isCorrect"`

	Feedback        string `json:"feedback"`
	GeneralFeedback string `json:"generalFeedback"`

	AnswerOptions []AnswerOption `json:"answerOptions"`

	State   string `json:"state"`
	Flagged bool   `json:"flagged"`
}

type AnswerOption struct {
	ID        moodle.ID `json:"id"`
	Text      string    `json:"text"`
	IsCorrect bool      `json:"isCorrect"`
	Feedback  string    `json:"feedback"`
	Chosen    bool      `json:"chosen"`
}

type Summary struct {
	TotalQuestions   int     `json:"totalQuestions"`
	CorrectAnswers   int     `json:"correctAnswers"`
	IncorrectAnswers int     `json:"incorrectAnswers"`
	Unanswered       int     `json:"unanswered"`
	TotalMarks       float64 `json:"totalMarks"`
	MaxMarks         float64 `json:"maxMarks"`
	Percentage       float64 `json:"percentage"`
	TimeTaken        string  `json:"timeTaken"`
}

// QuizQuestions is the question list of a quiz.
type QuizQuestions struct {
	Quiz          QuizSummary    `json:"quiz"`
	Questions     []QuizQuestion `json:"questions"`
	TotalAttempts int            `json:"totalAttempts"`
}

type QuizSummary struct {
	ID             moodle.ID `json:"id"`
	Name           string    `json:"name"`
	Intro          string    `json:"intro"`
	MaxGrade       float64   `json:"maxGrade"`
	TimeLimit      int64     `json:"timeLimit"`
	TotalQuestions int       `json:"totalQuestions"`
}

type QuizQuestion struct {
	ID           moodle.ID    `json:"id"`
	Name         string       `json:"name"`
	QuestionText string       `json:"questionText"`
	Type         string       `json:"type"`
	MaxMark      float64      `json:"maxMark"`
	Number       int          `json:"number"`
	Answers      []AnswerInfo `json:"answers,omitempty"`
}

type AnswerInfo struct {
	ID        moodle.ID `json:"id"`
	Text      string    `json:"text"`
	IsCorrect bool      `json:"isCorrect"`
	Feedback  string    `json:"feedback"`
}
