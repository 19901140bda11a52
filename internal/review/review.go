// Package review builds the per-question scorecard of a Moodle quiz attempt.
package review

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/lo"

	"github.com/learning-tokens/lms-connector/internal/lmserr"
	"github.com/learning-tokens/lms-connector/internal/moodle"
	"github.com/learning-tokens/lms-connector/internal/normalize"
)

// singleChoiceTypes are the question types whose response is the ID of the chosen answer.
var singleChoiceTypes = map[string]bool{
	"multichoice": true,
	"truefalse":   true,
}

// Gateway is the part of the Moodle client the builder reads from.
type Gateway interface {
	Courses(ctx context.Context, ids ...moodle.ID) ([]moodle.Course, error)
	QuizzesByCourses(ctx context.Context, courseIDs ...moodle.ID) ([]moodle.Quiz, error)
	UserAttempts(ctx context.Context, quizID, userID moodle.ID) ([]moodle.Attempt, error)
	AttemptData(ctx context.Context, attemptID moodle.ID) (moodle.AttemptData, error)
	AttemptReview(ctx context.Context, attemptID moodle.ID) (moodle.AttemptReview, error)
}

// Builder builds attempt reviews and quiz question lists.
type Builder struct {
	gateway Gateway
}

func NewBuilder(gateway Gateway) *Builder {
	return &Builder{gateway: gateway}
}

// BuildReview joins the questions of an attempt with the student's answers.
//
// The attempt data is required; the review only contributes the general
// feedback and a failure to fetch it is logged and ignored.
func (b *Builder) BuildReview(ctx context.Context, attemptID moodle.ID) (*Review, error) {
	data, err := b.gateway.AttemptData(ctx, attemptID)
	if err != nil {
		return nil, err
	}

	generalFeedback := make(map[moodle.ID]string)
	attemptReview, err := b.gateway.AttemptReview(ctx, attemptID)
	if err != nil {
		slog.WarnContext(ctx, "could not get attempt review, general feedback is omitted",
			"attempt_id", attemptID,
			"error", err,
		)
	} else {
		for _, question := range attemptReview.Questions {
			generalFeedback[question.ID] = question.GeneralFeedback
		}
	}

	questions := lo.Map(data.Questions, func(question moodle.Question, _ int) QuestionReview {
		return reviewQuestion(question, generalFeedback[question.ID])
	})

	info := AttemptInfo{
		ID:         attemptID,
		UserID:     data.Attempt.UserID,
		QuizID:     data.Attempt.Quiz,
		State:      data.Attempt.State,
		TimeStart:  data.Attempt.TimeStart,
		TimeFinish: data.Attempt.TimeFinish,
	}
	if info.TimeStart != 0 && info.TimeFinish != 0 {
		info.TimeTaken = info.TimeFinish - info.TimeStart
	}

	return &Review{
		Attempt:   info,
		Questions: questions,
		Summary:   summarize(questions, info.TimeTaken),
	}, nil
}

func reviewQuestion(question moodle.Question, generalFeedback string) QuestionReview {
	qtype := question.QuestionType()
	response := string(question.Response)

	studentAnswer := NoAnswer
	var chosen *moodle.Answer
	if response != "" {
		if singleChoiceTypes[qtype] {
			if answer, ok := lo.Find(question.Answers, func(answer moodle.Answer) bool {
				return answer.ID.String() == response
			}); ok {
				chosen = &answer
				studentAnswer = normalize.StripHTML(answerText(answer))
			}
		} else {
			studentAnswer = normalize.StripHTML(response)
		}
	}

	options := lo.Map(question.Answers, func(answer moodle.Answer, _ int) AnswerOption {
		return AnswerOption{
			ID:        answer.ID,
			Text:      normalize.StripHTML(answerText(answer)),
			IsCorrect: answer.Fraction.Value(0) > 0,
			Feedback:  normalize.StripHTML(answer.Feedback),
			Chosen:    chosen != nil && answer.ID == chosen.ID,
		}
	})

	var studentResponse *string
	if response != "" {
		studentResponse = &response
	}

	state := question.State
	if state == "" {
		state = "unknown"
	}

	// Exact equality: partial credit is not correct.
	isCorrect := question.Mark != nil && question.MaxMark != nil && *question.Mark == *question.MaxMark

	return QuestionReview{
		ID:              question.ID,
		Number:          question.Number,
		Name:            questionName(question),
		QuestionText:    normalize.StripHTML(question.QuestionText),
		QuestionType:    normalize.ClassifyQuestionType(qtype),
		StudentAnswer:   studentAnswer,
		StudentResponse: studentResponse,
		Mark:            question.Mark.Value(0),
		MaxMark:         question.MaxMark.Value(1),
		IsCorrect:       isCorrect,
		Feedback:        normalize.StripHTML(question.Feedback),
		GeneralFeedback: normalize.StripHTML(generalFeedback),
		AnswerOptions:   options,
		State:           state,
		Flagged:         question.Flagged,
	}
}

func summarize(questions []QuestionReview, timeTaken int64) Summary {
	summary := Summary{
		TotalQuestions: len(questions),
		TimeTaken:      "Unknown",
	}

	var totalMarks, maxMarks float64
	for _, question := range questions {
		switch {
		case question.IsCorrect:
			summary.CorrectAnswers++
		case question.StudentAnswer != NoAnswer:
			summary.IncorrectAnswers++
		}
		if question.StudentAnswer == NoAnswer {
			summary.Unanswered++
		}

		totalMarks += question.Mark
		maxMarks += question.MaxMark
	}

	summary.TotalMarks = normalize.Round2(totalMarks)
	summary.MaxMarks = normalize.Round2(maxMarks)
	summary.Percentage = normalize.FormatScore(totalMarks, maxMarks)
	if timeTaken > 0 {
		summary.TimeTaken = fmt.Sprintf("%d minutes", timeTaken/60)
	}

	return summary
}

// QuizQuestions lists the questions of a quiz, taken from the token user's first attempt.
//
// The quiz is looked up across every course but the site course.
func (b *Builder) QuizQuestions(ctx context.Context, quizID moodle.ID, includeAnswers bool) (*QuizQuestions, error) {
	courses, err := b.gateway.Courses(ctx)
	if err != nil {
		return nil, err
	}

	courseIDs := lo.FilterMap(courses, func(course moodle.Course, _ int) (moodle.ID, bool) {
		return course.ID, course.ID != moodle.SiteCourseID
	})
	if len(courseIDs) == 0 {
		return nil, lmserr.NewNotFoundError("Quiz", quizID)
	}

	quizzes, err := b.gateway.QuizzesByCourses(ctx, courseIDs...)
	if err != nil {
		return nil, err
	}

	quiz, ok := lo.Find(quizzes, func(quiz moodle.Quiz) bool {
		return quiz.ID == quizID
	})
	if !ok {
		return nil, lmserr.NewNotFoundError("Quiz", quizID)
	}

	attempts, err := b.gateway.UserAttempts(ctx, quizID, 0)
	if err != nil {
		return nil, err
	}

	questions := []QuizQuestion{}
	if len(attempts) > 0 {
		data, err := b.gateway.AttemptData(ctx, attempts[0].ID)
		if err != nil {
			return nil, err
		}

		questions = lo.Map(data.Questions, func(question moodle.Question, _ int) QuizQuestion {
			item := QuizQuestion{
				ID:           question.ID,
				Name:         questionName(question),
				QuestionText: normalize.StripHTML(question.QuestionText),
				Type:         normalize.ClassifyQuestionType(question.QuestionType()),
				MaxMark:      question.MaxMark.Value(1),
				Number:       question.Number,
			}
			if includeAnswers {
				item.Answers = lo.Map(question.Answers, func(answer moodle.Answer, _ int) AnswerInfo {
					return AnswerInfo{
						ID:        answer.ID,
						Text:      normalize.StripHTML(answerText(answer)),
						IsCorrect: answer.Fraction.Value(0) > 0,
						Feedback:  normalize.StripHTML(answer.Feedback),
					}
				})
			}

			return item
		})
	}

	return &QuizQuestions{
		Quiz: QuizSummary{
			ID:             quiz.ID,
			Name:           quiz.Name,
			Intro:          normalize.StripHTML(quiz.Intro),
			MaxGrade:       quiz.Grade.Value(100),
			TimeLimit:      quiz.TimeLimit,
			TotalQuestions: len(questions),
		},
		Questions:     questions,
		TotalAttempts: len(attempts),
	}, nil
}

func questionName(question moodle.Question) string {
	if question.Name != "" {
		return question.Name
	}

	return fmt.Sprintf("Question %d", question.Number)
}

func answerText(answer moodle.Answer) string {
	if answer.Answer != "" {
		return answer.Answer
	}

	return answer.Text
}
