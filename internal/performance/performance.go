// Package performance aggregates the quiz scores of Moodle students.
//
// The course-scoped computation looks up the attempts of every (student, quiz)
// pair concurrently. A failed lookup is logged and counted as "no attempts"
// for that pair; only the course, enrolment and quiz lookups abort a computation.
package performance

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/learning-tokens/lms-connector/internal/lmserr"
	"github.com/learning-tokens/lms-connector/internal/metrics"
	"github.com/learning-tokens/lms-connector/internal/moodle"
	"github.com/learning-tokens/lms-connector/internal/normalize"
	"github.com/learning-tokens/lms-connector/internal/workers"
)

// DefaultMaxGrade is the maximum grade of a quiz that does not report one.
const DefaultMaxGrade = 100

// Gateway is the part of the Moodle client the aggregator reads from.
type Gateway interface {
	Courses(ctx context.Context, ids ...moodle.ID) ([]moodle.Course, error)
	EnrolledUsers(ctx context.Context, courseID moodle.ID) ([]moodle.User, error)
	UserByID(ctx context.Context, userID moodle.ID) (moodle.User, bool, error)
	QuizzesByCourses(ctx context.Context, courseIDs ...moodle.ID) ([]moodle.Quiz, error)
	UserAttempts(ctx context.Context, quizID, userID moodle.ID) ([]moodle.Attempt, error)
}

// Aggregator computes course and student performance from a Gateway.
type Aggregator struct {
	gateway     Gateway
	concurrency int
}

// NewAggregator creates an Aggregator that runs at most concurrency attempt lookups at a time.
func NewAggregator(gateway Gateway, concurrency int) *Aggregator {
	return &Aggregator{gateway: gateway, concurrency: concurrency}
}

// Option configures a single computation.
type Option func(*options)

type options struct {
	progress func(done, total int)
}

// WithProgress reports the number of finished attempt lookups after each one.
//
// fn is never called concurrently.
func WithProgress(fn func(done, total int)) Option {
	return func(o *options) {
		o.progress = fn
	}
}

// IsStudent reports whether an enrolled user takes part in the aggregation.
//
// Users without an email, with "admin" in their username or with the
// manager role are excluded.
func IsStudent(user moodle.User) bool {
	if user.Email == "" {
		return false
	}
	if strings.Contains(user.Username, "admin") {
		return false
	}

	return !lo.ContainsBy(user.Roles, func(role moodle.Role) bool {
		return role.ShortName == "manager"
	})
}

// BestAttempt returns the attempt with the highest sumGrades, the first one on ties.
// Attempts without sumGrades count as 0. ok is false when there is no attempt.
func BestAttempt(attempts []moodle.Attempt) (best moodle.Attempt, ok bool) {
	if len(attempts) == 0 {
		return moodle.Attempt{}, false
	}

	return lo.MaxBy(attempts, func(a, b moodle.Attempt) bool {
		return a.SumGrades.Value(0) > b.SumGrades.Value(0)
	}), true
}

// attemptPercent is the clamped percentage of the best attempt against the quiz's max grade.
func attemptPercent(quiz moodle.Quiz, best moodle.Attempt) float64 {
	maxGrade := quiz.Grade.Value(DefaultMaxGrade)
	achieved := best.SumGrades.Value(0)

	var percent float64
	if maxGrade > 0 {
		percent = achieved / maxGrade * 100
	}

	return normalize.ClampPercent(percent)
}

// pairOutcome is the result of one (student, quiz) lookup. A failed lookup has no attempts.
type pairOutcome struct {
	attempts []moodle.Attempt
}

// lookupPairs fetches the attempts of every (user, quiz) pair concurrently.
// outcomes[i][j] belongs to users[i] and quizzes[j]; errs collects the failed lookups.
func (a *Aggregator) lookupPairs(ctx context.Context, users []moodle.User, quizzes []moodle.Quiz, opts options) (outcomes [][]pairOutcome, failed int, errs error) {
	outcomes = make([][]pairOutcome, len(users))
	for i := range outcomes {
		outcomes[i] = make([]pairOutcome, len(quizzes))
	}

	var (
		mu     sync.Mutex
		merr   *multierror.Error
		done   int
		total  = len(users) * len(quizzes)
		worker = workers.NewWorker(a.concurrency)
	)

	for i, user := range users {
		for j, quiz := range quizzes {
			worker.Go(func() {
				attempts, err := a.gateway.UserAttempts(ctx, quiz.ID, user.ID)
				if err != nil {
					slog.WarnContext(ctx, "could not get attempts",
						"user_id", user.ID,
						"quiz_id", quiz.ID,
						"error", err,
					)
					metrics.RecordAttemptLookupFailure()
				}

				// Each task owns its own cell.
				outcomes[i][j] = pairOutcome{attempts: attempts}

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					merr = multierror.Append(merr, fmt.Errorf("user %d quiz %d: %w", user.ID, quiz.ID, err))
				}
				done++
				if opts.progress != nil {
					opts.progress(done, total)
				}
			})
		}
	}
	worker.Wait()

	if merr == nil {
		return outcomes, 0, nil
	}

	return outcomes, len(merr.Errors), merr
}

// ComputeCoursePerformance computes the average best-attempt score of every student in the course.
//
// Students are sorted by score, highest first.
func (a *Aggregator) ComputeCoursePerformance(ctx context.Context, courseID moodle.ID, opts ...Option) (*CoursePerformance, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	var (
		courses []moodle.Course
		users   []moodle.User
		quizzes []moodle.Quiz
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() (err error) {
		courses, err = a.gateway.Courses(groupCtx, courseID)
		return err
	})
	group.Go(func() (err error) {
		users, err = a.gateway.EnrolledUsers(groupCtx, courseID)
		return err
	})
	group.Go(func() (err error) {
		quizzes, err = a.gateway.QuizzesByCourses(groupCtx, courseID)
		return err
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	course, ok := lo.Find(courses, func(c moodle.Course) bool {
		return c.ID == courseID
	})
	if !ok {
		return nil, lmserr.NewNotFoundError("Course", courseID)
	}

	students := lo.Filter(users, func(user moodle.User, _ int) bool {
		return IsStudent(user)
	})

	outcomes, failed, lookupErr := a.lookupPairs(ctx, students, quizzes, o)
	if lookupErr != nil {
		slog.WarnContext(ctx, "some attempt lookups failed",
			"course_id", courseID,
			"failed", failed,
			"error", lookupErr,
		)
	}

	scores := make([]StudentScore, 0, len(students))
	for i, student := range students {
		var percents []float64
		for j, quiz := range quizzes {
			best, ok := BestAttempt(outcomes[i][j].attempts)
			if !ok {
				continue
			}
			percents = append(percents, attemptPercent(quiz, best))
		}

		scores = append(scores, StudentScore{
			ID:           student.ID,
			Name:         normalize.FullName(student.FirstName, student.LastName),
			Email:        student.Email,
			Score:        normalize.Round2(normalize.Mean(percents)),
			QuizzesTaken: len(percents),
		})
	}

	slices.SortStableFunc(scores, func(x, y StudentScore) int {
		return cmp.Compare(y.Score, x.Score)
	})

	metrics.RecordPerformanceComputation(metrics.ScopeCourse)

	return &CoursePerformance{
		Course: CourseInfo{
			ID:           course.ID,
			Name:         course.FullName,
			ShortName:    course.ShortName,
			StudentCount: len(scores),
		},
		Students: scores,
		Summary: CourseSummary{
			TotalStudents: len(scores),
			AverageScore: normalize.Round2(normalize.Mean(lo.Map(scores, func(s StudentScore, _ int) float64 {
				return s.Score
			}))),
			TotalQuizzes: len(quizzes),
		},
		Quizzes: lo.Map(quizzes, func(q moodle.Quiz, _ int) QuizInfo {
			return QuizInfo{
				ID:        q.ID,
				Name:      q.Name,
				MaxGrade:  q.Grade.Value(DefaultMaxGrade),
				TimeLimit: q.TimeLimit,
			}
		}),
		FailedLookups: failed,
	}, nil
}

// ComputeStudentPerformance computes one student's performance in a course,
// together with the attempts behind every counted quiz.
func (a *Aggregator) ComputeStudentPerformance(ctx context.Context, userID, courseID moodle.ID, opts ...Option) (*StudentPerformance, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	user, ok, err := a.gateway.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, lmserr.NewNotFoundError("User", userID)
	}

	quizzes, err := a.gateway.QuizzesByCourses(ctx, courseID)
	if err != nil {
		return nil, err
	}

	outcomes, failed, lookupErr := a.lookupPairs(ctx, []moodle.User{user}, quizzes, o)
	if lookupErr != nil {
		slog.WarnContext(ctx, "some attempt lookups failed",
			"user_id", userID,
			"course_id", courseID,
			"failed", failed,
			"error", lookupErr,
		)
	}

	quizAttempts := make([]QuizAttempts, 0, len(quizzes))
	percents := make([]float64, 0, len(quizzes))
	for j, quiz := range quizzes {
		attempts := outcomes[0][j].attempts
		best, ok := BestAttempt(attempts)
		if !ok {
			continue
		}

		percent := attemptPercent(quiz, best)
		percents = append(percents, percent)
		quizAttempts = append(quizAttempts, QuizAttempts{
			Quiz: QuizRef{
				ID:       quiz.ID,
				Name:     quiz.Name,
				MaxGrade: quiz.Grade.Value(DefaultMaxGrade),
			},
			BestAttempt: best,
			AllAttempts: attempts,
			Score:       normalize.Round2(percent),
		})
	}

	metrics.RecordPerformanceComputation(metrics.ScopeStudent)

	return &StudentPerformance{
		Student: StudentInfo{
			ID:       user.ID,
			Name:     normalize.FullName(user.FirstName, user.LastName),
			Email:    user.Email,
			Username: user.Username,
		},
		CourseID: courseID,
		Performance: StudentSummary{
			AverageScore: normalize.Round2(normalize.Mean(percents)),
			QuizzesTaken: len(percents),
			TotalQuizzes: len(quizzes),
		},
		QuizAttempts:  quizAttempts,
		FailedLookups: failed,
	}, nil
}

// StudentAttempts lists every attempt of a student at a quiz, ordered by attempt number.
func (a *Aggregator) StudentAttempts(ctx context.Context, userID, quizID moodle.ID) (*StudentAttempts, error) {
	attempts, err := a.gateway.UserAttempts(ctx, quizID, userID)
	if err != nil {
		return nil, err
	}

	summaries := lo.Map(attempts, func(attempt moodle.Attempt, _ int) AttemptSummary {
		grade := attempt.Grade.Value(0)

		return AttemptSummary{
			ID:         attempt.ID,
			Attempt:    attempt.Attempt,
			TimeStart:  attempt.TimeStart,
			TimeFinish: attempt.TimeFinish,
			State:      attempt.State,
			SumGrades:  attempt.SumGrades.Value(0),
			Grade:      grade,
			Percentage: math.Round(grade),
		}
	})
	slices.SortStableFunc(summaries, func(x, y AttemptSummary) int {
		return cmp.Compare(x.Attempt, y.Attempt)
	})

	result := &StudentAttempts{
		UserID:        userID,
		QuizID:        quizID,
		TotalAttempts: len(summaries),
		Attempts:      summaries,
	}
	if len(summaries) > 0 {
		best := lo.MaxBy(summaries, func(x, y AttemptSummary) bool {
			return x.SumGrades > y.SumGrades
		})
		result.BestAttempt = &best
	}

	return result, nil
}
