package canvas

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// unknown fills the name and login of a submission whose student is not enrolled.
const unknown = "Unknown"

func coursePath(courseID string, rest string) string {
	return "/courses/" + url.PathEscape(courseID) + rest
}

// Courses lists the courses of the token user as Canvas returns them.
func (c *Client) Courses(ctx context.Context) ([]Raw, error) {
	return list(ctx, c, "courses", "/courses", nil, decodeArray[Raw])
}

// Assignments lists the assignments of a course as Canvas returns them.
func (c *Client) Assignments(ctx context.Context, courseID string) ([]Raw, error) {
	return list(ctx, c, "assignments", coursePath(courseID, "/assignments"), nil, decodeArray[Raw])
}

// StudentEnrollments lists the student enrollments of a course.
func (c *Client) StudentEnrollments(ctx context.Context, courseID string) ([]Enrollment, error) {
	query := url.Values{}
	query.Add("type[]", "StudentEnrollment")

	return list(ctx, c, "enrollments", coursePath(courseID, "/enrollments"), query, decodeArray[Enrollment])
}

// Students lists the students of a course.
func (c *Client) Students(ctx context.Context, courseID string) ([]Student, error) {
	enrollments, err := c.StudentEnrollments(ctx, courseID)
	if err != nil {
		return nil, err
	}

	return lo.Map(enrollments, func(enrollment Enrollment, _ int) Student {
		return Student{
			ID:      enrollment.User.ID,
			Name:    enrollment.User.Name,
			LoginID: enrollment.User.LoginID,
		}
	}), nil
}

// Quiz gets a quiz of a course.
func (c *Client) Quiz(ctx context.Context, courseID, quizID string) (Quiz, error) {
	var quiz Quiz
	err := c.getJSON(ctx, "quiz", coursePath(courseID, "/quizzes/"+url.PathEscape(quizID)), &quiz)
	return quiz, err
}

// QuizSubmissions lists the submissions of a quiz.
func (c *Client) QuizSubmissions(ctx context.Context, courseID, quizID string) ([]QuizSubmission, error) {
	path := coursePath(courseID, "/quizzes/"+url.PathEscape(quizID)+"/submissions")

	return list(ctx, c, "quiz_submissions", path, nil, func(body []byte) ([]QuizSubmission, error) {
		var page quizSubmissionsResponse
		err := json.Unmarshal(body, &page)
		return page.QuizSubmissions, err
	})
}

// QuizGrades joins the submissions of a quiz with the enrolled students.
func (c *Client) QuizGrades(ctx context.Context, courseID, quizID string) (*QuizGrades, error) {
	var (
		quiz        Quiz
		submissions []QuizSubmission
		enrollments []Enrollment
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		quiz, err = c.Quiz(gctx, courseID, quizID)
		return err
	})
	g.Go(func() (err error) {
		submissions, err = c.QuizSubmissions(gctx, courseID, quizID)
		return err
	})
	g.Go(func() (err error) {
		enrollments, err = c.StudentEnrollments(gctx, courseID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &QuizGrades{
		QuizInfo: quiz,
		Grades:   joinGrades(quiz, submissions, enrollments),
	}, nil
}

func joinGrades(quiz Quiz, submissions []QuizSubmission, enrollments []Enrollment) []Grade {
	students := lo.SliceToMap(enrollments, func(enrollment Enrollment) (int64, Enrollment) {
		return enrollment.UserID, enrollment
	})

	return lo.Map(submissions, func(submission QuizSubmission, _ int) Grade {
		grade := Grade{
			UserID:         submission.UserID,
			Score:          submission.Score,
			PointsPossible: quiz.PointsPossible,
			Name:           unknown,
			LoginID:        unknown,
		}

		if quiz.PointsPossible != nil && *quiz.PointsPossible != 0 {
			score := 0.0
			if submission.Score != nil {
				score = *submission.Score
			}
			grade.Percentage = lo.ToPtr(fmt.Sprintf("%.2f", score / *quiz.PointsPossible * 100))
		}

		if student, ok := students[submission.UserID]; ok {
			if student.User.Name != "" {
				grade.Name = student.User.Name
			}
			if student.User.LoginID != "" {
				grade.LoginID = student.User.LoginID
			}
		}

		return grade
	})
}

// Files lists the files of a course.
func (c *Client) Files(ctx context.Context, courseID string) ([]File, error) {
	resources, err := list(ctx, c, "files", coursePath(courseID, "/files"), nil, decodeArray[fileResource])
	if err != nil {
		return nil, err
	}

	return lo.Map(resources, func(resource fileResource, _ int) File {
		return File(resource)
	}), nil
}

// Folders lists the folders of a course.
func (c *Client) Folders(ctx context.Context, courseID string) ([]Folder, error) {
	return list(ctx, c, "folders", coursePath(courseID, "/folders"), nil, decodeArray[Folder])
}

// Ping checks the token by reading the token user's profile.
func (c *Client) Ping(ctx context.Context) error {
	var profile struct {
		ID int64 `json:"id"`
	}

	return c.getJSON(ctx, "profile", "/users/self/profile", &profile)
}
