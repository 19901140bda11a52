package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/learning-tokens/lms-connector/internal/moodle"
	"github.com/learning-tokens/lms-connector/internal/performance"
)

// CourseReport computes the performance of every student in a course.
// progress receives the number of finished attempt lookups and may be nil.
func (c *Context) CourseReport(ctx context.Context, courseID moodle.ID, progress func(done, total int)) (*performance.CoursePerformance, error) {
	var opts []performance.Option
	if progress != nil {
		opts = append(opts, performance.WithProgress(progress))
	}

	return c.aggregator.ComputeCoursePerformance(ctx, courseID, opts...)
}

// StudentReport computes the performance of one student in a course.
func (c *Context) StudentReport(ctx context.Context, userID, courseID moodle.ID) (*performance.StudentPerformance, error) {
	return c.aggregator.ComputeStudentPerformance(ctx, userID, courseID)
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
)

// FormatCourseReport renders the ranked students of a course report as a table.
func FormatCourseReport(report *performance.CoursePerformance) string {
	rows := make([][]string, 0, len(report.Students))
	for i, student := range report.Students {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			student.Name,
			student.Email,
			strconv.FormatFloat(student.Score, 'f', 2, 64),
			fmt.Sprintf("%d/%d", student.QuizzesTaken, report.Summary.TotalQuizzes),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "Name", "Email", "Score", "Quizzes").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	title := titleStyle.Render(fmt.Sprintf("%s (%s)", report.Course.Name, report.Course.ShortName))
	summary := fmt.Sprintf("Students: %d | Quizzes: %d | Average score: %.2f",
		report.Summary.TotalStudents, report.Summary.TotalQuizzes, report.Summary.AverageScore)

	out := title + "\n" + t.String() + "\n" + summary + "\n"
	if report.FailedLookups > 0 {
		out += fmt.Sprintf("Warning: %d attempt lookups failed and were counted as no attempts.\n", report.FailedLookups)
	}

	return out
}
