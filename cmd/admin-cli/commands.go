package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	lmscli "github.com/learning-tokens/lms-connector/cli"
	"github.com/learning-tokens/lms-connector/internal/moodle"
	"github.com/learning-tokens/lms-connector/internal/performance"
)

// maxListedCourses is the number of courses printed by test-connection.
const maxListedCourses = 5

func newTestConnectionCommand(clictx *lmscli.Context) *cli.Command {
	return &cli.Command{
		Name:  "test-connection",
		Usage: "Check the Moodle token and list the visible courses",
		Action: func(ctx context.Context, c *cli.Command) error {
			fmt.Println("Connecting to Moodle…")

			result, err := clictx.TestConnection(ctx)
			if err != nil {
				return err
			}

			fmt.Println("✅ Connected!")
			fmt.Println()
			fmt.Printf("Site:    %s\n", result.Site.SiteName)
			fmt.Printf("Version: %s\n", result.Site.Release)
			fmt.Printf("User:    %s\n", result.Site.Username)
			fmt.Printf("Courses: %d\n", len(result.Courses))

			for i, course := range result.Courses {
				if i == maxListedCourses {
					fmt.Printf("  … and %d more\n", len(result.Courses)-maxListedCourses)
					break
				}
				fmt.Printf("  - [%d] %s (%s)\n", course.ID, course.FullName, course.ShortName)
			}

			return nil
		},
	}
}

func newCourseReportCommand(clictx *lmscli.Context) *cli.Command {
	return &cli.Command{
		Name:  "course-report",
		Usage: "Rank the students of a course by their average best-attempt score",
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:     "course-id",
				Usage:    "The Moodle ID of the course.",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the report as JSON instead of a table.",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			courseID := moodle.ID(c.Int64("course-id"))

			if c.Bool("json") {
				report, err := clictx.CourseReport(ctx, courseID, nil)
				if err != nil {
					return err
				}
				return printJSON(report)
			}

			var report *performance.CoursePerformance
			err := lmscli.RunWithProgress(ctx, os.Stderr, fmt.Sprintf("Computing the performance of course %d", courseID),
				func(ctx context.Context, progress func(done, total int)) (err error) {
					report, err = clictx.CourseReport(ctx, courseID, progress)
					return err
				},
			)
			if err != nil {
				return err
			}

			fmt.Print(lmscli.FormatCourseReport(report))
			return nil
		},
	}
}

func newStudentReportCommand(clictx *lmscli.Context) *cli.Command {
	return &cli.Command{
		Name:  "student-report",
		Usage: "Print the performance of a student in a course as JSON",
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:     "user-id",
				Usage:    "The Moodle ID of the student.",
				Required: true,
			},
			&cli.Int64Flag{
				Name:     "course-id",
				Usage:    "The Moodle ID of the course.",
				Required: true,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			report, err := clictx.StudentReport(ctx, moodle.ID(c.Int64("user-id")), moodle.ID(c.Int64("course-id")))
			if err != nil {
				return err
			}

			return printJSON(report)
		},
	}
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	fmt.Println(string(out))
	return nil
}

func newRootCommand(subcommands ...*cli.Command) *cli.Command {
	return &cli.Command{
		Name:     "admin-cli",
		Usage:    "A CLI tool for inspecting the Moodle site behind the LMS connector.",
		Commands: subcommands,
	}
}
