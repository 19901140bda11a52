package main

import (
	"context"
	"errors"
	"log"
	"os"

	lmscli "github.com/learning-tokens/lms-connector/cli"
	"github.com/learning-tokens/lms-connector/internal/deps"
	"github.com/learning-tokens/lms-connector/internal/moodle"
)

func main() {
	cfg, err := deps.Config()
	if err != nil {
		log.Fatal(err)
	}

	if !cfg.Moodle.Enabled() {
		log.Fatal(errors.New("the admin CLI needs MOODLE_URL and MOODLE_TOKEN"))
	}

	c := lmscli.NewContext(moodle.NewClient(cfg.Moodle), cfg.Moodle.Concurrency)

	testConnectionCommand := newTestConnectionCommand(c)
	courseReportCommand := newCourseReportCommand(c)
	studentReportCommand := newStudentReportCommand(c)

	rootCommand := newRootCommand(testConnectionCommand, courseReportCommand, studentReportCommand)

	if err := rootCommand.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
