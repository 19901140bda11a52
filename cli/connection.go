package cli

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"github.com/learning-tokens/lms-connector/internal/moodle"
)

// ConnectionResult is the site behind the configured token and the courses it can see.
type ConnectionResult struct {
	Site    moodle.SiteInfo
	Courses []moodle.Course // without the site course
}

// TestConnection reads the site information and the course list.
func (c *Context) TestConnection(ctx context.Context) (*ConnectionResult, error) {
	site, err := c.moodle.SiteInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("get site info: %w", err)
	}

	courses, err := c.moodle.Courses(ctx)
	if err != nil {
		return nil, fmt.Errorf("get courses: %w", err)
	}

	return &ConnectionResult{
		Site: site,
		Courses: lo.Filter(courses, func(course moodle.Course, _ int) bool {
			return course.ID != moodle.SiteCourseID
		}),
	}, nil
}
