package moodle

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// SiteInfo returns the site and token user information.
func (c *Client) SiteInfo(ctx context.Context) (SiteInfo, error) {
	var info SiteInfo
	if err := c.Call(ctx, "core_webservice_get_site_info", nil, &info); err != nil {
		return SiteInfo{}, err
	}

	return info, nil
}

// Courses returns the courses with the given IDs, or every course when none is given.
func (c *Client) Courses(ctx context.Context, ids ...ID) ([]Course, error) {
	params := url.Values{}
	for i, id := range ids {
		params.Set(fmt.Sprintf("options[ids][%d]", i), id.String())
	}

	var courses []Course
	if err := c.Call(ctx, "core_course_get_courses", params, &courses); err != nil {
		return nil, err
	}

	return courses, nil
}

// EnrolledUsers returns the users enrolled in the course.
func (c *Client) EnrolledUsers(ctx context.Context, courseID ID) ([]User, error) {
	params := url.Values{}
	params.Set("courseid", courseID.String())

	var users []User
	if err := c.Call(ctx, "core_enrol_get_enrolled_users", params, &users); err != nil {
		return nil, err
	}

	return users, nil
}

// UserByID returns the user with the given ID. ok is false when there is no such user.
func (c *Client) UserByID(ctx context.Context, userID ID) (user User, ok bool, err error) {
	params := url.Values{}
	params.Set("field", "id")
	params.Set("values[0]", userID.String())

	var users []User
	if err := c.Call(ctx, "core_user_get_users_by_field", params, &users); err != nil {
		return User{}, false, err
	}
	if len(users) == 0 {
		return User{}, false, nil
	}

	return users[0], true, nil
}

// QuizzesByCourses returns the quizzes of the given courses.
func (c *Client) QuizzesByCourses(ctx context.Context, courseIDs ...ID) ([]Quiz, error) {
	params := url.Values{}
	for i, id := range courseIDs {
		params.Set(fmt.Sprintf("courseids[%d]", i), id.String())
	}

	var resp quizzesResponse
	if err := c.Call(ctx, "mod_quiz_get_quizzes_by_courses", params, &resp); err != nil {
		return nil, err
	}

	return resp.Quizzes, nil
}

// UserAttempts returns the attempts of a user at a quiz, in every state.
//
// A zero userID lists the attempts of the token user.
func (c *Client) UserAttempts(ctx context.Context, quizID, userID ID) ([]Attempt, error) {
	params := url.Values{}
	params.Set("quizid", quizID.String())
	if userID != 0 {
		params.Set("userid", userID.String())
	}
	params.Set("status", "all")

	var resp attemptsResponse
	if err := c.Call(ctx, "mod_quiz_get_user_attempts", params, &resp); err != nil {
		return nil, err
	}

	return resp.Attempts, nil
}

// AttemptData returns every question of the attempt, with the recorded responses.
func (c *Client) AttemptData(ctx context.Context, attemptID ID) (AttemptData, error) {
	params := url.Values{}
	params.Set("attemptid", attemptID.String())
	params.Set("page", strconv.Itoa(-1))

	var data AttemptData
	if err := c.Call(ctx, "mod_quiz_get_attempt_data", params, &data); err != nil {
		return AttemptData{}, err
	}

	return data, nil
}

// AttemptReview returns the review of a finished attempt.
func (c *Client) AttemptReview(ctx context.Context, attemptID ID) (AttemptReview, error) {
	params := url.Values{}
	params.Set("attemptid", attemptID.String())

	var review AttemptReview
	if err := c.Call(ctx, "mod_quiz_get_attempt_review", params, &review); err != nil {
		return AttemptReview{}, err
	}

	return review, nil
}
