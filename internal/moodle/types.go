package moodle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Float is a number that Moodle may encode as a JSON number, a numeric string or null.
//
// Unparsable strings decode to 0.
type Float float64

func (f *Float) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}

		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			*f = 0
			return nil
		}

		*f = Float(v)
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("moodle: decode float: %w", err)
	}

	*f = Float(v)
	return nil
}

// Value returns the float64 value, or fallback when f is nil or zero.
func (f *Float) Value(fallback float64) float64 {
	if f == nil || *f == 0 {
		return fallback
	}

	return float64(*f)
}

// ID is a Moodle identifier that may be encoded as a JSON number or a numeric string.
type ID int64

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			return nil
		}

		v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return fmt.Errorf("moodle: decode id %q: %w", s, err)
		}

		*id = ID(v)
		return nil
	}

	var v int64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("moodle: decode id: %w", err)
	}

	*id = ID(v)
	return nil
}

func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Text is a value that Moodle may encode as a JSON string, a number or a boolean.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}

		*t = Text(s)
		return nil
	}

	*t = Text(data)
	return nil
}

// SiteInfo is the response of core_webservice_get_site_info.
type SiteInfo struct {
	SiteName  string `json:"sitename"`
	SiteURL   string `json:"siteurl"`
	Username  string `json:"username"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	FullName  string `json:"fullname"`
	UserID    ID     `json:"userid"`
	Release   string `json:"release"`
	Version   string `json:"version"`
}

// SiteCourseID is the ID of the front page course that every Moodle site has.
const SiteCourseID ID = 1

// Course is a Moodle course.
type Course struct {
	ID         ID     `json:"id"`
	FullName   string `json:"fullname"`
	ShortName  string `json:"shortname"`
	CategoryID ID     `json:"categoryid"`
	Summary    string `json:"summary"`
	Format     string `json:"format"`
	StartDate  int64  `json:"startdate"`
	EndDate    int64  `json:"enddate"`
	Visible    int    `json:"visible"`
}

// Role is a role assigned to an enrolled user.
type Role struct {
	RoleID    ID     `json:"roleid"`
	Name      string `json:"name"`
	ShortName string `json:"shortname"`
}

// User is a Moodle user, as returned by the enrolment and user functions.
type User struct {
	ID        ID     `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	FullName  string `json:"fullname"`
	Email     string `json:"email"`
	Roles     []Role `json:"roles,omitempty"`
}

// Quiz is a quiz activity of a course.
type Quiz struct {
	ID           ID     `json:"id"`
	Course       ID     `json:"course"`
	CourseModule ID     `json:"coursemodule"`
	Name         string `json:"name"`
	Intro        string `json:"intro"`
	TimeLimit    int64  `json:"timelimit"`
	Grade        *Float `json:"grade"`
	SumGrades    *Float `json:"sumgrades"`
}

// Attempt is one try of a user at a quiz.
type Attempt struct {
	ID         ID     `json:"id"`
	Quiz       ID     `json:"quiz"`
	UserID     ID     `json:"userid"`
	Attempt    int    `json:"attempt"`
	UniqueID   ID     `json:"uniqueid"`
	State      string `json:"state"`
	TimeStart  int64  `json:"timestart"`
	TimeFinish int64  `json:"timefinish"`
	SumGrades  *Float `json:"sumgrades"`
	Grade      *Float `json:"grade,omitempty"`
}

// Answer is an answer option of a question.
type Answer struct {
	ID       ID     `json:"id"`
	Answer   string `json:"answer"`
	Text     string `json:"text"`
	Fraction *Float `json:"fraction"`
	Feedback string `json:"feedback"`
}

// Question is a question of an attempt, as returned by
// mod_quiz_get_attempt_data and mod_quiz_get_attempt_review.
type Question struct {
	ID              ID       `json:"id"`
	Slot            int      `json:"slot"`
	Number          int      `json:"number"`
	Name            string   `json:"name"`
	QuestionText    string   `json:"questiontext"`
	QType           string   `json:"qtype"`
	Type            string   `json:"type"`
	Answers         []Answer `json:"answers"`
	Response        Text     `json:"response"`
	Mark            *Float   `json:"mark"`
	MaxMark         *Float   `json:"maxmark"`
	Feedback        string   `json:"feedback"`
	GeneralFeedback string   `json:"generalfeedback"`
	State           string   `json:"state"`
	Flagged         bool     `json:"flagged"`
}

// QuestionType returns the raw question type, preferring qtype over type.
func (q Question) QuestionType() string {
	if q.QType != "" {
		return q.QType
	}

	return q.Type
}

// AttemptData is the response of mod_quiz_get_attempt_data.
type AttemptData struct {
	Attempt   Attempt    `json:"attempt"`
	Questions []Question `json:"questions"`
}

// AttemptReview is the response of mod_quiz_get_attempt_review.
type AttemptReview struct {
	Grade     Text       `json:"grade"`
	Attempt   Attempt    `json:"attempt"`
	Questions []Question `json:"questions"`
}

type quizzesResponse struct {
	Quizzes []Quiz `json:"quizzes"`
}

type attemptsResponse struct {
	Attempts []Attempt `json:"attempts"`
}

// exceptionEnvelope is the error body Moodle returns, usually with status 200.
type exceptionEnvelope struct {
	Exception string `json:"exception"`
	ErrorCode string `json:"errorcode"`
	Message   string `json:"message"`
}

func (e exceptionEnvelope) message() string {
	msg := e.Message
	if msg == "" {
		msg = e.Exception
	}
	if e.ErrorCode != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.ErrorCode)
	}

	return msg
}
