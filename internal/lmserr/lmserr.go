// Package lmserr defines the errors shared by the LMS adapters.
//
// Every adapter surfaces one of four kinds of failure: the upstream LMS failed
// (UpstreamError), the request was malformed (ValidationError), a referenced
// entity does not exist (NotFoundError) or no upstream credential is available
// (ErrAuthRequired). Use errors.As and errors.Is to tell them apart.
package lmserr

import (
	"errors"
	"fmt"
)

// ErrAuthRequired is returned when there is no valid upstream credential for the request.
var ErrAuthRequired = errors.New("authentication required")

// UpstreamError is returned when an upstream LMS responds with an exception
// envelope, a non-2xx status or an undecodable body, or cannot be reached.
type UpstreamError struct {
	Service    string // "moodle", "canvas" or "classroom"
	Function   string // the upstream function or path
	StatusCode int    // the HTTP status code, 0 if no response
	Message    string // the message reported by upstream
	Err        error  // the underlying error, if any
}

func (e *UpstreamError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}

	return fmt.Sprintf("%s %s: %s", e.Service, e.Function, msg)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// ValidationError is returned when a required request field is missing or malformed.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message == "" {
		return e.Field + " is required"
	}

	return e.Message
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError is returned when a referenced entity does not exist upstream.
type NotFoundError struct {
	Resource string // "Course", "Quiz", "User"
	ID       string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

// NewNotFoundError creates a NotFoundError for the given resource.
func NewNotFoundError(resource string, id any) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: fmt.Sprint(id)}
}

// IsUpstream reports whether err is (or wraps) an UpstreamError.
func IsUpstream(err error) bool {
	var upstreamErr *UpstreamError
	return errors.As(err, &upstreamErr)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var notFoundErr *NotFoundError
	return errors.As(err, &notFoundErr)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}
