package apperrors

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// Resource errors
	ErrResourceNotFound      = errors.New("resource not found")
	ErrResourceAlreadyExists = errors.New("resource already exists")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account is disabled")

	// Authorization errors
	ErrPermissionDenied = errors.New("permission denied")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")

	// Side effects
	ErrNotificationFailed = errors.New("notification could not be delivered")
)

// Research tracker errors
var (
	ErrRegNoAlreadyExists   = errors.New("registration number already exists")
	ErrTopicTaken           = errors.New("this research topic has already been assigned to another student")
	ErrFacultyAlreadyExists = errors.New("faculty with this short code already exists")
	ErrEmailAlreadyExists   = errors.New("email already exists")
)

// Election errors
var (
	ErrAlreadyVoted = errors.New("already voted for this position")
	ErrEmptyBallot  = errors.New("no candidate selected")
)

// NewResourceNotFoundError creates a new custom error for resource not found with a message
func NewResourceNotFoundError(message string) error {
	return &CustomError{
		Err:     ErrResourceNotFound,
		Message: message,
	}
}

// NewForbiddenError creates a new custom error for permission denied with a message
func NewForbiddenError(message string) error {
	return &CustomError{
		Err:     ErrPermissionDenied,
		Message: message,
	}
}

// NewBadRequestError creates a new custom error for bad request with a message
func NewBadRequestError(message string) error {
	return &CustomError{
		Err:     ErrBadRequest,
		Message: message,
	}
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// FieldError is a validation failure attached to one form field.
// An empty Field means the error belongs to the form as a whole.
type FieldError struct {
	Field   string
	Message string
	Err     error
}

// NewFieldError creates a FieldError wrapping ErrValidationFailed
func NewFieldError(field, message string) *FieldError {
	return &FieldError{Field: field, Message: message, Err: ErrValidationFailed}
}

func (e *FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// FieldErrors collects every field error of one form submission
type FieldErrors []*FieldError

func (fe FieldErrors) Error() string {
	if len(fe) == 0 {
		return ErrValidationFailed.Error()
	}
	return fe[0].Error()
}

// Unwrap exposes ErrValidationFailed and every field error, so errors.Is
// also matches the cause recorded on a single field.
func (fe FieldErrors) Unwrap() []error {
	errs := make([]error, 0, len(fe)+1)
	errs = append(errs, ErrValidationFailed)
	for _, e := range fe {
		errs = append(errs, e)
	}
	return errs
}

// ByField indexes the messages by field name for template rendering
func (fe FieldErrors) ByField() map[string]string {
	out := make(map[string]string, len(fe))
	for _, e := range fe {
		if _, ok := out[e.Field]; !ok {
			out[e.Field] = e.Message
		}
	}
	return out
}

// AlreadyVotedError names the position a ballot was rejected for
type AlreadyVotedError struct {
	PositionID    int64
	PositionTitle string
}

func (e *AlreadyVotedError) Error() string {
	if e.PositionTitle != "" {
		return fmt.Sprintf("You have already voted for the position: %s.", e.PositionTitle)
	}
	return fmt.Sprintf("You have already voted for position %d.", e.PositionID)
}

func (e *AlreadyVotedError) Unwrap() error {
	return ErrAlreadyVoted
}
