package apperrors

import (
	"errors"
	"fmt"
)

// Error categories. Every error returned across the API boundary matches
// exactly one of these through errors.Is.
var (
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")
	ErrResourceNotFound = errors.New("resource not found")
	ErrConflict         = errors.New("conflict")
	ErrStoreFailure     = errors.New("store failure")
)

// Student errors
var (
	ErrStudentNotFound        = NewResourceNotFoundError("Student not found")
	ErrStudentIDAlreadyExists = NewConflictError("Student ID already exists").WithField("studentId")
	ErrInvalidStudentID       = NewValidationError("studentId", "Student ID must be at least 5 characters long")
	ErrStudentIDTooLong       = NewValidationError("studentId", "Student ID must be at most 20 characters long")
)

// Account errors
var (
	ErrAccountNotFound       = NewResourceNotFoundError("Account not found")
	ErrUsernameAlreadyExists = NewConflictError("Username already exists").WithField("username")
)

// Course errors
var (
	ErrCourseNotFound = NewResourceNotFoundError("Course not found")
)

// Violation is a single field-level validation failure
type Violation struct {
	Field   string
	Message string
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err        error
	Message    string
	Field      string
	Violations []Violation
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

// WithField names the request field the error is about
func (e *CustomError) WithField(field string) *CustomError {
	e.Field = field
	return e
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// NewResourceNotFoundError creates a new custom error for resource not found with a message
func NewResourceNotFoundError(message string) *CustomError {
	return NewCustomError(ErrResourceNotFound, message)
}

// NewConflictError creates a new custom error for conflict situations with a message
func NewConflictError(message string) *CustomError {
	return NewCustomError(ErrConflict, message)
}

// NewBadRequestError creates a new custom error for bad request with a message
func NewBadRequestError(message string) *CustomError {
	return NewCustomError(ErrBadRequest, message)
}

// NewValidationError reports a single invalid field
func NewValidationError(field, message string) *CustomError {
	return &CustomError{
		Err:        ErrValidationFailed,
		Message:    message,
		Field:      field,
		Violations: []Violation{{Field: field, Message: message}},
	}
}

// NewValidationErrors reports several invalid fields at once. The first
// violation becomes the error message.
func NewValidationErrors(violations []Violation) *CustomError {
	message := "Validation failed"
	if len(violations) > 0 {
		message = violations[0].Message
	}
	return &CustomError{
		Err:        ErrValidationFailed,
		Message:    message,
		Violations: violations,
	}
}

// StoreError wraps a structural backend failure (unreachable database,
// unscannable row). It matches ErrStoreFailure and never ErrResourceNotFound.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is reports ErrStoreFailure as a match in addition to the wrapped chain.
func (e *StoreError) Is(target error) bool {
	return target == ErrStoreFailure
}

// NewStoreError wraps err as a store failure for operation op.
func NewStoreError(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}

// Is returns whether target matches any of the errors in errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}

	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}
