package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoriesSurviveWrapping(t *testing.T) {
	wrapped := fmt.Errorf("creating student: %w", ErrStudentIDAlreadyExists)

	assert.ErrorIs(t, wrapped, ErrStudentIDAlreadyExists)
	assert.ErrorIs(t, wrapped, ErrConflict)
	assert.NotErrorIs(t, wrapped, ErrValidationFailed)

	var custom *CustomError
	assert.True(t, errors.As(wrapped, &custom))
	assert.Equal(t, "studentId", custom.Field)
}

func TestStoreErrorIsStoreFailureNotNotFound(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("listing students: %w", NewStoreError("list students", cause))

	assert.ErrorIs(t, err, ErrStoreFailure)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrResourceNotFound)
	assert.Equal(t, "listing students: store list students: connection refused", err.Error())
}

func TestNewValidationErrors(t *testing.T) {
	err := NewValidationErrors([]Violation{
		{Field: "email", Message: "email must be a valid email address"},
		{Field: "name", Message: "name is required"},
	})

	assert.ErrorIs(t, err, ErrValidationFailed)
	assert.Equal(t, "email must be a valid email address", err.Error())
	assert.Len(t, err.Violations, 2)

	assert.Equal(t, "Validation failed", NewValidationErrors(nil).Error())
}

func TestIs(t *testing.T) {
	assert.True(t, Is(ErrCourseNotFound, ErrConflict, ErrResourceNotFound))
	assert.False(t, Is(ErrCourseNotFound, ErrConflict, ErrBadRequest))
}
