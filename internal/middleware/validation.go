package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/yigit/techroom/internal/pkg/apperrors"
	"github.com/yigit/techroom/internal/pkg/validation"
)

// BindJSON binds and validates the request body into obj. On failure it
// writes a 400 response and returns false.
func BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		HandleAPIError(c, bindingError(err))
		return false
	}
	return true
}

// bindingError converts gin binding failures into validation errors
func bindingError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		violations := make([]apperrors.Violation, 0, len(validationErrs))
		for _, fe := range validationErrs {
			violations = append(violations, apperrors.Violation{
				Field:   fe.Field(),
				Message: formatValidationError(fe),
			})
		}
		return apperrors.NewValidationErrors(violations)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return apperrors.NewValidationError(typeErr.Field,
			fmt.Sprintf("%s must be of type %s", typeErr.Field, typeErr.Type.String()))
	}

	return apperrors.NewValidationErrors([]apperrors.Violation{{Message: "Invalid request body"}})
}

// formatValidationError creates a human-readable validation error message
func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case validation.StudentIDTag:
		value, _ := e.Value().(string)
		if utf8.RuneCountInString(value) > validation.StudentIDMaxLength {
			return fmt.Sprintf("Student ID must be at most %d characters long", validation.StudentIDMaxLength)
		}
		return fmt.Sprintf("Student ID must be at least %d characters long", validation.StudentIDMinLength)
	case "min":
		return e.Field() + " must be at least " + e.Param() + " characters long"
	case "max":
		return e.Field() + " must be at most " + e.Param() + " characters long"
	case "gt":
		return e.Field() + " must be greater than " + e.Param()
	case "email":
		return e.Field() + " must be a valid email address"
	case "oneof":
		return e.Field() + " must be one of: " + e.Param()
	default:
		return e.Field() + " validation failed: " + e.Tag()
	}
}
