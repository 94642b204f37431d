package dto

// ErrorCode represents standardized error codes
type ErrorCode string

// Error codes attached to field-level failures
const (
	ErrorCodeResourceAlreadyExists ErrorCode = "RES_002"
	ErrorCodeValidationFailed      ErrorCode = "VAL_001"
)

// ErrorDetail describes one failing field
type ErrorDetail struct {
	Code    ErrorCode `json:"code" example:"VAL_001"`
	Field   string    `json:"field,omitempty" example:"studentId"`
	Message string    `json:"message" example:"Student ID must be at least 5 characters long"`
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Message string        `json:"message" example:"Student not found"`
	Errors  []ErrorDetail `json:"errors,omitempty"`
}

// NewErrorResponse creates an error body with a single message
func NewErrorResponse(message string) *ErrorResponse {
	return &ErrorResponse{Message: message}
}

// WithError appends a field-level detail
func (r *ErrorResponse) WithError(code ErrorCode, field, message string) *ErrorResponse {
	r.Errors = append(r.Errors, ErrorDetail{
		Code:    code,
		Field:   field,
		Message: message,
	})
	return r
}
