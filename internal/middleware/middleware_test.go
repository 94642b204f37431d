package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/techroom/internal/app/models/dto"
	"github.com/yigit/techroom/internal/pkg/apperrors"
	"github.com/yigit/techroom/internal/pkg/validation"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serveError(err error) (*httptest.ResponseRecorder, dto.ErrorResponse) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/students/1", nil)

	HandleAPIError(c, err)

	var resp dto.ErrorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	return rec, resp
}

func TestHandleAPIError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "store failure",
			err:         fmt.Errorf("getting student: %w", apperrors.NewStoreError("get student", errors.New("pq: password authentication failed"))),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "Internal server error",
		},
		{
			name:        "validation",
			err:         apperrors.ErrInvalidStudentID,
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Student ID must be at least 5 characters long",
		},
		{
			name:        "bad request",
			err:         apperrors.NewBadRequestError("Invalid student ID format"),
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Invalid student ID format",
		},
		{
			name:        "not found",
			err:         fmt.Errorf("lookup: %w", apperrors.ErrStudentNotFound),
			wantStatus:  http.StatusNotFound,
			wantMessage: "Student not found",
		},
		{
			name:        "conflict",
			err:         apperrors.ErrStudentIDAlreadyExists,
			wantStatus:  http.StatusConflict,
			wantMessage: "Student ID already exists",
		},
		{
			name:        "unknown",
			err:         errors.New("something odd"),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := serveError(tt.err)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantMessage, resp.Message)
			assert.NotContains(t, rec.Body.String(), "pq:")
		})
	}
}

func TestHandleAPIError_FieldDetails(t *testing.T) {
	_, resp := serveError(apperrors.NewValidationErrors([]apperrors.Violation{
		{Field: "email", Message: "email must be a valid email address"},
		{Field: "name", Message: "name is required"},
	}))
	require.Len(t, resp.Errors, 2)
	assert.Equal(t, dto.ErrorDetail{Code: dto.ErrorCodeValidationFailed, Field: "email", Message: "email must be a valid email address"}, resp.Errors[0])
	assert.Equal(t, "name", resp.Errors[1].Field)

	_, resp = serveError(apperrors.ErrUsernameAlreadyExists)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, dto.ErrorCodeResourceAlreadyExists, resp.Errors[0].Code)
	assert.Equal(t, "username", resp.Errors[0].Field)

	_, resp = serveError(apperrors.ErrStudentNotFound)
	assert.Empty(t, resp.Errors)
}

type bindTarget struct {
	StudentID string `json:"studentId" binding:"required,studentid"`
	Email     string `json:"email" binding:"required,email"`
	Count     int    `json:"count" binding:"omitempty,gt=0"`
}

func TestBindJSON(t *testing.T) {
	require.NoError(t, validation.RegisterWithGin())

	tests := []struct {
		name        string
		body        string
		wantOK      bool
		wantMessage string
		wantField   string
	}{
		{name: "valid", body: `{"studentId":"S12345","email":"a@b.edu"}`, wantOK: true},
		{name: "short student id", body: `{"studentId":"S999","email":"a@b.edu"}`, wantMessage: "Student ID must be at least 5 characters long", wantField: "studentId"},
		{name: "long student id", body: `{"studentId":"S12345678901234567890","email":"a@b.edu"}`, wantMessage: "Student ID must be at most 20 characters long", wantField: "studentId"},
		{name: "missing", body: `{"email":"a@b.edu"}`, wantMessage: "studentId is required", wantField: "studentId"},
		{name: "gt", body: `{"studentId":"S12345","email":"a@b.edu","count":-1}`, wantMessage: "count must be greater than 0", wantField: "count"},
		{name: "type mismatch", body: `{"studentId":"S12345","email":"a@b.edu","count":"many"}`, wantMessage: "count must be of type int", wantField: "count"},
		{name: "syntax", body: `{"studentId"`, wantMessage: "Invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")

			var target bindTarget
			ok := BindJSON(c, &target)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, "S12345", target.StudentID)
				return
			}

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var resp dto.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantMessage, resp.Message)
			require.NotEmpty(t, resp.Errors)
			assert.Equal(t, tt.wantField, resp.Errors[0].Field)
		})
	}
}

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID(), RequestLogger(), Recovery())
	router.GET("/echo", func(c *gin.Context) {
		c.String(http.StatusOK, RequestIDFrom(c))
	})
	router.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/echo", nil))
	generated := rec.Header().Get(RequestIDHeader)
	assert.NotEmpty(t, generated)
	assert.Equal(t, generated, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/echo", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "req-123", rec.Header().Get(RequestIDHeader))
	assert.Equal(t, "req-123", rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Internal server error"}`, rec.Body.String())
}
