package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yigit/techroom/internal/app/controllers"
	"github.com/yigit/techroom/internal/app/models"
	"github.com/yigit/techroom/internal/app/models/dto"
	"github.com/yigit/techroom/internal/app/repositories"
	"github.com/yigit/techroom/internal/app/repositories/memory"
	"github.com/yigit/techroom/internal/app/routes"
	"github.com/yigit/techroom/internal/app/services"
	"github.com/yigit/techroom/internal/pkg/apperrors"
	"github.com/yigit/techroom/internal/pkg/auth"
	"github.com/yigit/techroom/internal/pkg/validation"
)

func newRouter(t *testing.T, store repositories.RecordStore) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, validation.RegisterWithGin())

	router := gin.New()
	routes.SetupRouter(router, controllers.NewControllers(services.NewServices(store)))
	return router
}

func newMemoryRouter(t *testing.T) *gin.Engine {
	return newRouter(t, memory.NewStore(auth.NewPasswordHasher(bcrypt.MinCost)))
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

var johnDoe = map[string]string{
	"name":       "John Doe",
	"studentId":  "S12345678",
	"email":      "john.doe@university.edu",
	"department": "Computer Science",
}

func TestStudentLifecycle(t *testing.T) {
	router := newMemoryRouter(t)

	rec := do(t, router, http.MethodPost, "/api/students", johnDoe)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[models.Student](t, rec)
	assert.Positive(t, created.ID)
	assert.Equal(t, "S12345678", created.StudentID)

	path := "/api/students/" + jsonID(created.ID) + "/update-student-id"

	rec = do(t, router, http.MethodPatch, path, map[string]string{"studentId": "S999"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	errResp := decode[dto.ErrorResponse](t, rec)
	assert.Equal(t, "Student ID must be at least 5 characters long", errResp.Message)
	require.Len(t, errResp.Errors, 1)
	assert.Equal(t, "studentId", errResp.Errors[0].Field)
	assert.Equal(t, dto.ErrorCodeValidationFailed, errResp.Errors[0].Code)

	rec = do(t, router, http.MethodPatch, path, map[string]string{"studentId": "S99999999"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[models.Student](t, rec)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "S99999999", updated.StudentID)

	rec = do(t, router, http.MethodGet, "/api/students/"+jsonID(created.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "S99999999", decode[models.Student](t, rec).StudentID)

	second := map[string]string{
		"name":       "Jane Roe",
		"studentId":  "S99999999",
		"email":      "jane.roe@university.edu",
		"department": "Physics",
	}
	rec = do(t, router, http.MethodPost, "/api/students", second)
	require.Equal(t, http.StatusConflict, rec.Code)
	errResp = decode[dto.ErrorResponse](t, rec)
	assert.Equal(t, "Student ID already exists", errResp.Message)
	require.Len(t, errResp.Errors, 1)
	assert.Equal(t, dto.ErrorCodeResourceAlreadyExists, errResp.Errors[0].Code)
	assert.Equal(t, "studentId", errResp.Errors[0].Field)

	rec = do(t, router, http.MethodGet, "/api/students", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Student](t, rec), 1)
}

func TestListStudents_EmptyIsArray(t *testing.T) {
	router := newMemoryRouter(t)

	rec := do(t, router, http.MethodGet, "/api/students", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCreateStudent_Validation(t *testing.T) {
	router := newMemoryRouter(t)

	tests := []struct {
		name      string
		body      any
		wantField string
	}{
		{
			name:      "missing name",
			body:      map[string]string{"studentId": "S12345", "email": "a@b.edu", "department": "Physics"},
			wantField: "name",
		},
		{
			name:      "bad email",
			body:      map[string]string{"studentId": "S12345", "name": "A", "email": "not-an-email", "department": "Physics"},
			wantField: "email",
		},
		{
			name:      "student id too long",
			body:      map[string]string{"studentId": "S123456789012345678901", "name": "A", "email": "a@b.edu", "department": "Physics"},
			wantField: "studentId",
		},
		{
			name:      "wrong type",
			body:      map[string]any{"studentId": 12345, "name": "A", "email": "a@b.edu", "department": "Physics"},
			wantField: "studentId",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/api/students", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			errResp := decode[dto.ErrorResponse](t, rec)
			require.NotEmpty(t, errResp.Errors)
			assert.Equal(t, tt.wantField, errResp.Errors[0].Field)
		})
	}

	rec := do(t, router, http.MethodGet, "/api/students", nil)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCreateStudent_MalformedBody(t *testing.T) {
	router := newMemoryRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/students", bytes.NewBufferString(`{"studentId":`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body", decode[dto.ErrorResponse](t, rec).Message)
}

func TestStudentByID_Errors(t *testing.T) {
	router := newMemoryRouter(t)

	tests := []struct {
		name    string
		method  string
		path    string
		body    any
		status  int
		message string
	}{
		{"non-numeric id", http.MethodGet, "/api/students/abc", nil, http.StatusBadRequest, "Invalid student ID format"},
		{"zero id", http.MethodGet, "/api/students/0", nil, http.StatusBadRequest, "Invalid student ID format"},
		{"unknown id", http.MethodGet, "/api/students/42", nil, http.StatusNotFound, "Student not found"},
		{"update unknown", http.MethodPatch, "/api/students/42/update-student-id", map[string]string{"studentId": "S55555"}, http.StatusNotFound, "Student not found"},
		{"update bad id", http.MethodPatch, "/api/students/x/update-student-id", map[string]string{"studentId": "S55555"}, http.StatusBadRequest, "Invalid student ID format"},
		{"courses of unknown", http.MethodGet, "/api/students/42/courses", nil, http.StatusNotFound, "Student not found"},
		{"unknown route", http.MethodGet, "/api/nothing-here", nil, http.StatusNotFound, "Route not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, tt.method, tt.path, tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.message, decode[dto.ErrorResponse](t, rec).Message)
		})
	}
}

func TestAccounts(t *testing.T) {
	router := newMemoryRouter(t)

	rec := do(t, router, http.MethodPost, "/api/accounts", map[string]string{"username": "jdoe", "password": "secret-pass"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "password")
	account := decode[dto.AccountResponse](t, rec)
	assert.Equal(t, models.RoleStudent, account.Role)
	assert.False(t, account.CreatedAt.IsZero())

	rec = do(t, router, http.MethodGet, "/api/users/"+jsonID(account.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "jdoe", decode[dto.AccountResponse](t, rec).Username)

	rec = do(t, router, http.MethodPost, "/api/users", map[string]string{"username": "jdoe", "password": "another-pass"})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Username already exists", decode[dto.ErrorResponse](t, rec).Message)

	rec = do(t, router, http.MethodPost, "/api/accounts", map[string]string{"username": "root", "password": "secret-pass", "role": "superuser"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/accounts/99", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Account not found", decode[dto.ErrorResponse](t, rec).Message)
}

func TestCoursesAndEnrollment(t *testing.T) {
	router := newMemoryRouter(t)

	rec := do(t, router, http.MethodPost, "/api/students", johnDoe)
	require.Equal(t, http.StatusCreated, rec.Code)
	student := decode[models.Student](t, rec)

	rec = do(t, router, http.MethodPost, "/api/courses", map[string]string{"name": "Distributed Systems", "code": "CS401", "room": "B-204"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	course := decode[models.Course](t, rec)
	assert.Empty(t, course.Students)

	enroll := map[string]int64{"studentRecordId": student.ID}
	path := "/api/courses/" + jsonID(course.ID) + "/enrollments"

	for range 2 {
		rec = do(t, router, http.MethodPost, path, enroll)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, []int64{student.ID}, decode[models.Course](t, rec).Students)
	}

	rec = do(t, router, http.MethodGet, "/api/students/"+jsonID(student.ID)+"/courses", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	courses := decode[[]models.Course](t, rec)
	require.Len(t, courses, 1)
	assert.Equal(t, "CS401", courses[0].Code)

	rec = do(t, router, http.MethodGet, "/api/students/"+jsonID(student.ID), nil)
	assert.Equal(t, []int64{course.ID}, decode[models.Student](t, rec).Courses)

	rec = do(t, router, http.MethodPost, path, map[string]int64{"studentRecordId": student.ID + 100})
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Student not found", decode[dto.ErrorResponse](t, rec).Message)

	rec = do(t, router, http.MethodPost, "/api/courses/77/enrollments", enroll)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Course not found", decode[dto.ErrorResponse](t, rec).Message)

	rec = do(t, router, http.MethodGet, "/api/courses", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Course](t, rec), 1)
}

func TestAnnouncements(t *testing.T) {
	router := newMemoryRouter(t)

	rec := do(t, router, http.MethodPost, "/api/announcements", map[string]string{
		"title": "Older", "content": "First", "date": "2025-01-01T09:00:00Z",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodPost, "/api/announcements", map[string]string{"title": "Newer", "content": "Second"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/api/announcements", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]models.Announcement](t, rec)
	require.Len(t, list, 2)
	assert.Equal(t, "Newer", list[0].Title)
	assert.Equal(t, "Older", list[1].Title)
}

func TestHealthAndPing(t *testing.T) {
	router := newMemoryRouter(t)

	rec := do(t, router, http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())

	rec = do(t, router, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	down := newRouter(t, brokenStore{})
	rec = do(t, down, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"unavailable"}`, rec.Body.String())
}

func TestStoreFailureIsGeneric500(t *testing.T) {
	router := newRouter(t, brokenStore{})

	for _, path := range []string{"/api/students", "/api/students/1"} {
		rec := do(t, router, http.MethodGet, path, nil)
		require.Equal(t, http.StatusInternalServerError, rec.Code, path)
		assert.Equal(t, "Internal server error", decode[dto.ErrorResponse](t, rec).Message)
		assert.NotContains(t, rec.Body.String(), "connection refused")
	}
}

// brokenStore answers the calls used above with a backend failure.
type brokenStore struct {
	repositories.RecordStore
}

var errConnRefused = errors.New("dial tcp 127.0.0.1:5432: connection refused")

func (brokenStore) ListStudents(ctx context.Context) ([]*models.Student, error) {
	return nil, apperrors.NewStoreError("list students", errConnRefused)
}

func (brokenStore) GetStudent(ctx context.Context, id int64) (*models.Student, error) {
	return nil, apperrors.NewStoreError("get student", errConnRefused)
}

func (brokenStore) Ping(ctx context.Context) error {
	return apperrors.NewStoreError("ping", errConnRefused)
}

func jsonID(id int64) string {
	return strconv.FormatInt(id, 10)
}
