package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yigit/techroom/internal/app/models"
	"github.com/yigit/techroom/internal/app/repositories"
	"github.com/yigit/techroom/internal/app/repositories/memory"
	"github.com/yigit/techroom/internal/app/services"
	"github.com/yigit/techroom/internal/pkg/apperrors"
	"github.com/yigit/techroom/internal/pkg/auth"
)

func newServices(t *testing.T) (*services.Services, repositories.RecordStore) {
	t.Helper()
	store := memory.NewStore(auth.NewPasswordHasher(bcrypt.MinCost))
	return services.NewServices(store), store
}

func student(studentID string) repositories.StudentCandidate {
	return repositories.StudentCandidate{
		StudentID:  studentID,
		Name:       "John Doe",
		Email:      "john.doe@university.edu",
		Department: "Computer Science",
	}
}

// failingStore fails every call it overrides. Other calls panic on the
// nil embedded interface.
type failingStore struct {
	repositories.RecordStore
}

var errDown = errors.New("connection refused")

func (failingStore) GetStudent(ctx context.Context, id int64) (*models.Student, error) {
	return nil, apperrors.NewStoreError("get student", errDown)
}

func (failingStore) GetStudentByStudentID(ctx context.Context, studentID string) (*models.Student, error) {
	return nil, apperrors.NewStoreError("get student by student id", errDown)
}

func (failingStore) Ping(ctx context.Context) error {
	return apperrors.NewStoreError("ping", errDown)
}

func TestStudentService_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	svc, _ := newServices(t)

	created, err := svc.Students.CreateStudent(ctx, student("S12345678"))
	require.NoError(t, err)

	got, err := svc.Students.GetStudent(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestStudentService_GetMissing(t *testing.T) {
	svc, _ := newServices(t)

	_, err := svc.Students.GetStudent(context.Background(), 42)
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
}

func TestStudentService_GetRejectsNonPositiveID(t *testing.T) {
	svc, _ := newServices(t)

	_, err := svc.Students.GetStudent(context.Background(), 0)
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
}

func TestStudentService_CreateDuplicate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newServices(t)

	_, err := svc.Students.CreateStudent(ctx, student("S12345678"))
	require.NoError(t, err)

	_, err = svc.Students.CreateStudent(ctx, student("S12345678"))
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	var custom *apperrors.CustomError
	require.ErrorAs(t, err, &custom)
	assert.Equal(t, "studentId", custom.Field)
}

func TestStudentService_CreateShortStudentID(t *testing.T) {
	ctx := context.Background()
	svc, store := newServices(t)

	_, err := svc.Students.CreateStudent(ctx, student("S999"))
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	students, err := store.ListStudents(ctx)
	require.NoError(t, err)
	assert.Empty(t, students)
}

func TestStudentService_UpdateStudentID(t *testing.T) {
	ctx := context.Background()
	svc, _ := newServices(t)

	first, err := svc.Students.CreateStudent(ctx, student("S11111"))
	require.NoError(t, err)
	second, err := svc.Students.CreateStudent(ctx, student("S22222"))
	require.NoError(t, err)

	tests := []struct {
		name      string
		id        int64
		studentID string
		wantErr   error
		wantID    string
	}{
		{name: "rename", id: first.ID, studentID: "S99999999", wantID: "S99999999"},
		{name: "same value", id: second.ID, studentID: "S22222", wantID: "S22222"},
		{name: "taken by another record", id: second.ID, studentID: "S99999999", wantErr: apperrors.ErrConflict},
		{name: "too short", id: first.ID, studentID: "S999", wantErr: apperrors.ErrValidationFailed},
		{name: "too long", id: first.ID, studentID: "S12345678901234567890", wantErr: apperrors.ErrStudentIDTooLong},
		{name: "missing record", id: 999, studentID: "S55555", wantErr: apperrors.ErrResourceNotFound},
		{name: "bad id", id: -1, studentID: "S55555", wantErr: apperrors.ErrBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updated, err := svc.Students.UpdateStudentID(ctx, tt.id, tt.studentID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, updated)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, updated.StudentID)
		})
	}
}

func TestStudentService_StoreFailureIsNotNotFound(t *testing.T) {
	svc := services.NewServices(failingStore{})

	_, err := svc.Students.GetStudent(context.Background(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrStoreFailure)
	assert.NotErrorIs(t, err, apperrors.ErrResourceNotFound)

	_, err = svc.Students.CreateStudent(context.Background(), student("S12345"))
	assert.ErrorIs(t, err, apperrors.ErrStoreFailure)
}

func TestStudentService_ListStudentCourses(t *testing.T) {
	ctx := context.Background()
	svc, _ := newServices(t)

	s, err := svc.Students.CreateStudent(ctx, student("S12345"))
	require.NoError(t, err)
	course, err := svc.Courses.CreateCourse(ctx, repositories.CourseCandidate{Name: "Algorithms", Code: "CS201"})
	require.NoError(t, err)

	_, err = svc.Courses.EnrollStudent(ctx, course.ID, s.ID)
	require.NoError(t, err)

	courses, err := svc.Students.ListStudentCourses(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, course.ID, courses[0].ID)

	_, err = svc.Students.ListStudentCourses(ctx, s.ID+1)
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
}

func TestAccountService(t *testing.T) {
	ctx := context.Background()
	svc, _ := newServices(t)

	account, err := svc.Accounts.CreateAccount(ctx, repositories.AccountCandidate{Username: "jdoe", Password: "secret-pass"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, account.Role)

	_, err = svc.Accounts.CreateAccount(ctx, repositories.AccountCandidate{Username: "jdoe", Password: "secret-pass"})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	_, err = svc.Accounts.CreateAccount(ctx, repositories.AccountCandidate{Username: "root", Password: "secret-pass", Role: "superuser"})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	got, err := svc.Accounts.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "jdoe", got.Username)

	_, err = svc.Accounts.GetAccount(ctx, account.ID+1)
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
}

func TestCourseService_Enroll(t *testing.T) {
	ctx := context.Background()
	svc, _ := newServices(t)

	s, err := svc.Students.CreateStudent(ctx, student("S12345"))
	require.NoError(t, err)
	course, err := svc.Courses.CreateCourse(ctx, repositories.CourseCandidate{Name: "Databases", Code: "CS301"})
	require.NoError(t, err)

	enrolled, err := svc.Courses.EnrollStudent(ctx, course.ID, s.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{s.ID}, enrolled.Students)

	_, err = svc.Courses.EnrollStudent(ctx, course.ID+1, s.ID)
	assert.ErrorIs(t, err, apperrors.ErrCourseNotFound)

	_, err = svc.Courses.EnrollStudent(ctx, course.ID, s.ID+1)
	assert.ErrorIs(t, err, apperrors.ErrStudentNotFound)
}

func TestAnnouncementService(t *testing.T) {
	ctx := context.Background()
	svc, _ := newServices(t)

	_, err := svc.Announcements.CreateAnnouncement(ctx, repositories.AnnouncementCandidate{Title: "Welcome", Content: "Term starts Monday"})
	require.NoError(t, err)

	announcements, err := svc.Announcements.ListAnnouncements(ctx)
	require.NoError(t, err)
	require.Len(t, announcements, 1)
	assert.Equal(t, "Welcome", announcements[0].Title)
}

func TestHealthService(t *testing.T) {
	svc, _ := newServices(t)
	assert.NoError(t, svc.Health.Check(context.Background()))

	down := services.NewServices(failingStore{})
	assert.ErrorIs(t, down.Health.Check(context.Background()), apperrors.ErrStoreFailure)
}
