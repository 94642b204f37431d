package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yigit/techroom/internal/app/migrations"
	"github.com/yigit/techroom/internal/app/repositories"
	"github.com/yigit/techroom/internal/app/repositories/repotest"
	"github.com/yigit/techroom/internal/app/repositories/sqlite"
	"github.com/yigit/techroom/internal/db"
	"github.com/yigit/techroom/internal/pkg/apperrors"
	"github.com/yigit/techroom/internal/pkg/auth"
)

func newFileStore(t *testing.T) repositories.RecordStore {
	t.Helper()

	path := filepath.Join(t.TempDir(), "records.db")

	migrator, err := migrations.NewMigrator("sqlite://" + path)
	require.NoError(t, err)
	require.NoError(t, migrator.Up())

	sqlDB, err := db.OpenSQLite(context.Background(), path, time.Hour)
	require.NoError(t, err)

	return sqlite.NewStore(sqlDB, auth.NewPasswordHasher(bcrypt.MinCost))
}

func TestStore(t *testing.T) {
	repotest.Run(t, newFileStore)
}

func TestStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "records.db")

	migrator, err := migrations.NewMigrator("sqlite://" + path)
	require.NoError(t, err)
	require.NoError(t, migrator.Up())

	sqlDB, err := db.OpenSQLite(ctx, path, 0)
	require.NoError(t, err)
	store := sqlite.NewStore(sqlDB, nil)

	created, err := store.CreateStudent(ctx, repositories.StudentCandidate{
		StudentID: "S12345678", Name: "John Doe", Email: "john.doe@university.edu", Department: "Computer Science",
	})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// migrating again is a no-op
	require.NoError(t, migrator.Up())
	version, dirty, err := migrator.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	sqlDB, err = db.OpenSQLite(ctx, path, 0)
	require.NoError(t, err)
	reopened := sqlite.NewStore(sqlDB, nil)
	t.Cleanup(func() { _ = reopened.Close() })

	got, err := reopened.GetStudent(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "S12345678", got.StudentID)
}

func newMockStore(t *testing.T) (*sqlite.Store, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	return sqlite.NewStore(mockDB, auth.NewPasswordHasher(bcrypt.MinCost)), mock
}

func TestStore_GetStudent_FailureIsNotAbsence(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, student_id, name, email, department FROM students`).
		WithArgs(int64(1)).
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	student, err := store.GetStudent(context.Background(), 1)
	assert.Nil(t, student)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrStoreFailure)
	assert.NotErrorIs(t, err, apperrors.ErrResourceNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListStudents_Failure(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, student_id, name, email, department FROM students ORDER BY id`).
		WillReturnError(errors.New("no such table: students"))
	mock.ExpectRollback()

	students, err := store.ListStudents(context.Background())
	assert.Nil(t, students)
	assert.ErrorIs(t, err, apperrors.ErrStoreFailure)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_CreateStudent_UniqueViolation(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`INSERT INTO students`).
		WithArgs("S12345", "Jane Roe", "jane@university.edu", "Physics").
		WillReturnError(errors.New("constraint failed: UNIQUE constraint failed: students.student_id (2067)"))

	student, err := store.CreateStudent(context.Background(), repositories.StudentCandidate{
		StudentID: "S12345", Name: "Jane Roe", Email: "jane@university.edu", Department: "Physics",
	})
	assert.Nil(t, student)
	assert.ErrorIs(t, err, apperrors.ErrStudentIDAlreadyExists)
	assert.NotErrorIs(t, err, apperrors.ErrStoreFailure)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_CreateStudent_RetriesWhenLocked(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`INSERT INTO students`).
		WillReturnError(errors.New("database is locked (5) (SQLITE_BUSY)"))
	mock.ExpectQuery(`INSERT INTO students`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	student, err := store.CreateStudent(context.Background(), repositories.StudentCandidate{
		StudentID: "S12345", Name: "Jane Roe", Email: "jane@university.edu", Department: "Physics",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), student.ID)
	assert.Empty(t, student.Courses)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_CreateStudent_ShortIDNeverReachesDatabase(t *testing.T) {
	store, mock := newMockStore(t)

	_, err := store.CreateStudent(context.Background(), repositories.StudentCandidate{StudentID: "S1"})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_UpdateStudentID_Failure(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE students SET student_id = \? WHERE id = \?`).
		WithArgs("S99999", int64(3)).
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	student, err := store.UpdateStudentID(context.Background(), 3, "S99999")
	assert.Nil(t, student)
	assert.ErrorIs(t, err, apperrors.ErrStoreFailure)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_UpdateStudentID_Missing(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE students SET student_id = \? WHERE id = \?`).
		WithArgs("S99999", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	student, err := store.UpdateStudentID(context.Background(), 3, "S99999")
	require.NoError(t, err)
	assert.Nil(t, student)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Ping(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })
	store := sqlite.NewStore(mockDB, nil)

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	err = store.Ping(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrStoreFailure)
	assert.NoError(t, mock.ExpectationsWereMet())
}
