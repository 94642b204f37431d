// Package repotest holds the behavioural tests every RecordStore backend
// must pass.
package repotest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/techroom/internal/app/models"
	"github.com/yigit/techroom/internal/app/repositories"
	"github.com/yigit/techroom/internal/pkg/apperrors"
	"github.com/yigit/techroom/internal/pkg/auth"
)

// Factory returns an empty store. Run closes it when the subtest ends.
type Factory func(t *testing.T) repositories.RecordStore

func candidate(studentID string) repositories.StudentCandidate {
	return repositories.StudentCandidate{
		StudentID:  studentID,
		Name:       "Jane Roe",
		Email:      "jane.roe@university.edu",
		Department: "Computer Science",
	}
}

// Run executes the suite against stores produced by newStore
func Run(t *testing.T, newStore Factory) {
	ctx := context.Background()

	open := func(t *testing.T) repositories.RecordStore {
		t.Helper()
		store := newStore(t)
		t.Cleanup(func() { _ = store.Close() })
		return store
	}

	t.Run("create and get student", func(t *testing.T) {
		store := open(t)

		created, err := store.CreateStudent(ctx, candidate("S12345"))
		require.NoError(t, err)
		require.NotNil(t, created)
		assert.Positive(t, created.ID)
		assert.Equal(t, "S12345", created.StudentID)
		assert.Equal(t, "Jane Roe", created.Name)
		assert.Equal(t, "jane.roe@university.edu", created.Email)
		assert.Equal(t, "Computer Science", created.Department)
		assert.NotNil(t, created.Courses)
		assert.Empty(t, created.Courses)

		got, err := store.GetStudent(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created, got)

		byStudentID, err := store.GetStudentByStudentID(ctx, "S12345")
		require.NoError(t, err)
		assert.Equal(t, created, byStudentID)
	})

	t.Run("absent student is nil without error", func(t *testing.T) {
		store := open(t)

		got, err := store.GetStudent(ctx, 424242)
		require.NoError(t, err)
		assert.Nil(t, got)

		got, err = store.GetStudentByStudentID(ctx, "NOPE00")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("duplicate student id is rejected", func(t *testing.T) {
		store := open(t)

		_, err := store.CreateStudent(ctx, candidate("S12345"))
		require.NoError(t, err)

		dup, err := store.CreateStudent(ctx, candidate("S12345"))
		assert.Nil(t, dup)
		require.ErrorIs(t, err, apperrors.ErrConflict)
		assert.ErrorIs(t, err, apperrors.ErrStudentIDAlreadyExists)

		students, err := store.ListStudents(ctx)
		require.NoError(t, err)
		assert.Len(t, students, 1)
	})

	t.Run("short student id is rejected without assigning an id", func(t *testing.T) {
		store := open(t)

		short, err := store.CreateStudent(ctx, candidate("S12"))
		assert.Nil(t, short)
		require.ErrorIs(t, err, apperrors.ErrValidationFailed)

		created, err := store.CreateStudent(ctx, candidate("S12345"))
		require.NoError(t, err)

		students, err := store.ListStudents(ctx)
		require.NoError(t, err)
		require.Len(t, students, 1)
		assert.Equal(t, created.ID, students[0].ID)
	})

	t.Run("concurrent creates with one student id yield exactly one record", func(t *testing.T) {
		store := open(t)

		const workers = 8
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
			conflicts int
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := store.CreateStudent(ctx, candidate("S77777"))
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					succeeded++
				case apperrors.Is(err, apperrors.ErrStudentIDAlreadyExists):
					conflicts++
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, succeeded)
		assert.Equal(t, workers-1, conflicts)

		students, err := store.ListStudents(ctx)
		require.NoError(t, err)
		assert.Len(t, students, 1)
	})

	t.Run("ids increase and are never reused", func(t *testing.T) {
		store := open(t)

		var last int64
		for i := 0; i < 5; i++ {
			created, err := store.CreateStudent(ctx, candidate(fmt.Sprintf("S1000%d", i)))
			require.NoError(t, err)
			assert.Greater(t, created.ID, last)
			last = created.ID
		}

		_, err := store.CreateStudent(ctx, candidate("S10000"))
		require.Error(t, err)

		next, err := store.CreateStudent(ctx, candidate("S20000"))
		require.NoError(t, err)
		assert.Greater(t, next.ID, last)
	})

	t.Run("list students ordered by id", func(t *testing.T) {
		store := open(t)

		for _, id := range []string{"S30003", "S30001", "S30002"} {
			_, err := store.CreateStudent(ctx, candidate(id))
			require.NoError(t, err)
		}

		students, err := store.ListStudents(ctx)
		require.NoError(t, err)
		require.Len(t, students, 3)
		assert.Equal(t, "S30003", students[0].StudentID)
		assert.Equal(t, "S30001", students[1].StudentID)
		assert.Equal(t, "S30002", students[2].StudentID)
	})

	t.Run("update student id is visible to the next read", func(t *testing.T) {
		store := open(t)

		created, err := store.CreateStudent(ctx, candidate("S12345"))
		require.NoError(t, err)

		updated, err := store.UpdateStudentID(ctx, created.ID, "S99999999")
		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.Equal(t, created.ID, updated.ID)
		assert.Equal(t, "S99999999", updated.StudentID)
		assert.Equal(t, created.Name, updated.Name)

		got, err := store.GetStudent(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "S99999999", got.StudentID)

		old, err := store.GetStudentByStudentID(ctx, "S12345")
		require.NoError(t, err)
		assert.Nil(t, old)

		// the old id is free again
		_, err = store.CreateStudent(ctx, candidate("S12345"))
		require.NoError(t, err)
	})

	t.Run("update of missing record changes nothing", func(t *testing.T) {
		store := open(t)

		created, err := store.CreateStudent(ctx, candidate("S12345"))
		require.NoError(t, err)

		updated, err := store.UpdateStudentID(ctx, created.ID+1000, "S55555")
		require.NoError(t, err)
		assert.Nil(t, updated)

		students, err := store.ListStudents(ctx)
		require.NoError(t, err)
		require.Len(t, students, 1)
		assert.Equal(t, created, students[0])
	})

	t.Run("update to own student id succeeds", func(t *testing.T) {
		store := open(t)

		created, err := store.CreateStudent(ctx, candidate("S12345"))
		require.NoError(t, err)

		updated, err := store.UpdateStudentID(ctx, created.ID, "S12345")
		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.Equal(t, "S12345", updated.StudentID)
	})

	t.Run("update to a taken student id is rejected", func(t *testing.T) {
		store := open(t)

		first, err := store.CreateStudent(ctx, candidate("S11111"))
		require.NoError(t, err)
		second, err := store.CreateStudent(ctx, candidate("S22222"))
		require.NoError(t, err)

		updated, err := store.UpdateStudentID(ctx, second.ID, first.StudentID)
		assert.Nil(t, updated)
		require.ErrorIs(t, err, apperrors.ErrStudentIDAlreadyExists)

		got, err := store.GetStudent(ctx, second.ID)
		require.NoError(t, err)
		assert.Equal(t, "S22222", got.StudentID)
	})

	t.Run("update to a short student id is rejected", func(t *testing.T) {
		store := open(t)

		created, err := store.CreateStudent(ctx, candidate("S12345"))
		require.NoError(t, err)

		_, err = store.UpdateStudentID(ctx, created.ID, "S99")
		require.ErrorIs(t, err, apperrors.ErrValidationFailed)

		got, err := store.GetStudent(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "S12345", got.StudentID)
	})

	t.Run("accounts hash passwords and default the role", func(t *testing.T) {
		store := open(t)

		account, err := store.CreateAccount(ctx, repositories.AccountCandidate{
			Username: "jdoe",
			Password: "secret-pass",
		})
		require.NoError(t, err)
		require.NotNil(t, account)
		assert.Positive(t, account.ID)
		assert.Equal(t, models.RoleStudent, account.Role)
		assert.NotEqual(t, "secret-pass", account.PasswordHash)
		assert.True(t, auth.CheckPassword(account.PasswordHash, "secret-pass"))

		got, err := store.GetAccount(ctx, account.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, account.Username, got.Username)
		assert.Equal(t, account.PasswordHash, got.PasswordHash)

		byName, err := store.GetAccountByUsername(ctx, "jdoe")
		require.NoError(t, err)
		require.NotNil(t, byName)
		assert.Equal(t, account.ID, byName.ID)

		teacher, err := store.CreateAccount(ctx, repositories.AccountCandidate{
			Username: "prof",
			Password: "secret-pass",
			Role:     models.RoleTeacher,
		})
		require.NoError(t, err)
		assert.Equal(t, models.RoleTeacher, teacher.Role)
	})

	t.Run("absent account is nil without error", func(t *testing.T) {
		store := open(t)

		got, err := store.GetAccount(ctx, 99)
		require.NoError(t, err)
		assert.Nil(t, got)

		got, err = store.GetAccountByUsername(ctx, "ghost")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("duplicate username is rejected", func(t *testing.T) {
		store := open(t)

		_, err := store.CreateAccount(ctx, repositories.AccountCandidate{Username: "jdoe", Password: "secret-pass"})
		require.NoError(t, err)

		dup, err := store.CreateAccount(ctx, repositories.AccountCandidate{Username: "jdoe", Password: "other-pass"})
		assert.Nil(t, dup)
		require.ErrorIs(t, err, apperrors.ErrUsernameAlreadyExists)
	})

	t.Run("enrollment is symmetric and idempotent", func(t *testing.T) {
		store := open(t)

		student, err := store.CreateStudent(ctx, candidate("S12345"))
		require.NoError(t, err)
		course, err := store.CreateCourse(ctx, repositories.CourseCandidate{
			Name:       "Distributed Systems",
			Code:       "CS401",
			Instructor: "Dr. Smith",
			Room:       "B-204",
		})
		require.NoError(t, err)
		assert.Empty(t, course.Students)

		enrolled, err := store.EnrollStudent(ctx, course.ID, student.ID)
		require.NoError(t, err)
		require.NotNil(t, enrolled)
		assert.Equal(t, []int64{student.ID}, enrolled.Students)

		again, err := store.EnrollStudent(ctx, course.ID, student.ID)
		require.NoError(t, err)
		assert.Equal(t, []int64{student.ID}, again.Students)

		got, err := store.GetStudent(ctx, student.ID)
		require.NoError(t, err)
		assert.Equal(t, []int64{course.ID}, got.Courses)

		courses, err := store.ListStudentCourses(ctx, student.ID)
		require.NoError(t, err)
		require.Len(t, courses, 1)
		assert.Equal(t, "CS401", courses[0].Code)
		assert.Equal(t, "Dr. Smith", courses[0].Instructor)
	})

	t.Run("enrollment with a missing side is nil", func(t *testing.T) {
		store := open(t)

		student, err := store.CreateStudent(ctx, candidate("S12345"))
		require.NoError(t, err)
		course, err := store.CreateCourse(ctx, repositories.CourseCandidate{Name: "Algorithms", Code: "CS201"})
		require.NoError(t, err)

		got, err := store.EnrollStudent(ctx, course.ID+100, student.ID)
		require.NoError(t, err)
		assert.Nil(t, got)

		got, err = store.EnrollStudent(ctx, course.ID, student.ID+100)
		require.NoError(t, err)
		assert.Nil(t, got)

		courses, err := store.ListStudentCourses(ctx, student.ID)
		require.NoError(t, err)
		assert.Empty(t, courses)
	})

	t.Run("courses list and get", func(t *testing.T) {
		store := open(t)

		first, err := store.CreateCourse(ctx, repositories.CourseCandidate{Name: "Algorithms", Code: "CS201"})
		require.NoError(t, err)
		_, err = store.CreateCourse(ctx, repositories.CourseCandidate{Name: "Databases", Code: "CS301", Schedule: "Mon 10:00"})
		require.NoError(t, err)

		courses, err := store.ListCourses(ctx)
		require.NoError(t, err)
		require.Len(t, courses, 2)
		assert.Equal(t, "CS201", courses[0].Code)
		assert.Equal(t, "Mon 10:00", courses[1].Schedule)

		got, err := store.GetCourse(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, first, got)

		missing, err := store.GetCourse(ctx, first.ID+100)
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("announcements list newest first", func(t *testing.T) {
		store := open(t)

		base := time.Date(2024, 9, 1, 9, 0, 0, 0, time.UTC)
		for i, title := range []string{"Welcome", "Exam schedule", "Holiday"} {
			_, err := store.CreateAnnouncement(ctx, repositories.AnnouncementCandidate{
				Title:   title,
				Content: "details",
				Author:  "Registrar",
				Date:    base.Add(time.Duration(i) * 24 * time.Hour),
			})
			require.NoError(t, err)
		}

		announcements, err := store.ListAnnouncements(ctx)
		require.NoError(t, err)
		require.Len(t, announcements, 3)
		assert.Equal(t, "Holiday", announcements[0].Title)
		assert.Equal(t, "Exam schedule", announcements[1].Title)
		assert.Equal(t, "Welcome", announcements[2].Title)
		assert.True(t, announcements[2].Date.Equal(base))
	})

	t.Run("announcement without date is stamped", func(t *testing.T) {
		store := open(t)

		before := time.Now().Add(-time.Second)
		created, err := store.CreateAnnouncement(ctx, repositories.AnnouncementCandidate{Title: "Now", Content: "x"})
		require.NoError(t, err)
		assert.True(t, created.Date.After(before))
	})

	t.Run("ping", func(t *testing.T) {
		store := open(t)
		assert.NoError(t, store.Ping(ctx))
	})
}
