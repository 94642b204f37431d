package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/yigit/techroom/internal/app/repositories"
	"github.com/yigit/techroom/internal/pkg/apperrors"
)

// DefaultStudent is created on an empty store so a fresh deployment has
// something to show on the dashboard.
var DefaultStudent = repositories.StudentCandidate{
	StudentID:  "S12345678",
	Name:       "John Doe",
	Email:      "john.doe@university.edu",
	Department: "Computer Science",
}

// CreateDefaultData inserts DefaultStudent when the store holds no student
// records. It reports whether a record was created. A concurrent seeder
// winning the race is not an error.
func CreateDefaultData(ctx context.Context, store repositories.RecordStore, lgr zerolog.Logger) (bool, error) {
	lgr.Info().Msg("Checking/Creating default data (Students)...")

	students, err := store.ListStudents(ctx)
	if err != nil {
		return false, fmt.Errorf("error checking existing students: %w", err)
	}
	if len(students) > 0 {
		lgr.Info().Int("count", len(students)).Msg("Store already has student records, skipping seed")
		return false, nil
	}

	student, err := store.CreateStudent(ctx, DefaultStudent)
	if err != nil {
		if errors.Is(err, apperrors.ErrStudentIDAlreadyExists) {
			lgr.Info().Str("studentID", DefaultStudent.StudentID).Msg("Default student already exists")
			return false, nil
		}
		return false, fmt.Errorf("error creating default student: %w", err)
	}

	lgr.Info().Int64("id", student.ID).Str("studentID", student.StudentID).Msg("Default student created")
	return true, nil
}
