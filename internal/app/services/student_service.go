package services

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/yigit/techroom/internal/app/models"
	"github.com/yigit/techroom/internal/app/repositories"
	"github.com/yigit/techroom/internal/pkg/apperrors"
	"github.com/yigit/techroom/internal/pkg/logger"
	"github.com/yigit/techroom/internal/pkg/validation"
)

// StudentService handles student record operations
type StudentService struct {
	store repositories.RecordStore
}

// NewStudentService creates a new student service instance
func NewStudentService(store repositories.RecordStore) *StudentService {
	return &StudentService{store: store}
}

// ListStudents returns every student record
func (s *StudentService) ListStudents(ctx context.Context) ([]*models.Student, error) {
	students, err := s.store.ListStudents(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing students: %w", err)
	}
	return students, nil
}

// GetStudent retrieves a student record by id
func (s *StudentService) GetStudent(ctx context.Context, id int64) (*models.Student, error) {
	if id <= 0 {
		return nil, apperrors.NewBadRequestError("Invalid student ID format")
	}

	student, err := s.store.GetStudent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error retrieving student: %w", err)
	}
	if student == nil {
		return nil, apperrors.ErrStudentNotFound
	}
	return student, nil
}

// CreateStudent creates a new student record. The store remains the final
// arbiter of studentId uniqueness.
func (s *StudentService) CreateStudent(ctx context.Context, candidate repositories.StudentCandidate) (*models.Student, error) {
	if err := checkStudentID(candidate.StudentID); err != nil {
		return nil, err
	}

	existing, err := s.store.GetStudentByStudentID(ctx, candidate.StudentID)
	if err != nil {
		return nil, fmt.Errorf("error checking student ID: %w", err)
	}
	if existing != nil {
		return nil, apperrors.ErrStudentIDAlreadyExists
	}

	student, err := s.store.CreateStudent(ctx, candidate)
	if err != nil {
		return nil, fmt.Errorf("error creating student: %w", err)
	}

	logger.Info().Int64("id", student.ID).Str("studentID", student.StudentID).Msg("Student record created")
	return student, nil
}

// UpdateStudentID replaces the human-facing id of record id
func (s *StudentService) UpdateStudentID(ctx context.Context, id int64, studentID string) (*models.Student, error) {
	if id <= 0 {
		return nil, apperrors.NewBadRequestError("Invalid student ID format")
	}
	if err := checkStudentID(studentID); err != nil {
		return nil, err
	}

	current, err := s.store.GetStudent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error retrieving student: %w", err)
	}
	if current == nil {
		return nil, apperrors.ErrStudentNotFound
	}

	owner, err := s.store.GetStudentByStudentID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("error checking student ID: %w", err)
	}
	if owner != nil && owner.ID != id {
		return nil, apperrors.ErrStudentIDAlreadyExists
	}

	updated, err := s.store.UpdateStudentID(ctx, id, studentID)
	if err != nil {
		return nil, fmt.Errorf("error updating student ID: %w", err)
	}
	if updated == nil {
		return nil, apperrors.ErrStudentNotFound
	}

	logger.Info().Int64("id", id).Str("from", current.StudentID).Str("to", updated.StudentID).Msg("Student ID updated")
	return updated, nil
}

// ListStudentCourses returns the courses a student record is enrolled in
func (s *StudentService) ListStudentCourses(ctx context.Context, id int64) ([]*models.Course, error) {
	if _, err := s.GetStudent(ctx, id); err != nil {
		return nil, err
	}

	courses, err := s.store.ListStudentCourses(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error listing student courses: %w", err)
	}
	return courses, nil
}

func checkStudentID(studentID string) error {
	if validation.ValidStudentID(studentID) {
		return nil
	}
	if utf8.RuneCountInString(studentID) > validation.StudentIDMaxLength {
		return apperrors.ErrStudentIDTooLong
	}
	return apperrors.ErrInvalidStudentID
}
