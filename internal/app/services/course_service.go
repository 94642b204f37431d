package services

import (
	"context"
	"fmt"

	"github.com/yigit/techroom/internal/app/models"
	"github.com/yigit/techroom/internal/app/repositories"
	"github.com/yigit/techroom/internal/pkg/apperrors"
)

// CourseService handles course and enrollment operations
type CourseService struct {
	store repositories.RecordStore
}

// NewCourseService creates a new course service instance
func NewCourseService(store repositories.RecordStore) *CourseService {
	return &CourseService{store: store}
}

// ListCourses returns every course
func (s *CourseService) ListCourses(ctx context.Context) ([]*models.Course, error) {
	courses, err := s.store.ListCourses(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing courses: %w", err)
	}
	return courses, nil
}

// GetCourse retrieves a course by id
func (s *CourseService) GetCourse(ctx context.Context, id int64) (*models.Course, error) {
	if id <= 0 {
		return nil, apperrors.NewBadRequestError("Invalid course ID format")
	}

	course, err := s.store.GetCourse(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error retrieving course: %w", err)
	}
	if course == nil {
		return nil, apperrors.ErrCourseNotFound
	}
	return course, nil
}

// CreateCourse creates a new course
func (s *CourseService) CreateCourse(ctx context.Context, candidate repositories.CourseCandidate) (*models.Course, error) {
	course, err := s.store.CreateCourse(ctx, candidate)
	if err != nil {
		return nil, fmt.Errorf("error creating course: %w", err)
	}
	return course, nil
}

// EnrollStudent enrolls a student record in a course. Enrolling twice is not an error.
func (s *CourseService) EnrollStudent(ctx context.Context, courseID, studentRecordID int64) (*models.Course, error) {
	if _, err := s.GetCourse(ctx, courseID); err != nil {
		return nil, err
	}

	student, err := s.store.GetStudent(ctx, studentRecordID)
	if err != nil {
		return nil, fmt.Errorf("error retrieving student: %w", err)
	}
	if student == nil {
		return nil, apperrors.ErrStudentNotFound
	}

	course, err := s.store.EnrollStudent(ctx, courseID, studentRecordID)
	if err != nil {
		return nil, fmt.Errorf("error enrolling student: %w", err)
	}
	if course == nil {
		return nil, apperrors.ErrCourseNotFound
	}
	return course, nil
}
