// Package memory implements the record store in process memory. Contents are
// lost when the process exits.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/yigit/techroom/internal/app/models"
	"github.com/yigit/techroom/internal/app/repositories"
	"github.com/yigit/techroom/internal/pkg/apperrors"
	"github.com/yigit/techroom/internal/pkg/auth"
	"github.com/yigit/techroom/internal/pkg/logger"
	"github.com/yigit/techroom/internal/pkg/validation"
)

var _ repositories.RecordStore = (*Store)(nil)

type enrollment struct {
	courseID  int64
	studentID int64
}

// Store keeps every collection in maps guarded by one RWMutex. Each
// operation holds the lock for its whole check-then-write sequence, so
// uniqueness checks and id assignment are atomic.
type Store struct {
	mu     sync.RWMutex
	hasher *auth.PasswordHasher

	accounts      map[int64]*models.Account
	usernames     map[string]int64
	students      map[int64]*models.Student
	studentIDs    map[string]int64
	courses       map[int64]*models.Course
	enrollments   map[enrollment]struct{}
	announcements map[int64]*models.Announcement

	nextAccountID      int64
	nextStudentID      int64
	nextCourseID       int64
	nextAnnouncementID int64
}

// NewStore creates an empty store. hasher may be nil to use the default cost.
func NewStore(hasher *auth.PasswordHasher) *Store {
	return &Store{
		hasher:             hasher,
		accounts:           make(map[int64]*models.Account),
		usernames:          make(map[string]int64),
		students:           make(map[int64]*models.Student),
		studentIDs:         make(map[string]int64),
		courses:            make(map[int64]*models.Course),
		enrollments:        make(map[enrollment]struct{}),
		announcements:      make(map[int64]*models.Announcement),
		nextAccountID:      1,
		nextStudentID:      1,
		nextCourseID:       1,
		nextAnnouncementID: 1,
	}
}

// GetAccount returns a copy of the account with id
func (s *Store) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[id]
	if !ok {
		return nil, nil
	}
	cp := *account
	return &cp, nil
}

// GetAccountByUsername returns a copy of the account with username
func (s *Store) GetAccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usernames[username]
	if !ok {
		return nil, nil
	}
	cp := *s.accounts[id]
	return &cp, nil
}

// CreateAccount hashes the candidate password and stores the account
func (s *Store) CreateAccount(ctx context.Context, candidate repositories.AccountCandidate) (*models.Account, error) {
	// Hash before taking the lock.
	hash, err := s.hasher.Hash(candidate.Password)
	if err != nil {
		logger.Error().Err(err).Str("username", candidate.Username).Msg("Error hashing account password")
		return nil, apperrors.NewStoreError("create account", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.usernames[candidate.Username]; taken {
		logger.Warn().Str("username", candidate.Username).Msg("Attempted to create account with duplicate username")
		return nil, apperrors.ErrUsernameAlreadyExists
	}

	account := &models.Account{
		ID:           s.nextAccountID,
		Username:     candidate.Username,
		PasswordHash: hash,
		Role:         models.RoleOrDefault(candidate.Role),
		CreatedAt:    time.Now().UTC(),
	}
	s.nextAccountID++
	s.accounts[account.ID] = account
	s.usernames[account.Username] = account.ID

	cp := *account
	return &cp, nil
}

// GetStudent returns the student record with id
func (s *Store) GetStudent(ctx context.Context, id int64) (*models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	student, ok := s.students[id]
	if !ok {
		return nil, nil
	}
	return s.studentView(student), nil
}

// GetStudentByStudentID returns the student record carrying studentID
func (s *Store) GetStudentByStudentID(ctx context.Context, studentID string) (*models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.studentIDs[studentID]
	if !ok {
		return nil, nil
	}
	return s.studentView(s.students[id]), nil
}

// ListStudents returns every student record ordered by id
func (s *Store) ListStudents(ctx context.Context) ([]*models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	students := make([]*models.Student, 0, len(s.students))
	for _, student := range s.students {
		students = append(students, s.studentView(student))
	}
	sort.Slice(students, func(i, j int) bool { return students[i].ID < students[j].ID })
	return students, nil
}

// CreateStudent stores a new student record
func (s *Store) CreateStudent(ctx context.Context, candidate repositories.StudentCandidate) (*models.Student, error) {
	if !validation.ValidStudentID(candidate.StudentID) {
		return nil, apperrors.ErrInvalidStudentID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.studentIDs[candidate.StudentID]; taken {
		logger.Warn().Str("studentID", candidate.StudentID).Msg("Attempted to create student with duplicate student ID")
		return nil, apperrors.ErrStudentIDAlreadyExists
	}

	student := &models.Student{
		ID:         s.nextStudentID,
		StudentID:  candidate.StudentID,
		Name:       candidate.Name,
		Email:      candidate.Email,
		Department: candidate.Department,
	}
	s.nextStudentID++
	s.students[student.ID] = student
	s.studentIDs[student.StudentID] = student.ID

	return s.studentView(student), nil
}

// UpdateStudentID replaces the studentId of record id
func (s *Store) UpdateStudentID(ctx context.Context, id int64, studentID string) (*models.Student, error) {
	if !validation.ValidStudentID(studentID) {
		return nil, apperrors.ErrInvalidStudentID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	student, ok := s.students[id]
	if !ok {
		return nil, nil
	}

	if owner, taken := s.studentIDs[studentID]; taken && owner != id {
		logger.Warn().Int64("id", id).Str("studentID", studentID).Msg("Attempted to update student with duplicate student ID")
		return nil, apperrors.ErrStudentIDAlreadyExists
	}

	delete(s.studentIDs, student.StudentID)
	student.StudentID = studentID
	s.studentIDs[studentID] = id

	return s.studentView(student), nil
}

// GetCourse returns the course with id
func (s *Store) GetCourse(ctx context.Context, id int64) (*models.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	course, ok := s.courses[id]
	if !ok {
		return nil, nil
	}
	return s.courseView(course), nil
}

// ListCourses returns every course ordered by id
func (s *Store) ListCourses(ctx context.Context) ([]*models.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	courses := make([]*models.Course, 0, len(s.courses))
	for _, course := range s.courses {
		courses = append(courses, s.courseView(course))
	}
	sortCourses(courses)
	return courses, nil
}

// ListStudentCourses returns the courses studentRecordID is enrolled in
func (s *Store) ListStudentCourses(ctx context.Context, studentRecordID int64) ([]*models.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	courses := make([]*models.Course, 0)
	for e := range s.enrollments {
		if e.studentID == studentRecordID {
			courses = append(courses, s.courseView(s.courses[e.courseID]))
		}
	}
	sortCourses(courses)
	return courses, nil
}

// CreateCourse stores a new course
func (s *Store) CreateCourse(ctx context.Context, candidate repositories.CourseCandidate) (*models.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	course := &models.Course{
		ID:          s.nextCourseID,
		Name:        candidate.Name,
		Code:        candidate.Code,
		Description: candidate.Description,
		Instructor:  candidate.Instructor,
		Schedule:    candidate.Schedule,
		Room:        candidate.Room,
	}
	s.nextCourseID++
	s.courses[course.ID] = course

	return s.courseView(course), nil
}

// EnrollStudent links a student record to a course
func (s *Store) EnrollStudent(ctx context.Context, courseID, studentRecordID int64) (*models.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	course, ok := s.courses[courseID]
	if !ok {
		return nil, nil
	}
	if _, ok := s.students[studentRecordID]; !ok {
		return nil, nil
	}

	s.enrollments[enrollment{courseID: courseID, studentID: studentRecordID}] = struct{}{}
	return s.courseView(course), nil
}

// ListAnnouncements returns announcements newest first
func (s *Store) ListAnnouncements(ctx context.Context) ([]*models.Announcement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	announcements := make([]*models.Announcement, 0, len(s.announcements))
	for _, a := range s.announcements {
		cp := *a
		announcements = append(announcements, &cp)
	}
	sort.Slice(announcements, func(i, j int) bool {
		if announcements[i].Date.Equal(announcements[j].Date) {
			return announcements[i].ID > announcements[j].ID
		}
		return announcements[i].Date.After(announcements[j].Date)
	})
	return announcements, nil
}

// CreateAnnouncement stores a new announcement
func (s *Store) CreateAnnouncement(ctx context.Context, candidate repositories.AnnouncementCandidate) (*models.Announcement, error) {
	date := candidate.Date
	if date.IsZero() {
		date = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	announcement := &models.Announcement{
		ID:      s.nextAnnouncementID,
		Title:   candidate.Title,
		Content: candidate.Content,
		Author:  candidate.Author,
		Date:    date.UTC(),
	}
	s.nextAnnouncementID++
	s.announcements[announcement.ID] = announcement

	cp := *announcement
	return &cp, nil
}

// Ping always succeeds
func (s *Store) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op
func (s *Store) Close() error {
	return nil
}

// studentView copies student and fills its course ids. Caller holds the lock.
func (s *Store) studentView(student *models.Student) *models.Student {
	cp := *student
	cp.Courses = make([]int64, 0)
	for e := range s.enrollments {
		if e.studentID == student.ID {
			cp.Courses = append(cp.Courses, e.courseID)
		}
	}
	sort.Slice(cp.Courses, func(i, j int) bool { return cp.Courses[i] < cp.Courses[j] })
	return &cp
}

// courseView copies course and fills its student ids. Caller holds the lock.
func (s *Store) courseView(course *models.Course) *models.Course {
	cp := *course
	cp.Students = make([]int64, 0)
	for e := range s.enrollments {
		if e.courseID == course.ID {
			cp.Students = append(cp.Students, e.studentID)
		}
	}
	sort.Slice(cp.Students, func(i, j int) bool { return cp.Students[i] < cp.Students[j] })
	return &cp
}

func sortCourses(courses []*models.Course) {
	sort.Slice(courses, func(i, j int) bool { return courses[i].ID < courses[j].ID })
}
