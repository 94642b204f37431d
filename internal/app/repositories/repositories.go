package repositories

import (
	"context"
	"time"

	"github.com/yigit/techroom/internal/app/models"
)

// StudentCandidate is a student record before the store assigns its id
type StudentCandidate struct {
	StudentID  string
	Name       string
	Email      string
	Department string
}

// AccountCandidate carries the raw password; stores hash it before writing
type AccountCandidate struct {
	Username string
	Password string
	Role     models.Role // empty means models.DefaultRole
}

// CourseCandidate is a course before the store assigns its id
type CourseCandidate struct {
	Name        string
	Code        string
	Description string
	Instructor  string
	Schedule    string
	Room        string
}

// AnnouncementCandidate is an announcement before the store assigns its id.
// A zero Date is replaced by the current time.
type AnnouncementCandidate struct {
	Title   string
	Content string
	Author  string
	Date    time.Time
}

// RecordStore is the persistence contract shared by every backend.
//
// Lookups of an absent record return (nil, nil). Uniqueness violations
// return apperrors.ErrStudentIDAlreadyExists or
// apperrors.ErrUsernameAlreadyExists. Backend failures are returned as
// *apperrors.StoreError and never look like absence.
type RecordStore interface {
	GetAccount(ctx context.Context, id int64) (*models.Account, error)
	GetAccountByUsername(ctx context.Context, username string) (*models.Account, error)
	CreateAccount(ctx context.Context, candidate AccountCandidate) (*models.Account, error)

	GetStudent(ctx context.Context, id int64) (*models.Student, error)
	GetStudentByStudentID(ctx context.Context, studentID string) (*models.Student, error)
	ListStudents(ctx context.Context) ([]*models.Student, error)
	CreateStudent(ctx context.Context, candidate StudentCandidate) (*models.Student, error)
	// UpdateStudentID replaces the human-facing id of record id. It returns
	// (nil, nil) when the record does not exist.
	UpdateStudentID(ctx context.Context, id int64, studentID string) (*models.Student, error)

	GetCourse(ctx context.Context, id int64) (*models.Course, error)
	ListCourses(ctx context.Context) ([]*models.Course, error)
	// ListStudentCourses returns an empty list for an unknown student
	ListStudentCourses(ctx context.Context, studentRecordID int64) ([]*models.Course, error)
	CreateCourse(ctx context.Context, candidate CourseCandidate) (*models.Course, error)
	// EnrollStudent is idempotent. It returns (nil, nil) when either side is missing.
	EnrollStudent(ctx context.Context, courseID, studentRecordID int64) (*models.Course, error)

	// ListAnnouncements returns the newest announcement first
	ListAnnouncements(ctx context.Context) ([]*models.Announcement, error)
	CreateAnnouncement(ctx context.Context, candidate AnnouncementCandidate) (*models.Announcement, error)

	Ping(ctx context.Context) error
	Close() error
}
