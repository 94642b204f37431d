// Package sqlite implements the record store on a SQLite file using the
// pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/yigit/techroom/internal/app/models"
	"github.com/yigit/techroom/internal/app/repositories"
	"github.com/yigit/techroom/internal/pkg/apperrors"
	"github.com/yigit/techroom/internal/pkg/auth"
	"github.com/yigit/techroom/internal/pkg/dberrors"
	"github.com/yigit/techroom/internal/pkg/helpers"
	"github.com/yigit/techroom/internal/pkg/logger"
	"github.com/yigit/techroom/internal/pkg/validation"
)

var _ repositories.RecordStore = (*Store)(nil)

var studentColumns = []string{"id", "student_id", "name", "email", "department"}
var courseColumns = []string{"id", "name", "code", "description", "instructor", "schedule", "room"}

// DefaultRetryConfig retries operations that hit a locked database
var DefaultRetryConfig = helpers.RetryConfig{
	MaxRetries:  5,
	BaseDelay:   10 * time.Millisecond,
	MaxDelay:    time.Second,
	ShouldRetry: dberrors.IsSQLiteBusy,
}

// queryer is satisfied by *sql.DB and *sql.Tx
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is the SQLite record store. Schema is applied by the migrations package.
type Store struct {
	db     *sql.DB
	sb     squirrel.StatementBuilderType
	hasher *auth.PasswordHasher
	retry  helpers.RetryConfig
}

// NewStore wraps an open database handle. The store owns sqlDB and closes it in Close.
func NewStore(sqlDB *sql.DB, hasher *auth.PasswordHasher) *Store {
	return &Store{
		db:     sqlDB,
		sb:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		hasher: hasher,
		retry:  DefaultRetryConfig,
	}
}

func toMicros(t time.Time) int64 {
	return t.UTC().UnixMicro()
}

func fromMicros(v int64) time.Time {
	return time.UnixMicro(v).UTC()
}

// do runs op, retrying while the database is locked
func (s *Store) do(ctx context.Context, op func() error) error {
	return helpers.Retry(ctx, s.retry, op)
}

// inTx runs fn inside a transaction, retrying the whole transaction while
// the database is locked.
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return s.do(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		if err := fn(tx); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.Error().Err(rbErr).Msg("Failed to rollback transaction")
			}
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil
	})
}

// GetAccount retrieves an account by id
func (s *Store) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	return s.getAccount(ctx, "get account", squirrel.Eq{"id": id})
}

// GetAccountByUsername retrieves an account by username
func (s *Store) GetAccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	return s.getAccount(ctx, "get account by username", squirrel.Eq{"username": username})
}

func (s *Store) getAccount(ctx context.Context, op string, where squirrel.Eq) (*models.Account, error) {
	query, args, err := s.sb.Select("id", "username", "password_hash", "role", "created_at").
		From("accounts").
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, apperrors.NewStoreError(op, err)
	}

	var (
		account   models.Account
		createdAt int64
		found     bool
	)
	err = s.do(ctx, func() error {
		err := s.db.QueryRowContext(ctx, query, args...).
			Scan(&account.ID, &account.Username, &account.PasswordHash, &account.Role, &createdAt)
		if errors.Is(err, sql.ErrNoRows) {
			found = false
			return nil
		}
		found = err == nil
		return err
	})
	if err != nil {
		logger.Error().Err(err).Msg("Error scanning account row")
		return nil, apperrors.NewStoreError(op, err)
	}
	if !found {
		return nil, nil
	}
	account.CreatedAt = fromMicros(createdAt)
	return &account, nil
}

// CreateAccount hashes the password and inserts the account
func (s *Store) CreateAccount(ctx context.Context, candidate repositories.AccountCandidate) (*models.Account, error) {
	hash, err := s.hasher.Hash(candidate.Password)
	if err != nil {
		return nil, apperrors.NewStoreError("create account", err)
	}

	account := models.Account{
		Username:     candidate.Username,
		PasswordHash: hash,
		Role:         models.RoleOrDefault(candidate.Role),
		CreatedAt:    fromMicros(toMicros(time.Now())),
	}

	query, args, err := s.sb.Insert("accounts").
		Columns("username", "password_hash", "role", "created_at").
		Values(account.Username, account.PasswordHash, string(account.Role), toMicros(account.CreatedAt)).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, apperrors.NewStoreError("create account", err)
	}

	err = s.do(ctx, func() error {
		return s.db.QueryRowContext(ctx, query, args...).Scan(&account.ID)
	})
	if err != nil {
		if dberrors.IsSQLiteUniqueViolation(err, "accounts.username") {
			logger.Warn().Str("username", candidate.Username).Msg("Attempted to create account with duplicate username")
			return nil, apperrors.ErrUsernameAlreadyExists
		}
		logger.Error().Err(err).Str("username", candidate.Username).Msg("Error executing create account query")
		return nil, apperrors.NewStoreError("create account", err)
	}

	return &account, nil
}

// GetStudent retrieves a student record by id
func (s *Store) GetStudent(ctx context.Context, id int64) (*models.Student, error) {
	return s.getStudent(ctx, "get student", squirrel.Eq{"id": id})
}

// GetStudentByStudentID retrieves a student record by its human-facing id
func (s *Store) GetStudentByStudentID(ctx context.Context, studentID string) (*models.Student, error) {
	return s.getStudent(ctx, "get student by student id", squirrel.Eq{"student_id": studentID})
}

func (s *Store) getStudent(ctx context.Context, op string, where squirrel.Eq) (*models.Student, error) {
	var student *models.Student
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		student, err = s.findStudent(ctx, tx, where)
		return err
	})
	if err != nil {
		logger.Error().Err(err).Msg("Error retrieving student")
		return nil, apperrors.NewStoreError(op, err)
	}
	return student, nil
}

// findStudent loads one student and its course ids; nil when absent
func (s *Store) findStudent(ctx context.Context, q queryer, where squirrel.Eq) (*models.Student, error) {
	query, args, err := s.sb.Select(studentColumns...).
		From("students").
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}

	var student models.Student
	err = q.QueryRowContext(ctx, query, args...).
		Scan(&student.ID, &student.StudentID, &student.Name, &student.Email, &student.Department)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	student.Courses, err = s.relatedIDs(ctx, q, "course_id", squirrel.Eq{"student_id": student.ID})
	if err != nil {
		return nil, err
	}
	return &student, nil
}

// relatedIDs returns one side of the enrollments relation, ascending
func (s *Store) relatedIDs(ctx context.Context, q queryer, column string, where squirrel.Eq) ([]int64, error) {
	query, args, err := s.sb.Select(column).
		From("enrollments").
		Where(where).
		OrderBy(column).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// enrollmentMap returns the enrollments relation keyed by key column
func (s *Store) enrollmentMap(ctx context.Context, q queryer, key, value string) (map[int64][]int64, error) {
	query, args, err := s.sb.Select(key, value).
		From("enrollments").
		OrderBy(key, value).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[int64][]int64)
	for rows.Next() {
		var k, v int64
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		result[k] = append(result[k], v)
	}
	return result, rows.Err()
}

// ListStudents returns every student record ordered by id
func (s *Store) ListStudents(ctx context.Context) ([]*models.Student, error) {
	query, args, err := s.sb.Select(studentColumns...).
		From("students").
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, apperrors.NewStoreError("list students", err)
	}

	var students []*models.Student
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		students = make([]*models.Student, 0)

		rows, err := tx.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var student models.Student
			if err := rows.Scan(&student.ID, &student.StudentID, &student.Name, &student.Email, &student.Department); err != nil {
				return err
			}
			students = append(students, &student)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		rows.Close()

		courses, err := s.enrollmentMap(ctx, tx, "student_id", "course_id")
		if err != nil {
			return err
		}
		for _, student := range students {
			student.Courses = courses[student.ID]
			if student.Courses == nil {
				student.Courses = make([]int64, 0)
			}
		}
		return nil
	})
	if err != nil {
		logger.Error().Err(err).Msg("Error listing students")
		return nil, apperrors.NewStoreError("list students", err)
	}
	return students, nil
}

// CreateStudent inserts a new student record
func (s *Store) CreateStudent(ctx context.Context, candidate repositories.StudentCandidate) (*models.Student, error) {
	if !validation.ValidStudentID(candidate.StudentID) {
		return nil, apperrors.ErrInvalidStudentID
	}

	query, args, err := s.sb.Insert("students").
		Columns("student_id", "name", "email", "department").
		Values(candidate.StudentID, candidate.Name, candidate.Email, candidate.Department).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, apperrors.NewStoreError("create student", err)
	}

	student := &models.Student{
		StudentID:  candidate.StudentID,
		Name:       candidate.Name,
		Email:      candidate.Email,
		Department: candidate.Department,
		Courses:    make([]int64, 0),
	}
	err = s.do(ctx, func() error {
		return s.db.QueryRowContext(ctx, query, args...).Scan(&student.ID)
	})
	if err != nil {
		if dberrors.IsSQLiteUniqueViolation(err, "students.student_id") {
			logger.Warn().Str("studentID", candidate.StudentID).Msg("Attempted to create student with duplicate student ID")
			return nil, apperrors.ErrStudentIDAlreadyExists
		}
		logger.Error().Err(err).Str("studentID", candidate.StudentID).Msg("Error executing create student query")
		return nil, apperrors.NewStoreError("create student", err)
	}

	logger.Info().Int64("id", student.ID).Str("studentID", student.StudentID).Msg("Student created successfully")
	return student, nil
}

// UpdateStudentID sets the studentId of record id
func (s *Store) UpdateStudentID(ctx context.Context, id int64, studentID string) (*models.Student, error) {
	if !validation.ValidStudentID(studentID) {
		return nil, apperrors.ErrInvalidStudentID
	}

	query, args, err := s.sb.Update("students").
		Set("student_id", studentID).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, apperrors.NewStoreError("update student id", err)
	}

	var student *models.Student
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			student = nil
			return nil
		}
		student, err = s.findStudent(ctx, tx, squirrel.Eq{"id": id})
		return err
	})
	if err != nil {
		if dberrors.IsSQLiteUniqueViolation(err, "students.student_id") {
			logger.Warn().Int64("id", id).Str("studentID", studentID).Msg("Attempted to update student with duplicate student ID")
			return nil, apperrors.ErrStudentIDAlreadyExists
		}
		logger.Error().Err(err).Int64("id", id).Msg("Error executing update student id query")
		return nil, apperrors.NewStoreError("update student id", err)
	}
	return student, nil
}

// GetCourse retrieves a course by id
func (s *Store) GetCourse(ctx context.Context, id int64) (*models.Course, error) {
	var course *models.Course
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		course, err = s.findCourse(ctx, tx, id)
		return err
	})
	if err != nil {
		logger.Error().Err(err).Int64("courseID", id).Msg("Error retrieving course")
		return nil, apperrors.NewStoreError("get course", err)
	}
	return course, nil
}

func (s *Store) findCourse(ctx context.Context, q queryer, id int64) (*models.Course, error) {
	query, args, err := s.sb.Select(courseColumns...).
		From("courses").
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}

	var course models.Course
	err = q.QueryRowContext(ctx, query, args...).Scan(
		&course.ID, &course.Name, &course.Code, &course.Description,
		&course.Instructor, &course.Schedule, &course.Room)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	course.Students, err = s.relatedIDs(ctx, q, "student_id", squirrel.Eq{"course_id": course.ID})
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// listCourses loads courses matching builder with their student ids
func (s *Store) listCourses(ctx context.Context, op string, builder squirrel.SelectBuilder) ([]*models.Course, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, apperrors.NewStoreError(op, err)
	}

	var courses []*models.Course
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		courses = make([]*models.Course, 0)

		rows, err := tx.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var course models.Course
			if err := rows.Scan(&course.ID, &course.Name, &course.Code, &course.Description,
				&course.Instructor, &course.Schedule, &course.Room); err != nil {
				return err
			}
			courses = append(courses, &course)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		rows.Close()

		students, err := s.enrollmentMap(ctx, tx, "course_id", "student_id")
		if err != nil {
			return err
		}
		for _, course := range courses {
			course.Students = students[course.ID]
			if course.Students == nil {
				course.Students = make([]int64, 0)
			}
		}
		return nil
	})
	if err != nil {
		logger.Error().Err(err).Msg("Error listing courses")
		return nil, apperrors.NewStoreError(op, err)
	}
	return courses, nil
}

func (s *Store) courseSelect() squirrel.SelectBuilder {
	columns := make([]string, len(courseColumns))
	for i, c := range courseColumns {
		columns[i] = "courses." + c
	}
	return s.sb.Select(columns...).From("courses")
}

// ListCourses returns every course ordered by id
func (s *Store) ListCourses(ctx context.Context) ([]*models.Course, error) {
	return s.listCourses(ctx, "list courses", s.courseSelect().OrderBy("courses.id"))
}

// ListStudentCourses returns the courses a student record is enrolled in
func (s *Store) ListStudentCourses(ctx context.Context, studentRecordID int64) ([]*models.Course, error) {
	return s.listCourses(ctx, "list student courses", s.courseSelect().
		Join("enrollments ON enrollments.course_id = courses.id").
		Where(squirrel.Eq{"enrollments.student_id": studentRecordID}).
		OrderBy("courses.id"))
}

// CreateCourse inserts a new course
func (s *Store) CreateCourse(ctx context.Context, candidate repositories.CourseCandidate) (*models.Course, error) {
	query, args, err := s.sb.Insert("courses").
		Columns("name", "code", "description", "instructor", "schedule", "room").
		Values(candidate.Name, candidate.Code, candidate.Description, candidate.Instructor, candidate.Schedule, candidate.Room).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, apperrors.NewStoreError("create course", err)
	}

	course := &models.Course{
		Name:        candidate.Name,
		Code:        candidate.Code,
		Description: candidate.Description,
		Instructor:  candidate.Instructor,
		Schedule:    candidate.Schedule,
		Room:        candidate.Room,
		Students:    make([]int64, 0),
	}
	err = s.do(ctx, func() error {
		return s.db.QueryRowContext(ctx, query, args...).Scan(&course.ID)
	})
	if err != nil {
		logger.Error().Err(err).Str("code", candidate.Code).Msg("Error executing create course query")
		return nil, apperrors.NewStoreError("create course", err)
	}
	return course, nil
}

// EnrollStudent links a student record to a course; repeated calls are no-ops
func (s *Store) EnrollStudent(ctx context.Context, courseID, studentRecordID int64) (*models.Course, error) {
	insert, insertArgs, err := s.sb.Insert("enrollments").
		Options("OR IGNORE").
		Columns("course_id", "student_id").
		Values(courseID, studentRecordID).
		ToSql()
	if err != nil {
		return nil, apperrors.NewStoreError("enroll student", err)
	}

	var course *models.Course
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		course = nil

		exists, err := s.findCourse(ctx, tx, courseID)
		if err != nil || exists == nil {
			return err
		}
		student, err := s.findStudent(ctx, tx, squirrel.Eq{"id": studentRecordID})
		if err != nil || student == nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, insert, insertArgs...); err != nil {
			return err
		}

		course, err = s.findCourse(ctx, tx, courseID)
		return err
	})
	if err != nil {
		logger.Error().Err(err).Int64("courseID", courseID).Int64("studentID", studentRecordID).Msg("Error enrolling student")
		return nil, apperrors.NewStoreError("enroll student", err)
	}
	return course, nil
}

// ListAnnouncements returns announcements newest first
func (s *Store) ListAnnouncements(ctx context.Context) ([]*models.Announcement, error) {
	query, args, err := s.sb.Select("id", "title", "content", "author", "date").
		From("announcements").
		OrderBy("date DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, apperrors.NewStoreError("list announcements", err)
	}

	var announcements []*models.Announcement
	err = s.do(ctx, func() error {
		announcements = make([]*models.Announcement, 0)

		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				a    models.Announcement
				date int64
			)
			if err := rows.Scan(&a.ID, &a.Title, &a.Content, &a.Author, &date); err != nil {
				return err
			}
			a.Date = fromMicros(date)
			announcements = append(announcements, &a)
		}
		return rows.Err()
	})
	if err != nil {
		logger.Error().Err(err).Msg("Error listing announcements")
		return nil, apperrors.NewStoreError("list announcements", err)
	}
	return announcements, nil
}

// CreateAnnouncement inserts a new announcement
func (s *Store) CreateAnnouncement(ctx context.Context, candidate repositories.AnnouncementCandidate) (*models.Announcement, error) {
	date := candidate.Date
	if date.IsZero() {
		date = time.Now()
	}

	announcement := &models.Announcement{
		Title:   candidate.Title,
		Content: candidate.Content,
		Author:  candidate.Author,
		Date:    fromMicros(toMicros(date)),
	}

	query, args, err := s.sb.Insert("announcements").
		Columns("title", "content", "author", "date").
		Values(announcement.Title, announcement.Content, announcement.Author, toMicros(announcement.Date)).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, apperrors.NewStoreError("create announcement", err)
	}

	err = s.do(ctx, func() error {
		return s.db.QueryRowContext(ctx, query, args...).Scan(&announcement.ID)
	})
	if err != nil {
		logger.Error().Err(err).Msg("Error executing create announcement query")
		return nil, apperrors.NewStoreError("create announcement", err)
	}
	return announcement, nil
}

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return apperrors.NewStoreError("ping", err)
	}
	return nil
}

// Close closes the database handle
func (s *Store) Close() error {
	return s.db.Close()
}
