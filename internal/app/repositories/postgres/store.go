// Package postgres implements the record store on PostgreSQL through a pgx
// connection pool.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/yigit/techroom/internal/app/models"
	"github.com/yigit/techroom/internal/app/repositories"
	"github.com/yigit/techroom/internal/db"
	"github.com/yigit/techroom/internal/pkg/apperrors"
	"github.com/yigit/techroom/internal/pkg/auth"
	"github.com/yigit/techroom/internal/pkg/dberrors"
	"github.com/yigit/techroom/internal/pkg/logger"
	"github.com/yigit/techroom/internal/pkg/validation"
)

var _ repositories.RecordStore = (*Store)(nil)

// Unique constraint names from the init migration
const (
	studentIDConstraint = "students_student_id_key"
	usernameConstraint  = "accounts_username_key"
)

var studentColumns = []string{"id", "student_id", "name", "email", "department"}
var courseColumns = []string{"courses.id", "courses.name", "courses.code", "courses.description", "courses.instructor", "courses.schedule", "courses.room"}

// querier is satisfied by *pgxpool.Pool and pgx.Tx
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is the PostgreSQL record store
type Store struct {
	db     *db.PostgresDB
	sb     squirrel.StatementBuilderType
	hasher *auth.PasswordHasher
}

// NewStore creates a store over an open pool. The store closes the pool in Close.
func NewStore(pg *db.PostgresDB, hasher *auth.PasswordHasher) *Store {
	return &Store{
		db:     pg,
		sb:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		hasher: hasher,
	}
}

// readSnapshot runs fn in a read-only repeatable-read transaction so
// multi-statement reads see one consistent state.
func (s *Store) readSnapshot(ctx context.Context, fn db.TransactionFn) error {
	return s.db.WithTransactionOptions(ctx, db.ReadOnlySnapshot, fn)
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
	sql, args, err := s.sb.Select("id", "username", "password_hash", "role", "created_at").
		From("accounts").
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get account SQL")
		return nil, apperrors.NewStoreError(op, err)
	}

	var account models.Account
	err = s.db.Pool.QueryRow(ctx, sql, args...).
		Scan(&account.ID, &account.Username, &account.PasswordHash, &account.Role, &account.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		logger.Error().Err(err).Msg("Error scanning account row")
		return nil, apperrors.NewStoreError(op, err)
	}

	account.CreatedAt = account.CreatedAt.UTC()
	return &account, nil
}

// CreateAccount hashes the password and inserts the account
func (s *Store) CreateAccount(ctx context.Context, candidate repositories.AccountCandidate) (*models.Account, error) {
	hash, err := s.hasher.Hash(candidate.Password)
	if err != nil {
		logger.Error().Err(err).Str("username", candidate.Username).Msg("Error hashing account password")
		return nil, apperrors.NewStoreError("create account", err)
	}

	account := models.Account{
		Username:     candidate.Username,
		PasswordHash: hash,
		Role:         models.RoleOrDefault(candidate.Role),
	}

	sql, args, err := s.sb.Insert("accounts").
		Columns("username", "password_hash", "role").
		Values(account.Username, account.PasswordHash, string(account.Role)).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create account SQL")
		return nil, apperrors.NewStoreError("create account", err)
	}

	err = s.db.Pool.QueryRow(ctx, sql, args...).Scan(&account.ID, &account.CreatedAt)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, usernameConstraint) {
			logger.Warn().Str("username", candidate.Username).Msg("Attempted to create account with duplicate username")
			return nil, apperrors.ErrUsernameAlreadyExists
		}
		logger.Error().Err(err).Str("username", candidate.Username).Msg("Error executing create account query")
		return nil, apperrors.NewStoreError("create account", err)
	}

	account.CreatedAt = account.CreatedAt.UTC()
	logger.Info().Int64("accountID", account.ID).Str("username", account.Username).Msg("Account created successfully")
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
	err := s.readSnapshot(ctx, func(ctx context.Context, tx pgx.Tx) error {
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

// findStudent loads one student with its course ids; nil when absent
func (s *Store) findStudent(ctx context.Context, q querier, where squirrel.Eq) (*models.Student, error) {
	sql, args, err := s.sb.Select(studentColumns...).
		From("students").
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}

	var student models.Student
	err = q.QueryRow(ctx, sql, args...).
		Scan(&student.ID, &student.StudentID, &student.Name, &student.Email, &student.Department)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	student.Courses, err = s.relatedIDs(ctx, q, "course_id", squirrel.Eq{"student_id": student.ID})
	if err != nil {
		return nil, err
	}
	return &student, nil
}

// relatedIDs returns one side of the enrollments relation, ascending
func (s *Store) relatedIDs(ctx context.Context, q querier, column string, where squirrel.Eq) ([]int64, error) {
	sql, args, err := s.sb.Select(column).
		From("enrollments").
		Where(where).
		OrderBy(column).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = make([]int64, 0)
	}
	return ids, nil
}

// enrollmentMap returns the enrollments relation keyed by the key column
func (s *Store) enrollmentMap(ctx context.Context, q querier, key, value string) (map[int64][]int64, error) {
	sql, args, err := s.sb.Select(key, value).
		From("enrollments").
		OrderBy(key, value).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, sql, args...)
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
	sql, args, err := s.sb.Select(studentColumns...).
		From("students").
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, apperrors.NewStoreError("list students", err)
	}

	var students []*models.Student
	err = s.readSnapshot(ctx, func(ctx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctx, sql, args...)
		if err != nil {
			return err
		}
		students, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Student, error) {
			var student models.Student
			err := row.Scan(&student.ID, &student.StudentID, &student.Name, &student.Email, &student.Department)
			return &student, err
		})
		if err != nil {
			return err
		}

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
	if students == nil {
		students = make([]*models.Student, 0)
	}
	return students, nil
}

// CreateStudent inserts a new student record
func (s *Store) CreateStudent(ctx context.Context, candidate repositories.StudentCandidate) (*models.Student, error) {
	if !validation.ValidStudentID(candidate.StudentID) {
		return nil, apperrors.ErrInvalidStudentID
	}

	sql, args, err := s.sb.Insert("students").
		Columns("student_id", "name", "email", "department").
		Values(candidate.StudentID, candidate.Name, candidate.Email, candidate.Department).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create student SQL")
		return nil, apperrors.NewStoreError("create student", err)
	}

	student := &models.Student{
		StudentID:  candidate.StudentID,
		Name:       candidate.Name,
		Email:      candidate.Email,
		Department: candidate.Department,
		Courses:    make([]int64, 0),
	}
	err = s.db.Pool.QueryRow(ctx, sql, args...).Scan(&student.ID)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, studentIDConstraint) {
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

	sql, args, err := s.sb.Update("students").
		Set("student_id", studentID).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, apperrors.NewStoreError("update student id", err)
	}

	var student *models.Student
	err = s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, sql, args...)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		student, err = s.findStudent(ctx, tx, squirrel.Eq{"id": id})
		return err
	})
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, studentIDConstraint) {
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
	err := s.readSnapshot(ctx, func(ctx context.Context, tx pgx.Tx) error {
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

func scanCourse(row pgx.Row) (*models.Course, error) {
	var course models.Course
	err := row.Scan(&course.ID, &course.Name, &course.Code, &course.Description,
		&course.Instructor, &course.Schedule, &course.Room)
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (s *Store) findCourse(ctx context.Context, q querier, id int64) (*models.Course, error) {
	sql, args, err := s.sb.Select(courseColumns...).
		From("courses").
		Where(squirrel.Eq{"courses.id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}

	course, err := scanCourse(q.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	course.Students, err = s.relatedIDs(ctx, q, "student_id", squirrel.Eq{"course_id": course.ID})
	if err != nil {
		return nil, err
	}
	return course, nil
}

func (s *Store) listCourses(ctx context.Context, op string, builder squirrel.SelectBuilder) ([]*models.Course, error) {
	sql, args, err := builder.ToSql()
	if err != nil {
		return nil, apperrors.NewStoreError(op, err)
	}

	var courses []*models.Course
	err = s.readSnapshot(ctx, func(ctx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctx, sql, args...)
		if err != nil {
			return err
		}
		courses, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Course, error) {
			return scanCourse(row)
		})
		if err != nil {
			return err
		}

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
	if courses == nil {
		courses = make([]*models.Course, 0)
	}
	return courses, nil
}

// ListCourses returns every course ordered by id
func (s *Store) ListCourses(ctx context.Context) ([]*models.Course, error) {
	return s.listCourses(ctx, "list courses", s.sb.Select(courseColumns...).
		From("courses").
		OrderBy("courses.id"))
}

// ListStudentCourses returns the courses a student record is enrolled in
func (s *Store) ListStudentCourses(ctx context.Context, studentRecordID int64) ([]*models.Course, error) {
	return s.listCourses(ctx, "list student courses", s.sb.Select(courseColumns...).
		From("courses").
		Join("enrollments ON enrollments.course_id = courses.id").
		Where(squirrel.Eq{"enrollments.student_id": studentRecordID}).
		OrderBy("courses.id"))
}

// CreateCourse inserts a new course
func (s *Store) CreateCourse(ctx context.Context, candidate repositories.CourseCandidate) (*models.Course, error) {
	sql, args, err := s.sb.Insert("courses").
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
	if err := s.db.Pool.QueryRow(ctx, sql, args...).Scan(&course.ID); err != nil {
		logger.Error().Err(err).Str("code", candidate.Code).Msg("Error executing create course query")
		return nil, apperrors.NewStoreError("create course", err)
	}
	return course, nil
}

// EnrollStudent links a student record to a course; repeated calls are no-ops
func (s *Store) EnrollStudent(ctx context.Context, courseID, studentRecordID int64) (*models.Course, error) {
	insert, insertArgs, err := s.sb.Insert("enrollments").
		Columns("course_id", "student_id").
		Values(courseID, studentRecordID).
		Suffix("ON CONFLICT DO NOTHING").
		ToSql()
	if err != nil {
		return nil, apperrors.NewStoreError("enroll student", err)
	}

	var course *models.Course
	err = s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		existing, err := s.findCourse(ctx, tx, courseID)
		if err != nil || existing == nil {
			return err
		}
		student, err := s.findStudent(ctx, tx, squirrel.Eq{"id": studentRecordID})
		if err != nil || student == nil {
			return err
		}

		if _, err := tx.Exec(ctx, insert, insertArgs...); err != nil {
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
	sql, args, err := s.sb.Select("id", "title", "content", "author", "date").
		From("announcements").
		OrderBy("date DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, apperrors.NewStoreError("list announcements", err)
	}

	rows, err := s.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing announcements")
		return nil, apperrors.NewStoreError("list announcements", err)
	}
	announcements, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Announcement, error) {
		var a models.Announcement
		if err := row.Scan(&a.ID, &a.Title, &a.Content, &a.Author, &a.Date); err != nil {
			return nil, err
		}
		a.Date = a.Date.UTC()
		return &a, nil
	})
	if err != nil {
		logger.Error().Err(err).Msg("Error scanning announcement rows")
		return nil, apperrors.NewStoreError("list announcements", err)
	}
	if announcements == nil {
		announcements = make([]*models.Announcement, 0)
	}
	return announcements, nil
}

// CreateAnnouncement inserts a new announcement
func (s *Store) CreateAnnouncement(ctx context.Context, candidate repositories.AnnouncementCandidate) (*models.Announcement, error) {
	date := candidate.Date
	if date.IsZero() {
		date = time.Now()
	}

	sql, args, err := s.sb.Insert("announcements").
		Columns("title", "content", "author", "date").
		Values(candidate.Title, candidate.Content, candidate.Author, date).
		Suffix("RETURNING id, date").
		ToSql()
	if err != nil {
		return nil, apperrors.NewStoreError("create announcement", err)
	}

	announcement := &models.Announcement{
		Title:   candidate.Title,
		Content: candidate.Content,
		Author:  candidate.Author,
	}
	if err := s.db.Pool.QueryRow(ctx, sql, args...).Scan(&announcement.ID, &announcement.Date); err != nil {
		logger.Error().Err(err).Msg("Error executing create announcement query")
		return nil, apperrors.NewStoreError("create announcement", err)
	}
	announcement.Date = announcement.Date.UTC()
	return announcement, nil
}

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.Pool.Ping(ctx); err != nil {
		return apperrors.NewStoreError("ping", err)
	}
	return nil
}

// Close closes the connection pool
func (s *Store) Close() error {
	s.db.Close()
	return nil
}
