package models

// Student defines the student record stored in the 'students' table
type Student struct {
	ID         int64  `json:"id" db:"id"`                 // Store-issued identifier, never reused
	StudentID  string `json:"studentId" db:"student_id"`  // Human-facing identifier, unique
	Name       string `json:"name" db:"name"`
	Email      string `json:"email" db:"email"`
	Department string `json:"department" db:"department"`

	// Courses holds the ids of the courses this record is enrolled in
	Courses []int64 `json:"courses"`
}
