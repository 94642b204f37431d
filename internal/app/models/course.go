package models

// Course represents a course students can be enrolled in.
type Course struct {
	ID          int64  `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Code        string `json:"code" db:"code"`
	Description string `json:"description,omitempty" db:"description"`
	Instructor  string `json:"instructor,omitempty" db:"instructor"`
	Schedule    string `json:"schedule,omitempty" db:"schedule"`
	Room        string `json:"room,omitempty" db:"room"`

	// Students holds the ids of enrolled student records
	Students []int64 `json:"students"`
}
