package dto

import "github.com/yigit/techroom/internal/app/repositories"

// CreateStudentRequest represents the body of POST /api/students
type CreateStudentRequest struct {
	StudentID  string `json:"studentId" binding:"required,studentid" example:"S12345678"`
	Name       string `json:"name" binding:"required,max=255" example:"John Doe"`
	Email      string `json:"email" binding:"required,email,max=255" example:"john.doe@university.edu"`
	Department string `json:"department" binding:"required,max=255" example:"Computer Science"`
}

// ToCandidate converts the request to a store candidate
func (r CreateStudentRequest) ToCandidate() repositories.StudentCandidate {
	return repositories.StudentCandidate{
		StudentID:  r.StudentID,
		Name:       r.Name,
		Email:      r.Email,
		Department: r.Department,
	}
}

// UpdateStudentIDRequest represents the body of PATCH /api/students/:id/update-student-id
type UpdateStudentIDRequest struct {
	StudentID string `json:"studentId" binding:"required,studentid" example:"S99999999"`
}
