package dto

import "github.com/yigit/techroom/internal/app/repositories"

// CreateCourseRequest represents the body of POST /api/courses
type CreateCourseRequest struct {
	Name        string `json:"name" binding:"required,max=255" example:"Distributed Systems"`
	Code        string `json:"code" binding:"required,min=2,max=50" example:"CS401"`
	Description string `json:"description" binding:"omitempty,max=2000"`
	Instructor  string `json:"instructor" binding:"omitempty,max=255" example:"Dr. Smith"`
	Schedule    string `json:"schedule" binding:"omitempty,max=255" example:"Mon/Wed 10:00"`
	Room        string `json:"room" binding:"omitempty,max=100" example:"B-204"`
}

// ToCandidate converts the request to a store candidate
func (r CreateCourseRequest) ToCandidate() repositories.CourseCandidate {
	return repositories.CourseCandidate{
		Name:        r.Name,
		Code:        r.Code,
		Description: r.Description,
		Instructor:  r.Instructor,
		Schedule:    r.Schedule,
		Room:        r.Room,
	}
}

// EnrollmentRequest represents the body of POST /api/courses/:id/enrollments
type EnrollmentRequest struct {
	StudentRecordID int64 `json:"studentRecordId" binding:"required,gt=0" example:"1"`
}
