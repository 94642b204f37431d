// Package services holds the API-layer rules that sit between the HTTP
// controllers and the record store: advisory uniqueness pre-checks and the
// translation of absent records into not-found errors.
package services

import "github.com/yigit/techroom/internal/app/repositories"

// Services groups every service built over one record store
type Services struct {
	Students      *StudentService
	Accounts      *AccountService
	Courses       *CourseService
	Announcements *AnnouncementService
	Health        *HealthService
}

// NewServices wires all services to store
func NewServices(store repositories.RecordStore) *Services {
	return &Services{
		Students:      NewStudentService(store),
		Accounts:      NewAccountService(store),
		Courses:       NewCourseService(store),
		Announcements: NewAnnouncementService(store),
		Health:        NewHealthService(store),
	}
}
