package controllers

import "github.com/yigit/techroom/internal/app/services"

// Controllers groups every HTTP controller
type Controllers struct {
	Students      *StudentController
	Accounts      *AccountController
	Courses       *CourseController
	Announcements *AnnouncementController
	Health        *HealthController
}

// NewControllers builds the controllers over svcs
func NewControllers(svcs *services.Services) *Controllers {
	return &Controllers{
		Students:      NewStudentController(svcs.Students),
		Accounts:      NewAccountController(svcs.Accounts),
		Courses:       NewCourseController(svcs.Courses),
		Announcements: NewAnnouncementController(svcs.Announcements),
		Health:        NewHealthController(svcs.Health),
	}
}
