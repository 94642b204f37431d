package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yigit/techroom/internal/app/controllers"
	"github.com/yigit/techroom/internal/middleware"
	"github.com/yigit/techroom/internal/pkg/apperrors"
)

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, ctrl *controllers.Controllers) {
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	api := router.Group("/api")

	api.GET("/health", ctrl.Health.Check)

	students := api.Group("/students")
	{
		students.GET("", ctrl.Students.ListStudents)
		students.POST("", ctrl.Students.CreateStudent)
		students.GET("/:id", ctrl.Students.GetStudent)
		students.PATCH("/:id/update-student-id", ctrl.Students.UpdateStudentID)
		students.GET("/:id/courses", ctrl.Students.ListStudentCourses)
	}

	// /users is kept as an alias of /accounts for older dashboard builds
	for _, path := range []string{"/accounts", "/users"} {
		accounts := api.Group(path)
		accounts.POST("", ctrl.Accounts.CreateAccount)
		accounts.GET("/:id", ctrl.Accounts.GetAccount)
	}

	courses := api.Group("/courses")
	{
		courses.GET("", ctrl.Courses.ListCourses)
		courses.POST("", ctrl.Courses.CreateCourse)
		courses.GET("/:id", ctrl.Courses.GetCourse)
		courses.POST("/:id/enrollments", ctrl.Courses.EnrollStudent)
	}

	announcements := api.Group("/announcements")
	{
		announcements.GET("", ctrl.Announcements.ListAnnouncements)
		announcements.POST("", ctrl.Announcements.CreateAnnouncement)
	}

	router.NoRoute(func(c *gin.Context) {
		middleware.HandleAPIError(c, apperrors.NewResourceNotFoundError("Route not found"))
	})
}
