package routes

import (
	"shulehub/api/handler"
	"shulehub/api/middleware"
	"shulehub/internal/entity"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type Router struct {
	Echo           *echo.Echo
	Auth           *handler.AuthHandler
	Registration   *handler.RegistrationHandler
	Users          *handler.UserHandler
	AuthMiddleware middleware.AuthMiddleware

	// AuthRate guards credential-sensitive endpoints; GlobalRate wraps
	// the whole surface.
	AuthRate   middleware.RateLimiter
	GlobalRate middleware.RateLimiter
	Logger     *logrus.Logger
}

func (r *Router) RegisterRoutes() {
	e := r.Echo
	e.Use(middleware.RateLimit(r.GlobalRate, "global", r.Logger))

	authRate := middleware.RateLimit(r.AuthRate, "auth", r.Logger)
	requireAuth := r.AuthMiddleware.RequireAuth
	schoolStaff := middleware.RequireRole(entity.RoleSchoolAdmin, entity.RoleSuperAdmin)

	e.POST("/register/school-admin", r.Registration.RegisterSchoolAdmin, authRate)
	e.POST("/register/teacher", r.Registration.RegisterTeacher, requireAuth, schoolStaff, middleware.RequireSameSchool)
	e.POST("/register/parent", r.Registration.RegisterParent, authRate)
	e.POST("/register/learner", r.Registration.RegisterLearner, requireAuth, schoolStaff, middleware.RequireSameSchool)

	e.POST("/login", r.Auth.Login, authRate)
	e.POST("/login/mfa", r.Auth.LoginWithMFA, authRate)
	e.POST("/logout", r.Auth.Logout, requireAuth)
	e.POST("/refresh-token", r.Auth.Refresh, authRate)

	e.GET("/verify-email/:token", r.Auth.VerifyEmail, authRate)
	e.POST("/request-password-reset", r.Auth.RequestPasswordReset, authRate)
	e.POST("/reset-password", r.Auth.ResetPassword, authRate)
	e.POST("/change-password", r.Auth.ChangePassword, requireAuth)

	e.POST("/mfa/enable", r.Auth.EnableMFA, requireAuth)
	e.POST("/mfa/verify", r.Auth.VerifyMFA, requireAuth)
	e.POST("/mfa/disable", r.Auth.DisableMFA, requireAuth)

	e.GET("/learners", r.Users.ListLearners, requireAuth, schoolStaff, middleware.RequireSameSchool)

	e.GET("/users", r.Users.ListUsers, requireAuth, schoolStaff, middleware.RequireSameSchool)
	e.GET("/users/:userId", r.Users.GetUser, requireAuth, schoolStaff, middleware.RequireSameSchool)
	e.PUT("/users/:userId/status", r.Users.UpdateUserStatus, requireAuth, schoolStaff, middleware.RequireSameSchool)
}
