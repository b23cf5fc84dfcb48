package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/planner/api/handler"
)

type Handlers struct {
	Auth        *apiHandler.AuthHandler
	Profile     *apiHandler.ProfileHandler
	Task        *apiHandler.TaskHandler
	Destination *apiHandler.DestinationHandler
	Terms       *apiHandler.TermsHandler
	Health      *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Auth routes
	r.POST("/api/v1/auth/telegram/login", handlers.Auth.TelegramLogin)
	r.POST("/api/v1/auth/refresh", authMiddleware(handlers.Auth.Refresh))
	r.POST("/api/v1/auth/logout", authMiddleware(handlers.Auth.Logout))
	r.GET("/api/v1/auth/me", authMiddleware(handlers.Auth.Me))

	r.GET("/api/v1/terms", handlers.Terms.List)
	r.POST("/api/v1/terms/accept", authMiddleware(handlers.Terms.Accept))
	r.GET("/api/v1/terms/accepted", authMiddleware(handlers.Terms.Accepted))

	// Protected routes
	r.GET("/api/v1/profile", authMiddleware(handlers.Profile.GetProfile))

	r.GET("/api/v1/telegram/destination", authMiddleware(handlers.Destination.Get))
	r.POST("/api/v1/telegram/destination", authMiddleware(handlers.Destination.Register))

	r.GET("/api/v1/tasks", authMiddleware(handlers.Task.GetTasks))
	r.POST("/api/v1/tasks", authMiddleware(handlers.Task.CreateTask))
	r.GET("/api/v1/tasks/{id}", authMiddleware(handlers.Task.GetTask))
	r.PUT("/api/v1/tasks/{id}", authMiddleware(handlers.Task.UpdateTask))
	r.DELETE("/api/v1/tasks/{id}", authMiddleware(handlers.Task.DeleteTask))
	r.GET("/api/v1/tasks/{id}/reminders", authMiddleware(handlers.Task.GetReminders))

	return r
}
