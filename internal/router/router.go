package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/medipro/backend/api/handler"
)

type Handlers struct {
	Auth      *apiHandler.AuthHandler
	Patient   *apiHandler.PatientHandler
	Schedule  *apiHandler.ScheduleHandler
	Analytics *apiHandler.AnalyticsHandler
	Copilot   *apiHandler.CopilotHandler
	Admin     *apiHandler.AdminHandler
	Health    *apiHandler.HealthHandler
}

// Middleware carries the per-role guards the routes are wrapped with.
type Middleware struct {
	RequireDoctor func(fasthttp.RequestHandler) fasthttp.RequestHandler
	RequireAdmin  func(fasthttp.RequestHandler) fasthttp.RequestHandler
}

func New(handlers Handlers, mw Middleware) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Auth routes
	r.POST("/api/v1/auth/login", handlers.Auth.Login)
	r.POST("/api/v1/auth/logout", handlers.Auth.Logout)
	r.GET("/api/v1/auth/session", handlers.Auth.Session)
	r.POST("/api/v1/auth/recover", handlers.Auth.RequestPasswordReset)
	r.PUT("/api/v1/auth/password", handlers.Auth.UpdatePassword)

	// Clinical routes: doctor-level (admins included)
	r.GET("/api/v1/patients", mw.RequireDoctor(handlers.Patient.List))
	r.POST("/api/v1/patients", mw.RequireDoctor(handlers.Patient.Create))
	r.GET("/api/v1/patients/{id}", mw.RequireDoctor(handlers.Patient.Get))
	r.PUT("/api/v1/patients/{id}", mw.RequireDoctor(handlers.Patient.Update))
	r.DELETE("/api/v1/patients/{id}", mw.RequireDoctor(handlers.Patient.Delete))
	r.GET("/api/v1/patients/{id}/vitals", mw.RequireDoctor(handlers.Patient.ListVitals))
	r.POST("/api/v1/patients/{id}/vitals", mw.RequireDoctor(handlers.Patient.RecordVitals))

	r.GET("/api/v1/appointments", mw.RequireDoctor(handlers.Schedule.List))
	r.POST("/api/v1/appointments", mw.RequireDoctor(handlers.Schedule.Book))
	r.GET("/api/v1/appointments/{id}", mw.RequireDoctor(handlers.Schedule.Get))
	r.PUT("/api/v1/appointments/{id}/status", mw.RequireDoctor(handlers.Schedule.UpdateStatus))
	r.PUT("/api/v1/appointments/{id}/reschedule", mw.RequireDoctor(handlers.Schedule.Reschedule))
	r.DELETE("/api/v1/appointments/{id}", mw.RequireDoctor(handlers.Schedule.Cancel))

	r.GET("/api/v1/analytics/overview", mw.RequireDoctor(handlers.Analytics.Overview))

	r.POST("/api/v1/copilot/soap-note", mw.RequireDoctor(handlers.Copilot.SOAPNote))
	r.POST("/api/v1/copilot/chat", mw.RequireDoctor(handlers.Copilot.Chat))
	r.POST("/api/v1/copilot/patients/{id}/vitals-analysis", mw.RequireDoctor(handlers.Copilot.AnalyzeVitals))

	// Admin routes: strictly ADMIN
	r.GET("/api/v1/admin/users", mw.RequireAdmin(handlers.Admin.ListUsers))
	r.POST("/api/v1/admin/users", mw.RequireAdmin(handlers.Admin.InviteUser))
	r.PUT("/api/v1/admin/users/{id}/role", mw.RequireAdmin(handlers.Admin.SetRole))
	r.PUT("/api/v1/admin/users/{id}/active", mw.RequireAdmin(handlers.Admin.SetActive))
	r.DELETE("/api/v1/admin/users/{id}", mw.RequireAdmin(handlers.Admin.RemoveUser))

	return r
}
