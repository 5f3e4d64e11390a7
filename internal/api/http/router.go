package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jobboard/job-board/internal/api/http/handlers"
	"github.com/jobboard/job-board/internal/auth"
	"github.com/jobboard/job-board/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Jobs           *handlers.JobsHandler
	Applications   *handlers.ApplicationsHandler
	Uploads        *handlers.UploadsHandler
	Dashboard      *handlers.DashboardHandler
	AuthMiddleware *auth.AuthMiddleware
	// UploadsDir is served under /uploads when documents are stored on local disk.
	UploadsDir     string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)

	app.Get("/jobs", cfg.Jobs.List)
	app.Get("/jobs/:id", cfg.Jobs.Get)

	if cfg.UploadsDir != "" {
		app.Static("/uploads", cfg.UploadsDir)
	}

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.UserRoleAdmin))
	admin.Put("/profile", cfg.Auth.UpdateAdminProfile)

	protected := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	protected.Post("/jobs", cfg.Jobs.Create)
	protected.Put("/jobs/:id", cfg.Jobs.Update)
	protected.Delete("/jobs/:id", cfg.Jobs.Delete)
	protected.Get("/jobs/:id/applicants", cfg.Jobs.Applicants)
	protected.Get("/jobs/:id/applicants/:applicationId", cfg.Jobs.Applicant)
	protected.Post("/jobs/:id/apply", cfg.Applications.Submit)

	protected.Get("/applications", cfg.Applications.Mine)
	protected.Patch("/applications/:id/status", cfg.Applications.UpdateStatus)

	protected.Post("/uploads", cfg.Uploads.Upload)
	protected.Get("/dashboard", cfg.Dashboard.Get)
}
