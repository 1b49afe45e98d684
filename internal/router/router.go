package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ouk-labs/grouper-api/internal/config"
	"github.com/ouk-labs/grouper-api/internal/handler"
	"github.com/ouk-labs/grouper-api/internal/middleware"
	"github.com/ouk-labs/grouper-api/internal/models"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	HealthHandler  *handler.HealthHandler
	AuthHandler    *handler.AuthHandler
	StudentHandler *handler.StudentHandler
	GroupHandler   *handler.GroupHandler
	AdminHandler   *handler.AdminHandler
	CatalogHandler *handler.CatalogHandler
	SeedHandler    *handler.SeedHandler
	JWTMiddleware  fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})

	api.Get("/health", deps.HealthHandler.Check)

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	auth := api.Group("/auth")
	auth.Post("/register", deps.AuthHandler.Register)
	auth.Post("/login", deps.AuthHandler.Login)
	auth.Get("/me", jwtMiddleware, deps.AuthHandler.Me)

	api.Get("/courses", deps.CatalogHandler.Courses)
	api.Get("/units", deps.CatalogHandler.Units)

	api.Get("/groups", deps.GroupHandler.List)
	api.Get("/groups/:id", deps.GroupHandler.Get)
	api.Get("/groups/:id/shared-units", deps.GroupHandler.SharedUnits)
	api.Get("/config", deps.GroupHandler.Config)

	// Registration stays sessionless so students can self-enrol; the rate
	// limiter keeps bulk scripted signups in check.
	registerLimiter := middleware.RateLimit("register", cfg.RegisterRateLimit, time.Minute)
	api.Post("/students", registerLimiter, deps.StudentHandler.Register)
	api.Get("/public/students/:studentNumber", deps.StudentHandler.PublicLookup)

	api.Get("/students/:studentNumber", jwtMiddleware, deps.StudentHandler.Lookup)
	api.Post("/student/switch-group", jwtMiddleware, deps.StudentHandler.SwitchGroup)

	admin := api.Group("/admin", jwtMiddleware, middleware.RequireRole(models.RoleAdmin))
	admin.Get("/groups", deps.GroupHandler.List)
	admin.Post("/students/:id/move", deps.AdminHandler.MoveStudent)
	admin.Patch("/groups/:id", deps.AdminHandler.UpdateContactLink)
	admin.Get("/audit-log", deps.AdminHandler.AuditLog)
	if deps.SeedHandler != nil {
		admin.Post("/seed", deps.SeedHandler.SeedCatalog)
	}

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}
