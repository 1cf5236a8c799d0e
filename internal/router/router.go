package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/khazandria-api/internal/config"
	"github.com/noah-isme/khazandria-api/internal/handler"
	"github.com/noah-isme/khazandria-api/internal/middleware"
	"github.com/noah-isme/khazandria-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ActivityHandler    *handler.ActivityHandler
	GroupHandler       *handler.GroupHandler
	StudentHandler     *handler.StudentHandler
	SessionHandler     *handler.SessionHandler
	GlobalGradeHandler *handler.GlobalGradeHandler
	ReportHandler      *handler.ReportHandler
	AuditHandler       *handler.AuditHandler
	SeedHandler        *handler.SeedHandler
	HealthProbes       []handler.HealthProbe
	JWTMiddleware      fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes...))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Health is registered above, so it stays ahead of the auth stack.
	secured := api.Group("", jwtMiddleware, middleware.RateLimit("api", cfg.RateLimitMax, cfg.RateLimitWindow))
	if deps.ActivityHandler != nil {
		deps.ActivityHandler.Register(secured)
	}
	if deps.GroupHandler != nil {
		deps.GroupHandler.Register(secured)
	}
	if deps.StudentHandler != nil {
		deps.StudentHandler.Register(secured)
	}
	if deps.SessionHandler != nil {
		deps.SessionHandler.Register(secured)
	}
	if deps.GlobalGradeHandler != nil {
		deps.GlobalGradeHandler.Register(secured)
	}
	if deps.ReportHandler != nil {
		deps.ReportHandler.Register(secured)
	}
	if deps.AuditHandler != nil {
		deps.AuditHandler.Register(secured)
	}
	if deps.SeedHandler != nil {
		deps.SeedHandler.Register(secured)
	}
}
