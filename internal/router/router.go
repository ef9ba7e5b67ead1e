package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/l33tdawg/cfp-directory-plugins/internal/config"
	"github.com/l33tdawg/cfp-directory-plugins/internal/handler"
	"github.com/l33tdawg/cfp-directory-plugins/internal/middleware"
	"github.com/l33tdawg/cfp-directory-plugins/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	SettingsHandler *handler.SettingsHandler
	ReviewHandler   *handler.ReviewHandler
	CostHandler     *handler.CostHandler
	WebhookHandler  *handler.WebhookHandler
	JWTMiddleware   fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	admin := app.Group("/api/admin", jwtMiddleware, middleware.RequireRole("admin"))

	if deps.SettingsHandler != nil {
		deps.SettingsHandler.Register(admin.Group("/settings"))
	}
	if deps.CostHandler != nil {
		deps.CostHandler.Register(admin.Group("/costs"))
	}
	if deps.WebhookHandler != nil {
		deps.WebhookHandler.Register(admin.Group("/webhooks"))
	}
	if deps.ReviewHandler != nil {
		// Manual triggers are rate limited per admin on top of the
		// service-level cooldown.
		deps.ReviewHandler.Register(admin.Group("", middleware.RateLimit("review-trigger", 30, time.Minute)))
	}
}
