package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ROHAN-089/namma-city/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health *handlers.HealthHandler
	SLA    *handlers.SLAHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	issues := app.Group("/issues")
	issues.Get("/sla/statistics", cfg.SLA.Statistics)
	issues.Get("/sla/overdue", cfg.SLA.Overdue)
	issues.Post("/sla/escalate", cfg.SLA.Escalate)
	issues.Get("/:id/sla", cfg.SLA.Progress)
	issues.Put("/:id/sla", cfg.SLA.UpdatePriority)
}
