package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-copilot/internal/api/http/handlers"
	"github.com/spec-kit/ticket-copilot/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Metrics        *handlers.MetricsHandler
	Runs           *handlers.RunsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Metrics.Snapshot)

	v1 := app.Group("/v1", cfg.AuthMiddleware.Handle)
	v1.Post("/tickets/process", cfg.Tickets.ProcessTicket)
	if cfg.Runs != nil {
		v1.Get("/tickets/runs", auth.RequireEmployee(), cfg.Runs.List)
	}
}
