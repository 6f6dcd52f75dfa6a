package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/ar-tracker/internal/api/http/handlers"
	"github.com/spec-kit/ar-tracker/internal/auth"
	"github.com/spec-kit/ar-tracker/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Escalations    *handlers.EscalationsHandler
	Metrics        *handlers.MetricsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// NewApp builds a fiber app with the shared error shape and middlewares installed.
func NewApp(appName string, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               appName,
		DisableStartupMessage: true,
		ErrorHandler:          ErrorHandler(logger, metrics),
	})
	RegisterMiddlewares(app, logger, metrics, timeout)
	return app
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Metrics.Get)
	app.Get("/catalog", cfg.Tickets.Catalog)

	authed := cfg.AuthMiddleware.Handle

	app.Get("/tickets", authed, cfg.Tickets.ListTickets)
	app.Post("/tickets", authed, cfg.Tickets.CreateTicket)
	app.Post("/tickets/:arNumber/status", authed, cfg.Tickets.ChangeStatus)
	app.Get("/search", authed, cfg.Tickets.Search)
	app.Get("/ticketdetails", authed, cfg.Tickets.GetDetails)
	app.Post("/ticketdetails", authed, cfg.Tickets.SaveDetails)
	app.Get("/escalations", authed, cfg.Escalations.List)
	app.Get("/report", authed, auth.RequireStaff(), cfg.Tickets.Report)
}
