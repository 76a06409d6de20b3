package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/assistencia-service/internal/api/http/handlers"
	"github.com/spec-kit/assistencia-service/internal/auth"
	"github.com/spec-kit/assistencia-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Items          *handlers.ItemsHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle)

	chamados := api.Group("/chamados")
	chamados.Post("/", cfg.Tickets.CreateTicket)
	chamados.Get("/:id", cfg.Tickets.GetTicket)
	chamados.Post("/:id/itens", cfg.Tickets.AddItem)
	chamados.Get("/:id/historico", cfg.Tickets.ListHistory)

	itens := api.Group("/itens")
	itens.Get("/:id", cfg.Items.GetItem)
	itens.Get("/:id/sla", cfg.Items.GetSLA)
	itens.Post("/:id/transicoes/:operacao", cfg.Items.ApplyTransition)
}
