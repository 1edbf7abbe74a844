package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-core/internal/api/http/handlers"
	"github.com/spec-kit/support-core/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Ratings        *handlers.RatingsHandler
	Sessions       *handlers.SessionsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	authGroup := app.Group("/auth")
	authGroup.Post("/customers/register", cfg.Auth.RegisterCustomer)
	authGroup.Post("/customers/login", cfg.Auth.LoginCustomer)
	authGroup.Post("/engineers/login", cfg.Auth.LoginEngineer)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle)
	tickets.Post("", auth.RequireCustomer(), cfg.Tickets.CreateTicket)
	tickets.Get("", auth.RequireAuthenticated(), cfg.Tickets.ListTickets)
	tickets.Get("/queue", auth.RequireEngineer(), cfg.Tickets.Queue)
	tickets.Get("/:id", auth.RequireAuthenticated(), cfg.Tickets.GetTicket)
	tickets.Post("/:id/claim", auth.RequireEngineer(), cfg.Tickets.Claim)
	tickets.Post("/:id/awaiting-confirmation", auth.RequireEngineer(), cfg.Tickets.MarkAwaitingConfirmation)
	tickets.Post("/:id/confirm", auth.RequireCustomer(), cfg.Tickets.ConfirmCompletion)
	tickets.Post("/:id/pending-payment", auth.RequireEngineer(), cfg.Tickets.MarkPendingPayment)
	tickets.Get("/:id/rating", auth.RequireAuthenticated(), cfg.Ratings.GetTicketRating)
	tickets.Get("/:id/sessions", auth.RequireAuthenticated(), cfg.Sessions.ListTicketSessions)

	ratings := app.Group("/ratings", cfg.AuthMiddleware.Handle)
	ratings.Post("", auth.RequireCustomer(), cfg.Ratings.CreateRating)
	ratings.Get("", auth.RequireAuthenticated(), cfg.Ratings.ListMyRatings)
	ratings.Patch("/:id", auth.RequireCustomer(), cfg.Ratings.UpdateRating)

	sessions := app.Group("/sessions", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	sessions.Post("/chat", cfg.Sessions.CreateChat)
	sessions.Post("/code-share", cfg.Sessions.CreateCodeShare)
	sessions.Get("/:id", cfg.Sessions.GetSession)
	sessions.Post("/:id/close", cfg.Sessions.CloseSession)
}
