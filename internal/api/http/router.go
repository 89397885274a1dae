package http

import (
	nethttp "net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/infonest-auth/internal/api/http/handlers"
	"github.com/spec-kit/infonest-auth/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Auth    *handlers.AuthHandler
	Me      *handlers.MeHandler
	Gate    *auth.Gate
	Metrics nethttp.Handler
}

// RegisterRoutes wires HTTP routes. Every route sits behind the
// authentication gate; exempt paths are decided by the gate itself.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Use(cfg.Gate.Handle)

	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics))
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/signup", cfg.Auth.Signup)
	authGroup.Post("/login", cfg.Auth.Login)

	api := app.Group("/api/v1", auth.RequireAuthenticated())
	api.Get("/me", cfg.Me.Get)
}
