package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/naturebeauty/storefront-api/internal/api/http/handlers"
	"github.com/naturebeauty/storefront-api/internal/auth"
	"github.com/naturebeauty/storefront-api/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health   *handlers.HealthHandler
	Accounts *handlers.AccountsHandler
	OAuth    *handlers.OAuthHandler
	Gate     *auth.Gate
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	if cfg.Health != nil {
		app.Get("/health/live", cfg.Health.Live)
		app.Get("/health/ready", cfg.Health.Ready)
	}

	api := app.Group("/api/v1")
	api.Get("/session", cfg.Gate.Optional, handlers.Session)

	accounts := api.Group("/accounts")
	accounts.Post("/signup", cfg.Accounts.SignUp)
	accounts.Post("/login", cfg.Accounts.SignIn)
	accounts.Get("/logout", cfg.Accounts.SignOut)
	accounts.Post("/forgotPassword", cfg.Accounts.ForgotPassword)
	accounts.Patch("/resetPassword/:token", cfg.Accounts.ResetPassword)

	accounts.Patch("/updateMyPassword", cfg.Gate.Protect, cfg.Accounts.UpdatePassword)
	accounts.Get("/me", cfg.Gate.Protect, cfg.Accounts.Me)
	accounts.Get("/:id", cfg.Gate.Protect, auth.RestrictTo(domain.RoleAdmin), cfg.Accounts.GetAccount)

	if cfg.OAuth != nil {
		oauthGroup := app.Group("/auth")
		oauthGroup.Get("/:provider", cfg.OAuth.Start)
		oauthGroup.Get("/:provider/callback", cfg.OAuth.Callback)
	}
}
