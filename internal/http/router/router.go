// Package router wires middlewares and controllers into the HTTP surface.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authsvc "github.com/gussmann/loyalty-auth/internal/auth"
	"github.com/gussmann/loyalty-auth/internal/domain/repository"
	adminctrl "github.com/gussmann/loyalty-auth/internal/http/controllers/admin"
	authctrl "github.com/gussmann/loyalty-auth/internal/http/controllers/auth"
	healthctrl "github.com/gussmann/loyalty-auth/internal/http/controllers/health"
	mw "github.com/gussmann/loyalty-auth/internal/http/middlewares"
	"github.com/gussmann/loyalty-auth/internal/rate"
)

// Deps carries everything the router needs.
type Deps struct {
	Service *authsvc.Service

	// Optional per-route limiters; nil disables the middleware.
	LoginLimiter rate.Limiter
	ResetLimiter rate.Limiter

	// Optional health checks.
	Health *healthctrl.Controller
}

// New builds the chi router with the full route table.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.WithRequestID())
	r.Use(mw.WithLogging())
	r.Use(mw.WithRecover())

	authController := authctrl.NewController(deps.Service)
	adminController := adminctrl.NewController(deps.Service)
	requireAuth := mw.WithBearerAuth(deps.Service)
	requireAdmin := mw.RequireRole(
		string(repository.RoleAdmin),
		string(repository.RoleSuperAdmin),
	)

	r.Route("/v1/auth", func(r chi.Router) {
		r.With(mw.WithRateLimit(deps.LoginLimiter)).
			Post("/login", authController.Login)
		r.Post("/refresh", authController.Refresh)
		r.Post("/logout", authController.Logout)
		r.With(mw.WithRateLimit(deps.ResetLimiter)).
			Post("/password/reset", authController.ResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/me", authController.Me)
			r.Put("/password", authController.ChangePassword)
		})
	})

	r.Route("/v1/admin/accounts", func(r chi.Router) {
		r.Use(requireAuth, requireAdmin)
		r.Get("/", adminController.List)
		r.Post("/", adminController.Create)
		r.Put("/{id}/status", adminController.SetStatus)
	})

	health := deps.Health
	if health == nil {
		health = healthctrl.NewController()
	}
	r.Get("/healthz", health.Healthz)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
