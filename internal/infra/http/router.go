// Package http wires the HTTP API: router, middleware stack and server.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/planforge/api/internal/app"
	"github.com/planforge/api/internal/config"
	"github.com/planforge/api/internal/infra/http/handler"
	"github.com/planforge/api/internal/infra/http/middleware"
	"github.com/planforge/api/pkg/jwt"
	"github.com/planforge/api/pkg/logger"
	"github.com/planforge/api/pkg/validator"
)

// RouterDeps bundles what the router needs.
type RouterDeps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Tokens   *jwt.Manager
	Validate *validator.Validator

	Sessions *app.SessionService
	Invites  *app.InviteService
	Groups   *app.PermissionGroupService
	Tenants  *app.TenantService
	Users    *app.UserService
	Audits   *app.AuditService

	DB    handler.Pinger
	Redis handler.Pinger
}

// NewRouter builds the chi router with all routes registered.
func NewRouter(d RouterDeps) http.Handler {
	sessionH := handler.NewSessionHandler(d.Sessions, d.Validate)
	inviteH := handler.NewInviteHandler(d.Invites, d.Validate)
	groupH := handler.NewGroupHandler(d.Groups, d.Validate)
	tenantH := handler.NewTenantHandler(d.Tenants, d.Validate)
	userH := handler.NewUserHandler(d.Users, d.Validate)
	auditH := handler.NewAuditHandler(d.Audits)
	healthH := handler.NewHealthHandler(d.DB, d.Redis)

	auth := middleware.Auth(d.Tokens, d.Sessions, d.Logger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(d.Config.Server.RequestTimeout))
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.RateLimit(d.Config.RateLimit))
	r.Use(middleware.BodyLimit(d.Config.Server.MaxBodySize))

	r.Get("/healthz", healthH.Live)
	r.Get("/readyz", healthH.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Public surface.
		r.Post("/auth/login", sessionH.Login)
		r.Post("/auth/signup", inviteH.Signup)
		r.Get("/invites/{code}/check", inviteH.Check)

		// Authenticated surface.
		r.Group(func(r chi.Router) {
			r.Use(auth)

			r.Get("/me", userH.Me)
			r.Get("/session", sessionH.GetSession)
			r.Put("/simulation", sessionH.UpdateSimulation)
			r.Delete("/simulation", sessionH.ResetSimulation)

			r.Route("/invites", func(r chi.Router) {
				r.Post("/", inviteH.Create)
				r.Get("/", inviteH.List)
				r.Delete("/{code}", inviteH.Revoke)
			})

			r.Route("/permission-groups", func(r chi.Router) {
				r.Post("/", groupH.Create)
				r.Get("/", groupH.List)
				r.Get("/{id}", groupH.Get)
				r.Patch("/{id}", groupH.Update)
				r.Delete("/{id}", groupH.Delete)
			})

			r.Route("/tenants", func(r chi.Router) {
				r.Post("/", tenantH.Create)
				r.Get("/", tenantH.List)
				r.Get("/{id}", tenantH.Get)
				r.Patch("/{id}", tenantH.Rename)
				r.Delete("/{id}", tenantH.Deactivate)
				r.Post("/{id}/populate", tenantH.Populate)
			})

			r.Route("/users", func(r chi.Router) {
				r.Get("/", userH.List)
				r.Get("/{id}", userH.Get)
				r.Put("/{id}/role", userH.ChangeRole)
				r.Put("/{id}/permission-group", userH.SetGroup)
				r.Post("/{id}/approve", userH.Approve)
				r.Delete("/{id}", userH.Delete)
			})

			r.Route("/security-incidents", func(r chi.Router) {
				r.Get("/", auditH.List)
				r.Get("/{id}", auditH.Get)
			})
		})
	})

	return r
}
