package api

import (
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/go-chi/chi/v5"

	"github.com/chronicle-app/chronicle/internal/api/handler"
	"github.com/chronicle-app/chronicle/internal/api/middleware"
	"github.com/chronicle-app/chronicle/internal/auth"
	"github.com/chronicle-app/chronicle/internal/expense"
	"github.com/chronicle-app/chronicle/internal/metadata"
	"github.com/chronicle-app/chronicle/internal/settings"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	DBPinger    handler.DBPinger
	Version     string
	Production  bool
	AuthService *auth.Service
	Users       auth.UserStore
	Guard       *auth.CSRFGuard
	Settings    settings.Repository
	Expenses    expense.Repository
	Metadata    metadata.Repository
}

// NewRouter creates and configures a Chi router with all middleware and routes.
//
// Everything under /api passes through the session and CSRF middleware; the
// allow-listed paths (/api/status, /api/set-cookie) and /metrics are exempt
// inside those middleware rather than mounted on a separate chain, so the
// request scope and logging still cover them.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestScope)
	r.Use(middleware.Recovery)
	r.Use(chimiddleware.Logger)
	r.Use(middleware.Metrics)
	r.Use(middleware.Auth(deps.Users, deps.Settings))
	r.Use(middleware.CSRF(deps.Guard))

	r.Handle("/metrics", promhttp.Handler())

	statusHandler := handler.NewStatusHandler(deps.DBPinger, deps.Version)
	r.Get("/api/status", statusHandler.ServeHTTP)

	bootstrapHandler := handler.NewBootstrapHandler(deps.AuthService, deps.Users, deps.Guard, deps.Production)
	r.Get("/api/set-cookie", bootstrapHandler.ServeHTTP)

	userHandler := handler.NewUserHandler(deps.AuthService, deps.Production)
	r.Get("/api/me", userHandler.Me)
	r.Post("/api/logout", userHandler.Logout)
	r.Put("/api/me/password", userHandler.UpdatePassword)

	expenseHandler := handler.NewExpenseHandler(deps.Expenses, deps.Metadata)
	r.Route("/api/expenses", func(r chi.Router) {
		r.Post("/", expenseHandler.Create)
		r.Get("/", expenseHandler.List)
		r.Get("/{id}", expenseHandler.GetByID)
		r.Put("/{id}", expenseHandler.Update)
		r.Delete("/{id}", expenseHandler.Delete)
	})

	settingsHandler := handler.NewSettingsHandler(deps.Settings)
	r.Route("/api/settings", func(r chi.Router) {
		r.Get("/", settingsHandler.Get)
		r.Post("/payment-methods", settingsHandler.AddPaymentMethod)
		r.Delete("/payment-methods/{name}", settingsHandler.RemovePaymentMethod)
		r.Post("/groups", settingsHandler.AddExpenseGroup)
		r.Put("/groups/{id}", settingsHandler.UpdateExpenseGroup)
		r.Delete("/groups/{id}", settingsHandler.RemoveExpenseGroup)
	})

	return r
}
