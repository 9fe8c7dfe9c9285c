package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/AnshRaj112/profiledir-backend/internal/handlers"
	"github.com/AnshRaj112/profiledir-backend/internal/middleware"
)

// Deps are the handlers and middleware the router mounts.
type Deps struct {
	Auth          *handlers.AuthHandler
	Dashboard     *handlers.DashboardHandler
	SessionStream *handlers.SessionStreamHandler
	AuthState     middleware.AuthStateSource
	CookieName    string
	Logger        *zap.Logger
}

func SetupRoutes(r chi.Router, d Deps) {
	// Health check
	r.Get("/health", handlers.Health)

	// Public pages and forms
	r.Get("/", handlers.ServeHome)
	r.Get("/register", handlers.ServeRegisterForm)
	r.Post("/register", d.Auth.ServeRegister)
	r.Get("/login", handlers.ServeLoginForm)
	r.Post("/login", d.Auth.ServeLogin)

	// Auth-state stream; the handler runs its own gate
	r.With(middleware.SessionStreamRateLimit(d.CookieName)).
		Get("/ws/session", d.SessionStream.ServeSessionStream)

	// Gated routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionGate(d.AuthState, d.CookieName, d.Logger))
		r.Get("/dashboard", d.Dashboard.ServeDashboard)
		r.Post("/logout", d.Dashboard.ServeLogout)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})
}
