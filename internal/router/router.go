// Package router sets up all HTTP routes and middleware chains for the
// QuestMeraki API. It organizes routes into public, authenticated, and
// admin groups with appropriate middleware stacks.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"questmeraki/internal/handlers"
	"questmeraki/internal/middleware"
	"questmeraki/internal/store"
	"questmeraki/internal/token"
)

// loginRateLimit bounds credential-guessing on the login endpoints.
const (
	loginRateLimit  = 10
	loginRateWindow = time.Minute
)

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(issuer *token.Issuer, users *store.UserStore, auth *handlers.Auth, blogs *handlers.Blogs, admin *handlers.Admin, corsOrigins []string) chi.Router {
	r := chi.NewRouter()

	// Global middleware — applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.Authenticate(issuer, users))

	// Health check — no auth.
	r.Get("/health", healthHandler)

	loginLimiter := middleware.NewRateLimiter(loginRateLimit, loginRateWindow)

	// Account registration and login.
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", auth.Register)
		r.With(loginLimiter.Middleware).Post("/login", auth.Login)
	})

	// Admin identity surface.
	r.Route("/api/admin", func(r chi.Router) {
		r.Post("/register", auth.AdminRegister)
		r.With(loginLimiter.Middleware).Post("/login", auth.AdminLogin)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAccount)
			r.Use(middleware.RequireAdmin)
			r.Post("/2fa/setup", auth.TwoFASetup)
			r.Post("/2fa/enable", auth.TwoFAEnable)
			r.Get("/stats", admin.Stats)
		})
	})

	// Post surface.
	r.Route("/api/blogs", func(r chi.Router) {
		// Public listings and reads.
		r.Get("/", blogs.ListPublished)
		r.Get("/trending", blogs.Trending)
		r.Get("/popular", blogs.Popular)
		r.Get("/download/{id}", blogs.Download)
		r.Post("/{id}/view", blogs.TrackView)
		r.Get("/{id}/views", blogs.ViewCount)
		r.Get("/{id}", blogs.Get)

		// Authenticated operations.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAccount)
			r.Post("/", blogs.Create)
			r.Get("/user/post", blogs.MyBlogs)
			r.Get("/user/{id}/role", auth.UserRole)
			r.Put("/{id}", blogs.Update)
			r.Delete("/{id}", blogs.Delete)
		})

		// Moderation — admin only.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAccount)
			r.Use(middleware.RequireAdmin)
			r.Get("/pending", admin.Pending)
			r.Get("/admin/all", admin.ListAll)
			r.Patch("/{id}/status", admin.UpdateStatus)
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
