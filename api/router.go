// Package api wires the HTTP surface: routing, request logging, and the
// handlers that translate between HTTP and the domain services.
package api

import (
	"net/http"

	"air_quality_api/auth"
	"air_quality_api/logger"
	"air_quality_api/models"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Router assembles the route tree.
type Router struct {
	handler *Handler
	auth    *auth.Middleware
}

// NewRouter creates a Router over the given handlers and auth middleware.
func NewRouter(handler *Handler, authMiddleware *auth.Middleware) *Router {
	return &Router{handler: handler, auth: authMiddleware}
}

// Setup builds the chi route tree.
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger)

	// Public endpoints
	r.Post("/auth/login", rt.handler.Login)
	r.Post("/users", rt.handler.CreateUser)
	r.Get("/air-quality/data", rt.handler.AirQualityData)

	// Admin endpoints
	r.Group(func(r chi.Router) {
		r.Use(rt.auth.Authenticate)
		r.Use(rt.auth.RequireRole(models.RoleAdmin))

		r.Get("/users", rt.handler.ListUsers)
		r.Put("/users/{id}", rt.handler.UpdateUser)
		r.Delete("/users/{id}", rt.handler.DeleteUser)
		r.Post("/air-quality/upload", rt.handler.UploadCSV)
	})

	return r
}

// requestLogger logs one line per request through the application logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Printf("%s %s from %s\n", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
	})
}
