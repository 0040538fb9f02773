// Package api assembles the HTTP surface: router, middleware stack, and the
// gateway endpoint.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	mw "github.com/articleforge/articleforge/internal/api/middleware"
)

// Dependencies holds the handlers and middleware the router wires together.
type Dependencies struct {
	Auth *mw.Auth

	HealthHandler http.HandlerFunc
	ToolsHandler  http.HandlerFunc
}

// NewRouter builds the Chi router with the middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	// Public health check
	r.Get("/api/v1/health", deps.HealthHandler)

	// Protected gateway endpoint
	r.Group(func(r chi.Router) {
		r.Use(deps.Auth.Authenticate)

		r.Post("/api/v1/tools/call", deps.ToolsHandler)
	})

	return r
}
