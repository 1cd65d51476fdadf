/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the wizard frontend

ROUTE GROUPS:
  /api/sessions/*   Wizard session lifecycle, sections, allocations, submit
  /metrics          Prometheus scrape endpoint

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.CreateSession)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetSession)
				r.Delete("/", h.DeleteSession)
				r.Put("/sections/{section}", h.UpdateSection)
				r.Post("/advance", h.AdvanceStep)
				r.Get("/warnings", h.GetWarnings)
				r.Post("/extraction", h.ApplyExtraction)
				r.Post("/submit", h.Submit)

				r.Route("/allocations/{allocationID}", func(r chi.Router) {
					r.Post("/cost", h.EditAllocationCost)
					r.Post("/releases", h.AddRelease)
					r.Post("/releases/suggest", h.SuggestReleases)
					r.Get("/releases/summary", h.ReleaseSummary)
					r.Put("/releases/{releaseID}", h.UpdateRelease)
					r.Delete("/releases/{releaseID}", h.RemoveRelease)
				})
			})
		})
	})

	r.Method("GET", "/metrics", MetricsHandler())

	return r
}
