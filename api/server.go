/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. CORS:       Cross-origin requests for frontend clients

ROUTE GROUPS:
  /api/health              Liveness probe
  /api/specialties/match   Specialty resolution
  /api/scenario            One provider, one scenario
  /api/batch               Full roster modeling
  /api/optimizer/jobs/*    Background CF optimization
  /api/optimizer/sweep     Fixed-percentile what-if
  /api/runs/*              Archived run retrieval
  /api/compare             Run comparison

SECURITY NOTE:
  No authentication middleware. Deploy behind an authenticating proxy.

SEE ALSO:
  - handlers.go: Handler implementations
  - jobs.go:     Background job manager
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Post("/specialties/match", h.MatchSpecialty)
		r.Post("/scenario", h.ComputeScenario)
		r.Post("/batch", h.RunBatch)

		r.Route("/optimizer", func(r chi.Router) {
			r.Post("/sweep", h.RunSweep)
			r.Route("/jobs", func(r chi.Router) {
				r.Get("/", h.ListOptimizeJobs)
				r.Post("/", h.StartOptimizeJob)
				r.Get("/{id}", h.GetOptimizeJob)
				r.Delete("/{id}", h.CancelOptimizeJob)
			})
		})

		r.Route("/runs", func(r chi.Router) {
			r.Get("/", h.ListRuns)
			r.Get("/{id}", h.GetRun)
			r.Delete("/{id}", h.DeleteRun)
		})

		r.Post("/compare", h.CompareRuns)
	})

	return r
}
