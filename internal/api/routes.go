package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"building-atlas/internal/db"
)

// NewRouter creates and configures the Chi router
func NewRouter(database *db.DB, fetcher Fetcher, zoning ZoningProvider) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(Logger)
	r.Use(CORS)

	// Create handlers
	h := NewHandlers(database, fetcher, zoning)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Route("/buildings", func(r chi.Router) {
			r.Get("/area", h.GetBuildingsInArea)
			r.Get("/statistics", h.GetStatistics)
			r.Get("/zoning", h.GetZoning)
			r.Post("/filter", h.FilterBuildings)
			r.Post("/refresh", h.RefreshBuildings)
			r.Get("/{buildingID}", h.GetBuilding)
		})

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", h.ListProjects)
			r.Post("/", h.SaveProject)
			r.Get("/{projectID}", h.GetProject)
			r.Delete("/{projectID}", h.DeleteProject)
		})
	})

	return r
}
