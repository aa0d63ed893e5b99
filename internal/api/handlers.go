package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"building-atlas/internal/db"
	"building-atlas/internal/models"
	"building-atlas/internal/pipeline"
	"building-atlas/internal/reconcile"
)

const defaultLimit = 500

// Fetcher runs one fetch-and-merge pipeline pass.
type Fetcher interface {
	Fetch(ctx context.Context, bounds models.Bounds, limit int, known []models.Building) ([]models.Building, error)
}

// ZoningProvider exposes the raw zoning lookup list to the dashboard.
type ZoningProvider interface {
	FetchRefs(ctx context.Context, bounds models.Bounds, limit int) ([]models.ZoningRef, error)
}

// Handlers contains HTTP handlers and their dependencies
type Handlers struct {
	db      *db.DB
	fetcher Fetcher
	zoning  ZoningProvider
}

// NewHandlers creates a new Handlers instance
func NewHandlers(database *db.DB, fetcher Fetcher, zoning ZoningProvider) *Handlers {
	return &Handlers{db: database, fetcher: fetcher, zoning: zoning}
}

// Health handles GET /api/health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetBuildingsInArea handles GET /api/buildings/area. With refresh=true,
// or when the store is empty, it runs the pipeline and persists the
// result; otherwise it serves the cached set for the bounds.
func (h *Handlers) GetBuildingsInArea(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	bounds, err := models.ParseBounds(q.Get("bounds"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bounds parameter is required (format: lat_min,lng_min,lat_max,lng_max)")
		return
	}

	limit := defaultLimit
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	refresh := q.Get("refresh") == "true"

	count, err := h.db.CountBuildings()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var buildings []models.Building
	cacheStatus := "cached"

	if refresh || count == 0 {
		cacheStatus = "fresh"
		known, err := h.db.ListBuildings(db.BuildingFilter{Bounds: &bounds, Limit: limit})
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		buildings, err = h.fetcher.Fetch(r.Context(), bounds, limit, known)
		if err != nil {
			if errors.Is(err, pipeline.ErrAllSourcesFailed) {
				writeError(w, http.StatusBadGateway, "failed to fetch building data")
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		h.storeBuildings(buildings)
	} else {
		buildings, err = h.db.ListBuildings(db.BuildingFilter{Bounds: &bounds, Limit: limit})
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"buildings":    buildings,
		"statistics":   reconcile.Statistics(buildings),
		"bounds":       bounds.String(),
		"cache_status": cacheStatus,
	})
}

// GetBuilding handles GET /api/buildings/{buildingID}
func (h *Handlers) GetBuilding(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "buildingID")

	building, err := h.db.GetBuilding(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "building not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"building": building,
	})
}

// filterRequest is the POST /api/buildings/filter body.
type filterRequest struct {
	Filters *models.Filter `json:"filters"`
	Bounds  string         `json:"bounds"`
}

// FilterBuildings handles POST /api/buildings/filter
func (h *Handlers) FilterBuildings(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "request body is required")
		return
	}
	if req.Filters == nil {
		writeError(w, http.StatusBadRequest, "filters parameter is required")
		return
	}

	filter := db.BuildingFilter{Limit: defaultLimit}
	if req.Bounds != "" {
		bounds, err := models.ParseBounds(req.Bounds)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.Bounds = &bounds
	}

	buildings, err := h.db.ListBuildings(filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	matched := make([]models.Building, 0, len(buildings))
	for _, b := range buildings {
		if b.MatchesFilter(*req.Filters) {
			matched = append(matched, b)
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":         true,
		"buildings":       matched,
		"statistics":      reconcile.Statistics(matched),
		"filter_criteria": req.Filters,
		"total_matched":   len(matched),
	})
}

// RefreshBuildings handles POST /api/buildings/refresh
func (h *Handlers) RefreshBuildings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Bounds string `json:"bounds"`
		Limit  int    `json:"limit"`
	}
	// Body is optional; default to the downtown core.
	_ = json.NewDecoder(r.Body).Decode(&req)

	bounds := models.Bounds{LatMin: 51.042, LngMin: -114.075, LatMax: 51.048, LngMax: -114.065}
	if req.Bounds != "" {
		parsed, err := models.ParseBounds(req.Bounds)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		bounds = parsed
	}
	if req.Limit <= 0 {
		req.Limit = defaultLimit
	}

	buildings, err := h.fetcher.Fetch(r.Context(), bounds, req.Limit, nil)
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to fetch building data")
		return
	}
	saved := h.storeBuildings(buildings)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":         true,
		"buildings_count": saved,
	})
}

// GetStatistics handles GET /api/buildings/statistics
func (h *Handlers) GetStatistics(w http.ResponseWriter, r *http.Request) {
	filter := db.BuildingFilter{Limit: 10000}
	if v := r.URL.Query().Get("bounds"); v != "" {
		if bounds, err := models.ParseBounds(v); err == nil {
			filter.Bounds = &bounds
		}
	}

	buildings, err := h.db.ListBuildings(filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"statistics": reconcile.Statistics(buildings),
	})
}

// GetZoning handles GET /api/buildings/zoning
func (h *Handlers) GetZoning(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	bounds, err := models.ParseBounds(q.Get("bounds"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bounds parameter is required (format: lat_min,lng_min,lat_max,lng_max)")
		return
	}

	limit := 1000
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	refs, err := h.zoning.FetchRefs(r.Context(), bounds, limit)
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to fetch zoning data")
		return
	}

	out := make([]map[string]interface{}, 0, len(refs))
	for _, ref := range refs {
		out = append(out, map[string]interface{}{
			"zone_code": ref.Code,
			"latitude":  ref.Latitude,
			"longitude": ref.Longitude,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"zoning_data": out,
		"count":       len(out),
	})
}

// ListProjects handles GET /api/projects
func (h *Handlers) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.db.ListProjects()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"projects": projects,
	})
}

// SaveProject handles POST /api/projects
func (h *Handlers) SaveProject(w http.ResponseWriter, r *http.Request) {
	var project db.Project
	if err := json.NewDecoder(r.Body).Decode(&project); err != nil {
		writeError(w, http.StatusBadRequest, "request body is required")
		return
	}
	if project.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	if err := h.db.SaveProject(&project); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"project": project,
	})
}

// GetProject handles GET /api/projects/{projectID}
func (h *Handlers) GetProject(w http.ResponseWriter, r *http.Request) {
	project, err := h.db.GetProject(chi.URLParam(r, "projectID"))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "project not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"project": project,
	})
}

// DeleteProject handles DELETE /api/projects/{projectID}
func (h *Handlers) DeleteProject(w http.ResponseWriter, r *http.Request) {
	err := h.db.DeleteProject(chi.URLParam(r, "projectID"))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "project not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handlers) storeBuildings(buildings []models.Building) int {
	saved := 0
	for i := range buildings {
		if err := h.db.UpsertBuilding(&buildings[i]); err != nil {
			log.Printf("failed to save building %s: %v", buildings[i].SourceID, err)
			continue
		}
		saved++
	}
	return saved
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
