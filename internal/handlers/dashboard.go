package handlers

import (
	"net/http"

	"pixshare-backend/internal/middleware"
	"pixshare-backend/internal/services"
)

// DashboardHandler serves the account overview endpoints
type DashboardHandler struct {
	dashboardService *services.DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// Storage handles GET /dashboard/storage
func (h *DashboardHandler) Storage(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	summary, err := h.dashboardService.Storage(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// RecentAlbums handles GET /dashboard/recent-albums
func (h *DashboardHandler) RecentAlbums(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	albums, err := h.dashboardService.RecentAlbums(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"albums": albums})
}
