package handlers

import (
	"net/http"

	"github.com/aidos-dev/meetsync/internal/services"
)

// DashboardHandler serves the summary counts shown on the dashboard.
type DashboardHandler struct {
	Service *services.DashboardService
}

// NewDashboardHandler initializes a new DashboardHandler.
func NewDashboardHandler(service *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{Service: service}
}

// GetStatsHandler returns the caller's dashboard stats. Stats never fail for
// data reasons; unavailable metrics come back as zero.
func (h *DashboardHandler) GetStatsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, h.Service.Stats(r.Context(), userID))
}
