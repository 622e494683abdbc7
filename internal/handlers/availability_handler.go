package handlers

import (
	"net/http"
	"time"

	"github.com/aidos-dev/meetsync/internal/services"
	"github.com/aidos-dev/meetsync/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AvailabilityHandler manages HTTP endpoints for free/busy data and slot
// suggestions.
type AvailabilityHandler struct {
	Service *services.AvailabilityService
}

// NewAvailabilityHandler initializes a new AvailabilityHandler.
func NewAvailabilityHandler(service *services.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{Service: service}
}

// GetBusyIntervalsHandler returns the caller's coalesced busy intervals for
// [start, end).
func (h *AvailabilityHandler) GetBusyIntervalsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	start, end, err := rangeParams(r)
	if err != nil {
		http.Error(w, "Invalid start or end parameter", http.StatusBadRequest)
		return
	}

	intervals, err := h.Service.BusyIntervals(r.Context(), userID, start, end)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to compute busy intervals")
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, intervals)
}

// SuggestSlotsHandler returns candidate slots shared with a friend. Optional
// RFC 3339 `candidates` parameters override the daily template; `duration`
// defaults to 30 minutes.
func (h *AvailabilityHandler) SuggestSlotsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	friendID, err := primitive.ObjectIDFromHex(r.URL.Query().Get("friend_id"))
	if err != nil {
		http.Error(w, "Invalid friend_id parameter", http.StatusBadRequest)
		return
	}

	start, end, err := rangeParams(r)
	if err != nil {
		http.Error(w, "Invalid start or end parameter", http.StatusBadRequest)
		return
	}

	duration := 30 * time.Minute
	if raw := r.URL.Query().Get("duration"); raw != "" {
		duration, err = time.ParseDuration(raw)
		if err != nil {
			http.Error(w, "Invalid duration parameter", http.StatusBadRequest)
			return
		}
	}

	var candidates []time.Time
	for _, raw := range r.URL.Query()["candidates"] {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			http.Error(w, "Invalid candidates parameter", http.StatusBadRequest)
			return
		}
		candidates = append(candidates, t)
	}

	slots, err := h.Service.SuggestSlots(r.Context(), userID, friendID, start, end, duration, candidates)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to suggest slots")
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, slots)
}

// GetCalendarEventsHandler returns the caller's external calendar events for
// [start, end). When the feed is unavailable the list is empty and the
// degraded flag is set.
func (h *AvailabilityHandler) GetCalendarEventsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	start, end, err := rangeParams(r)
	if err != nil {
		http.Error(w, "Invalid start or end parameter", http.StatusBadRequest)
		return
	}

	events, degraded := h.Service.ExternalEvents(r.Context(), userID, start, end)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"events":   events,
		"degraded": degraded,
	})
}
