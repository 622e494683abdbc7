package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/aidos-dev/meetsync/internal/services"
	"github.com/aidos-dev/meetsync/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MeetingHandler manages HTTP endpoints for meetings.
type MeetingHandler struct {
	Service *services.MeetingService
}

// NewMeetingHandler initializes a new MeetingHandler.
func NewMeetingHandler(service *services.MeetingService) *MeetingHandler {
	return &MeetingHandler{Service: service}
}

// CreateMeetingHandler proposes a meeting with a friend.
func (h *MeetingHandler) CreateMeetingHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var body struct {
		FriendID    string    `json:"friend_id"`
		Title       string    `json:"title"`
		Description string    `json:"description"`
		Location    string    `json:"location"`
		StartTime   time.Time `json:"start_time"`
		EndTime     time.Time `json:"end_time"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	friendID, err := primitive.ObjectIDFromHex(body.FriendID)
	if err != nil {
		http.Error(w, "Invalid friend ID", http.StatusBadRequest)
		return
	}

	meeting, err := h.Service.Propose(r.Context(), userID, friendID, body.Title, body.Description, body.StartTime, body.EndTime, body.Location)
	if err != nil {
		logger.Log.WithError(err).Warn("Failed to propose meeting")
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, meeting)
}

// GetUpcomingMeetingsHandler returns the caller's upcoming meetings.
func (h *MeetingHandler) GetUpcomingMeetingsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	meetings, err := h.Service.Upcoming(r.Context(), userID)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to fetch upcoming meetings")
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, meetings)
}

// GetMeetingsByRangeHandler returns the caller's meetings within
// [start, end), both bounds RFC 3339 query parameters.
func (h *MeetingHandler) GetMeetingsByRangeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	start, end, err := rangeParams(r)
	if err != nil {
		http.Error(w, "Invalid start or end parameter", http.StatusBadRequest)
		return
	}

	meetings, err := h.Service.ByDateRange(r.Context(), userID, start, end)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to fetch meetings by range")
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, meetings)
}

// UpdateMeetingStatusHandler applies a lifecycle transition.
func (h *MeetingHandler) UpdateMeetingStatusHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := callerID(w, r); !ok {
		return
	}

	meetingID, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "Invalid meeting ID", http.StatusBadRequest)
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	meeting, err := h.Service.UpdateStatus(r.Context(), meetingID, body.Status)
	if err != nil {
		logger.Log.WithError(err).Warn("Failed to update meeting status")
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, meeting)
}

// CancelMeetingHandler cancels a meeting.
func (h *MeetingHandler) CancelMeetingHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := callerID(w, r); !ok {
		return
	}

	meetingID, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "Invalid meeting ID", http.StatusBadRequest)
		return
	}

	meeting, err := h.Service.Cancel(r.Context(), meetingID)
	if err != nil {
		logger.Log.WithError(err).Warn("Failed to cancel meeting")
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, meeting)
}

// rangeParams parses the RFC 3339 start/end query parameters.
func rangeParams(r *http.Request) (time.Time, time.Time, error) {
	start, err := time.Parse(time.RFC3339, r.URL.Query().Get("start"))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := time.Parse(time.RFC3339, r.URL.Query().Get("end"))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}
