package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/aidos-dev/meetsync/internal/services"
	"github.com/aidos-dev/meetsync/pkg/logger"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FriendshipHandler manages HTTP endpoints for friendships.
type FriendshipHandler struct {
	Service *services.FriendshipService
}

// NewFriendshipHandler initializes a new FriendshipHandler.
func NewFriendshipHandler(service *services.FriendshipService) *FriendshipHandler {
	return &FriendshipHandler{Service: service}
}

// SendFriendRequestHandler sends a friend request to the user owning the
// given email address.
func (h *FriendshipHandler) SendFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var body struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	friendship, err := h.Service.SendRequest(r.Context(), userID, body.Email)
	if err != nil {
		logger.Log.WithError(err).Warn("Failed to send friend request")
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, friendship)
}

// GetFriendsHandler returns the caller's accepted friends.
func (h *FriendshipHandler) GetFriendsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	friends, err := h.Service.List(r.Context(), userID)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to fetch friends")
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, friends)
}

// GetPendingRequestsHandler returns incoming friend requests.
func (h *FriendshipHandler) GetPendingRequestsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	requests, err := h.Service.PendingRequests(r.Context(), userID)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to fetch pending requests")
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, requests)
}

// AcceptFriendRequestHandler accepts a pending request from the user in the
// path.
func (h *FriendshipHandler) AcceptFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	friendID, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	if err := h.Service.Accept(r.Context(), userID, friendID); err != nil {
		logger.Log.WithError(err).Warn("Failed to accept friend request")
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Friend request accepted"})
}

// RejectFriendRequestHandler rejects a pending request from the user in the
// path.
func (h *FriendshipHandler) RejectFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	friendID, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	if err := h.Service.Reject(r.Context(), userID, friendID); err != nil {
		logger.Log.WithError(err).Warn("Failed to reject friend request")
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Friend request rejected"})
}

// ToggleCloseFriendHandler flips the close-friend flag for the friend in the
// path.
func (h *FriendshipHandler) ToggleCloseFriendHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	friendID, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	friendship, err := h.Service.ToggleClose(r.Context(), userID, friendID)
	if err != nil {
		logger.Log.WithError(err).Warn("Failed to toggle close friend")
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, friendship)
}

// pathID parses the ObjectID path variable named key.
func pathID(r *http.Request, key string) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(mux.Vars(r)[key])
}
