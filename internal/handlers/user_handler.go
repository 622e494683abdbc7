package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/aidos-dev/meetsync/internal/config"
	"github.com/aidos-dev/meetsync/internal/services"
	jwtutil "github.com/aidos-dev/meetsync/pkg/jwt"
	"github.com/aidos-dev/meetsync/pkg/logger"
	"github.com/aidos-dev/meetsync/pkg/middleware"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserHandler manages HTTP endpoints for accounts and sessions.
type UserHandler struct {
	Service *services.UserService
	Config  *config.Config
}

// NewUserHandler initializes a new UserHandler.
func NewUserHandler(service *services.UserService, cfg *config.Config) *UserHandler {
	return &UserHandler{Service: service, Config: cfg}
}

// RegisterUserHandler creates a new account.
func (h *UserHandler) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	user, err := h.Service.Register(r.Context(), body.Name, body.Email, body.Password)
	if err != nil {
		logger.Log.WithError(err).Warn("Registration failed")
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, user.Public())
}

// LoginUserHandler verifies credentials and issues a JWT.
func (h *UserHandler) LoginUserHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	user, err := h.Service.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		logger.Log.WithField("email", body.Email).Warn("Login failed")
		respondError(w, err)
		return
	}

	token, err := jwtutil.GenerateToken(user.ID.Hex(), user.Email, h.Config.JWTSecret, h.Config.TokenExpiry)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to sign token")
		http.Error(w, "Failed to issue token", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user.Public(),
	})
}

// GetProfileHandler returns the authenticated user's own profile.
func (h *UserHandler) GetProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	user, err := h.Service.Get(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// SetCalendarFeedHandler connects or disconnects the caller's calendar feed.
func (h *UserHandler) SetCalendarFeedHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var body struct {
		FeedURL string `json:"feed_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if err := h.Service.SetCalendarFeed(r.Context(), userID, body.FeedURL); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Calendar feed updated"})
}

// callerID pulls the authenticated user's id from the request context,
// writing a 401 when the request carries no valid claims.
func callerID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return primitive.NilObjectID, false
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		logger.Log.WithError(err).Warn("Token carried a malformed user id")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return primitive.NilObjectID, false
	}

	return userID, true
}
