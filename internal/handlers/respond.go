package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aidos-dev/meetsync/pkg/apperrors"
	"github.com/aidos-dev/meetsync/pkg/logger"
)

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// respondError maps a typed service error onto an HTTP status and a JSON
// body. Untyped errors become an opaque 500; their details stay in the logs.
func respondError(w http.ResponseWriter, err error) {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		logger.Log.WithError(err).Error("Unclassified error reached the handler")
		respondJSON(w, http.StatusInternalServerError, map[string]string{"message": "internal error"})
		return
	}

	status := http.StatusInternalServerError
	switch appErr.Kind {
	case apperrors.KindInvalidArgument:
		status = http.StatusBadRequest
	case apperrors.KindNotFound:
		status = http.StatusNotFound
	case apperrors.KindPermission:
		status = http.StatusForbidden
	case apperrors.KindConflict:
		status = http.StatusConflict
	case apperrors.KindInvalidState:
		status = http.StatusUnprocessableEntity
	case apperrors.KindUnavailable:
		status = http.StatusServiceUnavailable
	}

	respondJSON(w, status, appErr)
}
