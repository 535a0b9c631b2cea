package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/asakaida/monban/internal/repositories"
	"github.com/asakaida/monban/internal/services"
)

// errorResponse is the JSON body for all error statuses.
type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}

// mapServiceError translates domain errors to an HTTP status and a
// client-safe message. Credential rejections, duplicate identities
// and unknown roles are all forbidden; only a store outage is a
// server-side status.
func mapServiceError(err error) (int, string) {
	switch {
	case errors.Is(err, repositories.ErrDuplicateEmail):
		return http.StatusForbidden, "credentials taken"
	case errors.Is(err, services.ErrUnknownRole):
		return http.StatusForbidden, "unknown role"
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusForbidden, "credentials incorrect"
	case errors.Is(err, repositories.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "service temporarily unavailable"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
