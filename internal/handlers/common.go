package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"costume-vote-backend/internal/repository"
	"costume-vote-backend/internal/services"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

// decodeJSON parses a JSON request body
func decodeJSON(r *http.Request, dst interface{}) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, payload interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

// respondServiceError maps a service error to an HTTP response: typed
// rejections become 4xx with their specific message and code, not-found
// becomes 404, anything else a generic 500. The caller logs the detail;
// internals never leak to the client.
func respondServiceError(w http.ResponseWriter, err error) {
	var rej *services.Rejection
	if errors.As(err, &rej) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(rejectionStatus(rej))
		json.NewEncoder(w).Encode(ErrorResponse{Error: rej.Message, Code: rej.Code})
		return
	}
	if errors.Is(err, repository.ErrNotFound) {
		respondError(w, "not found", http.StatusNotFound)
		return
	}
	respondError(w, "internal error", http.StatusInternalServerError)
}

func rejectionStatus(rej *services.Rejection) int {
	switch rej.Code {
	case services.ErrAlreadyVoted.Code, services.ErrPhoneRegistered.Code:
		return http.StatusConflict
	case services.ErrEntriesNotFound.Code:
		return http.StatusNotFound
	case services.ErrVotingClosed.Code, services.ErrUploadsClosed.Code, services.ErrNotEligible.Code:
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}
