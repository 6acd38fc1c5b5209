package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/zanon-app/zanon/internal/chat"
	"github.com/zanon-app/zanon/internal/db"
)

// respondJSON writes v as a JSON response.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// respondError writes a JSON error body.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondStoreError maps repository and service errors to HTTP status
// codes. Unknown errors become a 500 with a generic body.
func (s *Server) respondStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, chat.ErrRateLimited):
		respondError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, chat.ErrDailyBudget):
		respondError(w, http.StatusTooManyRequests, err.Error())
	default:
		s.logError(r, err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON parses the request body into v. A false return means the
// response has already been written.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
