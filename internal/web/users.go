package web

import (
	"net/http"
)

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.db.Users().Get(r.Context(), currentUser(r))
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

type profileRequest struct {
	DisplayName string `json:"display_name"`
}

func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.DisplayName == "" {
		respondError(w, http.StatusBadRequest, "display_name is required")
		return
	}
	userID := currentUser(r)
	if err := s.db.Users().UpdateDisplayName(r.Context(), userID, req.DisplayName); err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	user, err := s.db.Users().Get(r.Context(), userID)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}
