package web

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/zanon-app/zanon/internal/db"
)

// pushStore is the subscription persistence the push handlers need.
type pushStore interface {
	CreateSubscription(ctx context.Context, sub *db.PushSubscription) error
	DeleteForUser(ctx context.Context, userID uuid.UUID, endpoint string) error
	GetPreferences(ctx context.Context, userID uuid.UUID) (*db.NotificationPreference, error)
	UpsertPreferences(ctx context.Context, prefs *db.NotificationPreference) error
}

type subscriptionRequest struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

// handleCreateSubscription stores the browser's PushSubscription JSON
// as produced by the Push API.
func (s *Server) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	var req subscriptionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Endpoint == "" || req.Keys.P256dh == "" || req.Keys.Auth == "" {
		respondError(w, http.StatusBadRequest, "endpoint and keys are required")
		return
	}

	sub := &db.PushSubscription{
		ID:       uuid.New(),
		UserID:   currentUser(r),
		Endpoint: req.Endpoint,
		P256dh:   req.Keys.P256dh,
		Auth:     req.Keys.Auth,
	}
	if err := s.push.CreateSubscription(r.Context(), sub); err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, sub)
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

func (s *Server) handleDeleteSubscription(w http.ResponseWriter, r *http.Request) {
	var req unsubscribeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Endpoint == "" {
		respondError(w, http.StatusBadRequest, "endpoint is required")
		return
	}
	if err := s.push.DeleteForUser(r.Context(), currentUser(r), req.Endpoint); err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := s.push.GetPreferences(r.Context(), currentUser(r))
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, prefs)
}

func (s *Server) handleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var req db.NotificationPreference
	if !decodeJSON(w, r, &req) {
		return
	}
	req.UserID = currentUser(r)
	if err := s.push.UpsertPreferences(r.Context(), &req); err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, req)
}
