package web

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/zanon-app/zanon/internal/db"
)

func (s *Server) handleListTopics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	topics, err := s.db.Theory().ListTopics(r.Context(), q.Get("q"), q.Get("category"))
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, topics)
}

type topicDetailResponse struct {
	db.Topic
	Bookmarked bool `json:"bookmarked"`
}

func (s *Server) handleGetTopic(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	topic, err := s.db.Theory().GetTopicBySlug(r.Context(), slug)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	bookmarked, err := s.db.Theory().IsBookmarked(r.Context(), currentUser(r), topic.ID)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, topicDetailResponse{Topic: *topic, Bookmarked: bookmarked})
}

func (s *Server) handleToggleBookmark(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	topic, err := s.db.Theory().GetTopicBySlug(r.Context(), slug)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	bookmarked, err := s.db.Theory().ToggleBookmark(r.Context(), currentUser(r), topic.ID)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"bookmarked": bookmarked})
}

func (s *Server) handleListBookmarks(w http.ResponseWriter, r *http.Request) {
	topics, err := s.db.Theory().ListBookmarkedTopics(r.Context(), currentUser(r))
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, topics)
}

func (s *Server) handleListProgressions(w http.ResponseWriter, r *http.Request) {
	progressions, err := s.db.Theory().ListProgressions(r.Context(), r.URL.Query().Get("starting_chord"))
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, progressions)
}

type chatRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respondError(w, http.StatusBadRequest, "message is required")
		return
	}

	reply, err := s.chat.Ask(r.Context(), currentUser(r), req.Message)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, reply)
}

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	conv, err := s.db.Chat().GetOrCreateConversation(r.Context(), currentUser(r))
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	messages, err := s.db.Chat().ListRecentMessages(r.Context(), conv.ID, 50)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, messages)
}
