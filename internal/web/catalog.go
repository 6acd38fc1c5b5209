package web

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/zanon-app/zanon/internal/catalog"
)

// Catalog search degrades to empty results when the client is not
// configured or the upstream call fails; autocomplete is never a hard
// dependency.

func (s *Server) handleSearchTracks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondError(w, http.StatusBadRequest, "q is required")
		return
	}
	if s.catalog == nil {
		respondJSON(w, http.StatusOK, []catalog.Track{})
		return
	}
	tracks, err := s.catalog.SearchTracks(r.Context(), query)
	if err != nil {
		s.log.Warn("track search failed", zap.String("query", query), zap.Error(err))
		respondJSON(w, http.StatusOK, []catalog.Track{})
		return
	}
	respondJSON(w, http.StatusOK, tracks)
}

func (s *Server) handleSearchArtists(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondError(w, http.StatusBadRequest, "q is required")
		return
	}
	if s.catalog == nil {
		respondJSON(w, http.StatusOK, []catalog.Artist{})
		return
	}
	artists, err := s.catalog.SearchArtists(r.Context(), query)
	if err != nil {
		s.log.Warn("artist search failed", zap.String("query", query), zap.Error(err))
		respondJSON(w, http.StatusOK, []catalog.Artist{})
		return
	}
	respondJSON(w, http.StatusOK, artists)
}
