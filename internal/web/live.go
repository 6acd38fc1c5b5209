package web

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zanon-app/zanon/internal/db"
)

const statsRankingLimit = 10

type eventRequest struct {
	Artist string `json:"artist"`
	Title  string `json:"title"`
	Date   string `json:"date"` // YYYY-MM-DD
	Venue  string `json:"venue"`
}

func (req *eventRequest) parse() (time.Time, string) {
	if req.Artist == "" {
		return time.Time{}, "artist is required"
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return time.Time{}, "date must be YYYY-MM-DD"
	}
	return date, ""
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.db.Live().ListEvents(r.Context(), currentUser(r))
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, events)
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	date, msg := req.parse()
	if msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	userID := currentUser(r)
	event := &db.LiveEvent{
		ID:         uuid.New(),
		UserID:     userID,
		ShareToken: uuid.New(),
		Artist:     req.Artist,
		Title:      req.Title,
		Date:       date,
		Venue:      req.Venue,
	}
	s.enrichArtist(r, event)

	if err := s.db.Live().CreateEvent(r.Context(), event); err != nil {
		s.respondStoreError(w, r, err)
		return
	}

	if err := s.evaluator.CheckLive(r.Context(), userID); err != nil {
		s.log.Warn("achievement check failed", zap.String("user_id", userID.String()), zap.Error(err))
	}
	respondJSON(w, http.StatusCreated, event)
}

// enrichArtist fills Spotify artist metadata when the catalog client is
// configured. Lookup failures just leave the fields empty.
func (s *Server) enrichArtist(r *http.Request, event *db.LiveEvent) {
	if s.catalog == nil {
		return
	}
	artists, err := s.catalog.SearchArtists(r.Context(), event.Artist)
	if err != nil || len(artists) == 0 {
		if err != nil {
			s.log.Warn("artist lookup failed", zap.String("artist", event.Artist), zap.Error(err))
		}
		return
	}
	event.SpotifyArtistID = artists[0].ID
	event.ArtistImageURL = artists[0].Image
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	event, err := s.db.Live().GetEvent(r.Context(), currentUser(r), eventID)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, event)
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	var req eventRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	date, msg := req.parse()
	if msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	event, err := s.db.Live().GetEvent(r.Context(), currentUser(r), eventID)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	if event.Artist != req.Artist {
		event.SpotifyArtistID = ""
		event.ArtistImageURL = ""
		event.Artist = req.Artist
		s.enrichArtist(r, event)
	}
	event.Title = req.Title
	event.Date = date
	event.Venue = req.Venue

	if err := s.db.Live().UpdateEvent(r.Context(), event); err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, event)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	if err := s.db.Live().DeleteEvent(r.Context(), currentUser(r), eventID); err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ownedEvent loads the event and enforces ownership for sub-resources.
func (s *Server) ownedEvent(w http.ResponseWriter, r *http.Request) (*db.LiveEvent, bool) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return nil, false
	}
	event, err := s.db.Live().GetEvent(r.Context(), currentUser(r), eventID)
	if err != nil {
		s.respondStoreError(w, r, err)
		return nil, false
	}
	return event, true
}

func (s *Server) handleListSetlist(w http.ResponseWriter, r *http.Request) {
	event, ok := s.ownedEvent(w, r)
	if !ok {
		return
	}
	entries, err := s.db.Live().ListSetlist(r.Context(), event.ID)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

type setlistEntryRequest struct {
	SongTitle string `json:"song_title"`
	SongType  string `json:"song_type"`
	Notes     string `json:"notes"`
}

func (s *Server) handleAppendSetlistEntry(w http.ResponseWriter, r *http.Request) {
	event, ok := s.ownedEvent(w, r)
	if !ok {
		return
	}
	var req setlistEntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.SongTitle == "" {
		respondError(w, http.StatusBadRequest, "song_title is required")
		return
	}
	if req.SongType == "" {
		req.SongType = "normal"
	}
	switch req.SongType {
	case "normal", "encore", "double_encore":
	default:
		respondError(w, http.StatusBadRequest, "invalid song_type")
		return
	}

	entry := &db.SetlistEntry{
		ID:        uuid.New(),
		EventID:   event.ID,
		SongTitle: req.SongTitle,
		SongType:  req.SongType,
		Notes:     req.Notes,
	}
	if err := s.db.Live().AppendSetlistEntry(r.Context(), entry); err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleDeleteSetlistEntry(w http.ResponseWriter, r *http.Request) {
	event, ok := s.ownedEvent(w, r)
	if !ok {
		return
	}
	entryID, ok := pathUUID(w, r, "entryID")
	if !ok {
		return
	}
	if err := s.db.Live().DeleteSetlistEntry(r.Context(), event.ID, entryID); err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetTicket(w http.ResponseWriter, r *http.Request) {
	event, ok := s.ownedEvent(w, r)
	if !ok {
		return
	}
	ticket, err := s.db.Live().GetTicket(r.Context(), event.ID)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, ticket)
}

type ticketRequest struct {
	TicketType string `json:"ticket_type"`
	SeatInfo   string `json:"seat_info"`
	Price      *int   `json:"price"`
}

func (s *Server) handleUpsertTicket(w http.ResponseWriter, r *http.Request) {
	event, ok := s.ownedEvent(w, r)
	if !ok {
		return
	}
	var req ticketRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	switch req.TicketType {
	case "standing", "reserved", "arena", "vip", "other":
	default:
		respondError(w, http.StatusBadRequest, "invalid ticket_type")
		return
	}

	ticket := &db.Ticket{
		EventID:    event.ID,
		TicketType: req.TicketType,
		SeatInfo:   req.SeatInfo,
		Price:      req.Price,
	}
	if err := s.db.Live().UpsertTicket(r.Context(), ticket); err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, ticket)
}

func (s *Server) handleGetImpression(w http.ResponseWriter, r *http.Request) {
	event, ok := s.ownedEvent(w, r)
	if !ok {
		return
	}
	impression, err := s.db.Live().GetImpression(r.Context(), event.ID)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, impression)
}

type impressionRequest struct {
	Text   string `json:"text"`
	Rating int    `json:"rating"`
}

func (s *Server) handleUpsertImpression(w http.ResponseWriter, r *http.Request) {
	event, ok := s.ownedEvent(w, r)
	if !ok {
		return
	}
	var req impressionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		respondError(w, http.StatusBadRequest, "rating must be between 1 and 5")
		return
	}

	impression := &db.Impression{
		EventID: event.ID,
		Text:    req.Text,
		Rating:  req.Rating,
	}
	if err := s.db.Live().UpsertImpression(r.Context(), impression); err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, impression)
}

type liveStatsResponse struct {
	TotalEvents   int            `json:"total_events"`
	ArtistRanking []db.NameCount `json:"artist_ranking"`
	VenueRanking  []db.NameCount `json:"venue_ranking"`
	MonthlyCounts []db.NameCount `json:"monthly_counts"`
}

func (s *Server) handleLiveStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := currentUser(r)
	now := time.Now()

	total, err := s.db.Live().CountEvents(ctx, userID)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	artists, err := s.db.Live().ArtistRanking(ctx, userID, now, statsRankingLimit)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	venues, err := s.db.Live().VenueRanking(ctx, userID, now, statsRankingLimit)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	monthly, err := s.db.Live().MonthlyCounts(ctx, userID, now, 12)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, liveStatsResponse{
		TotalEvents:   total,
		ArtistRanking: artists,
		VenueRanking:  venues,
		MonthlyCounts: monthly,
	})
}
