package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zanon-app/zanon/internal/activity"
	"github.com/zanon-app/zanon/internal/db"
)

const (
	defaultSessionLimit = 20
	statsWindowDays     = 7
)

type songRequest struct {
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Difficulty int    `json:"difficulty"`
	Status     string `json:"status"`
	TargetBPM  *int   `json:"target_bpm"`
}

func (req *songRequest) validate() string {
	if req.Title == "" {
		return "title is required"
	}
	if req.Difficulty < 1 || req.Difficulty > 5 {
		return "difficulty must be between 1 and 5"
	}
	switch req.Status {
	case db.SongStatusPracticing, db.SongStatusCanPlay, db.SongStatusRest:
		return ""
	default:
		return "invalid status"
	}
}

func (s *Server) handleListSongs(w http.ResponseWriter, r *http.Request) {
	songs, err := s.db.Practice().ListSongs(r.Context(), currentUser(r), r.URL.Query().Get("status"))
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, songs)
}

func (s *Server) handleCreateSong(w http.ResponseWriter, r *http.Request) {
	var req songRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Status == "" {
		req.Status = db.SongStatusPracticing
	}
	if msg := req.validate(); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	song := &db.PracticeSong{
		ID:         uuid.New(),
		UserID:     currentUser(r),
		Title:      req.Title,
		Artist:     req.Artist,
		Difficulty: req.Difficulty,
		Status:     req.Status,
		TargetBPM:  req.TargetBPM,
	}
	if err := s.db.Practice().CreateSong(r.Context(), song); err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, song)
}

func (s *Server) handleGetSong(w http.ResponseWriter, r *http.Request) {
	songID, ok := pathUUID(w, r, "songID")
	if !ok {
		return
	}
	song, err := s.db.Practice().GetSong(r.Context(), currentUser(r), songID)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, song)
}

func (s *Server) handleUpdateSong(w http.ResponseWriter, r *http.Request) {
	songID, ok := pathUUID(w, r, "songID")
	if !ok {
		return
	}
	var req songRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	song := &db.PracticeSong{
		ID:         songID,
		UserID:     currentUser(r),
		Title:      req.Title,
		Artist:     req.Artist,
		Difficulty: req.Difficulty,
		Status:     req.Status,
		TargetBPM:  req.TargetBPM,
	}
	if err := s.db.Practice().UpdateSong(r.Context(), song); err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, song)
}

func (s *Server) handleDeleteSong(w http.ResponseWriter, r *http.Request) {
	songID, ok := pathUUID(w, r, "songID")
	if !ok {
		return
	}
	if err := s.db.Practice().DeleteSong(r.Context(), currentUser(r), songID); err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type sessionRequest struct {
	StartedAt       time.Time `json:"started_at"`
	DurationMinutes int       `json:"duration_minutes"`
	Rating          *int      `json:"rating"`
	Memo            string    `json:"memo"`
	IsQuickRecord   bool      `json:"is_quick_record"`
}

// validate allows a zero duration: a quick record of "I picked up the
// instrument" still counts toward the streak.
func (req *sessionRequest) validate() string {
	if req.DurationMinutes < 0 {
		return "duration_minutes must not be negative"
	}
	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 5) {
		return "rating must be between 1 and 5"
	}
	return ""
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}
	if req.StartedAt.IsZero() {
		req.StartedAt = time.Now()
	}

	userID := currentUser(r)
	session := &db.PracticeSession{
		ID:              uuid.New(),
		UserID:          userID,
		StartedAt:       req.StartedAt,
		DurationMinutes: req.DurationMinutes,
		Rating:          req.Rating,
		Memo:            req.Memo,
		IsQuickRecord:   req.IsQuickRecord,
	}
	if err := s.db.Practice().CreateSession(r.Context(), session); err != nil {
		s.respondStoreError(w, r, err)
		return
	}

	if err := s.evaluator.CheckPractice(r.Context(), userID); err != nil {
		s.log.Warn("achievement check failed", zap.String("user_id", userID.String()), zap.Error(err))
	}
	respondJSON(w, http.StatusCreated, session)
}

type sessionUpdateRequest struct {
	Rating *int   `json:"rating"`
	Memo   string `json:"memo"`
}

// handleUpdateSession amends rating and memo only; the logged time and
// duration are immutable.
func (s *Server) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := pathUUID(w, r, "sessionID")
	if !ok {
		return
	}
	var req sessionUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 5) {
		respondError(w, http.StatusBadRequest, "rating must be between 1 and 5")
		return
	}
	if err := s.db.Practice().UpdateSession(r.Context(), currentUser(r), sessionID, req.Rating, req.Memo); err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	limit := defaultSessionLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			respondError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}
	sessions, err := s.db.Practice().ListRecentSessions(r.Context(), currentUser(r), limit)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, sessions)
}

type practiceStatsResponse struct {
	TotalMinutes    int               `json:"total_minutes"`
	WeekSessions    int               `json:"week_sessions"`
	WeekMinutes     int               `json:"week_minutes"`
	Streak          int               `json:"streak"`
	DailyMinutes    []dayMinutes      `json:"daily_minutes"`
	PracticingSongs []db.PracticeSong `json:"practicing_songs"`
}

type dayMinutes struct {
	Date    string `json:"date"`
	Minutes int    `json:"minutes"`
}

func (s *Server) handlePracticeStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := currentUser(r)
	today := activity.Day(time.Now(), s.loc)
	weekStart := today.AddDate(0, 0, -(statsWindowDays - 1))

	total, err := s.db.Practice().TotalMinutes(ctx, userID)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	weekCount, err := s.db.Practice().SessionCount(ctx, userID, weekStart)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	daily, err := s.db.Practice().MinutesByDay(ctx, userID, weekStart, today, s.cfg.Timezone)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	dates, err := s.db.Practice().DistinctDates(ctx, userID, s.cfg.Timezone)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	songs, err := s.db.Practice().ListPracticingSongs(ctx, userID, 5)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}

	resp := practiceStatsResponse{
		TotalMinutes:    total,
		WeekSessions:    weekCount,
		Streak:          activity.Streak(today, dates),
		DailyMinutes:    make([]dayMinutes, 0, statsWindowDays),
		PracticingSongs: songs,
	}
	for d := weekStart; !d.After(today); d = d.AddDate(0, 0, 1) {
		m := daily[d]
		resp.WeekMinutes += m
		resp.DailyMinutes = append(resp.DailyMinutes, dayMinutes{
			Date:    d.Format("2006-01-02"),
			Minutes: m,
		})
	}
	respondJSON(w, http.StatusOK, resp)
}

// pathUUID parses a UUID route parameter. A false return means the
// response has already been written.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
