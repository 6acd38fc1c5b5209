package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zanon-app/zanon/internal/activity"
	"github.com/zanon-app/zanon/internal/db"
)

type dashboardHomeResponse struct {
	Streak         int    `json:"streak"`
	TotalMinutes   int    `json:"total_minutes"`
	LiveCount      int    `json:"live_count"`
	ProjectCount   int    `json:"project_count"`
	BookmarkCount  int    `json:"bookmark_count"`
	PracticedToday bool   `json:"practiced_today"`
	Today          string `json:"today"`
}

func (s *Server) handleDashboardHome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := currentUser(r)
	today := activity.Day(time.Now(), s.loc)

	dates, err := s.db.Practice().DistinctDates(ctx, userID, s.cfg.Timezone)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	total, err := s.db.Practice().TotalMinutes(ctx, userID)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	liveCount, err := s.db.Live().CountEvents(ctx, userID)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	projectCount, err := s.db.Projects().Count(ctx, userID)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	bookmarkCount, err := s.db.Theory().CountBookmarks(ctx, userID)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}

	practicedToday := false
	for _, d := range dates {
		if d.Equal(today) {
			practicedToday = true
			break
		}
	}

	respondJSON(w, http.StatusOK, dashboardHomeResponse{
		Streak:         activity.Streak(today, dates),
		TotalMinutes:   total,
		LiveCount:      liveCount,
		ProjectCount:   projectCount,
		BookmarkCount:  bookmarkCount,
		PracticedToday: practicedToday,
		Today:          today.Format("2006-01-02"),
	})
}

func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := currentUser(r)
	today := activity.Day(time.Now(), s.loc)
	from := today.AddDate(0, 0, -(activity.WindowDays - 1))

	practice, err := s.db.Practice().MinutesByDay(ctx, userID, from, today, s.cfg.Timezone)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	live, err := s.db.Live().EventsByDay(ctx, userID, from, today)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	compose, err := s.db.Projects().TouchedByDay(ctx, userID, from, today, s.cfg.Timezone)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, activity.BuildHeatmap(today, practice, live, compose))
}

type dayDetailResponse struct {
	Date     string               `json:"date"`
	Sessions []db.PracticeSession `json:"sessions"`
	Events   []db.LiveEvent       `json:"events"`
}

func (s *Server) handleDayDetail(w http.ResponseWriter, r *http.Request) {
	date, err := time.Parse("2006-01-02", chi.URLParam(r, "date"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	ctx := r.Context()
	userID := currentUser(r)

	sessions, err := s.db.Practice().ListSessionsOn(ctx, userID, date, s.cfg.Timezone)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	allEvents, err := s.db.Live().ListEvents(ctx, userID)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	events := make([]db.LiveEvent, 0)
	for _, e := range allEvents {
		if e.Date.Equal(date) {
			events = append(events, e)
		}
	}

	respondJSON(w, http.StatusOK, dayDetailResponse{
		Date:     date.Format("2006-01-02"),
		Sessions: sessions,
		Events:   events,
	})
}

func (s *Server) handleListAchievements(w http.ResponseWriter, r *http.Request) {
	earned, err := s.db.Achievements().ListForUser(r.Context(), currentUser(r))
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, earned)
}

// handlePopUnnotified returns achievements earned since the last poll
// and marks them notified, so the client shows each unlock toast once.
func (s *Server) handlePopUnnotified(w http.ResponseWriter, r *http.Request) {
	defs, err := s.db.Achievements().PopUnnotified(r.Context(), currentUser(r))
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, defs)
}

func (s *Server) handleAdvice(w http.ResponseWriter, r *http.Request) {
	result, err := s.advice.Get(r.Context(), currentUser(r))
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
