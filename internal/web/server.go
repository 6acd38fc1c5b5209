// Package web exposes the JSON API over chi.
package web

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/zanon-app/zanon/internal/achievements"
	"github.com/zanon-app/zanon/internal/advice"
	"github.com/zanon-app/zanon/internal/catalog"
	"github.com/zanon-app/zanon/internal/chat"
	"github.com/zanon-app/zanon/internal/db"
	"github.com/zanon-app/zanon/internal/push"
)

// Config holds the server's own settings.
type Config struct {
	Addr            string
	Timezone        string
	ShutdownTimeout time.Duration
}

// Deps bundles everything the handlers need. Catalog may be nil when
// no Spotify credentials are configured; catalog search then returns
// empty results.
type Deps struct {
	DB         *db.DB
	Advice     *advice.Service
	Chat       *chat.Service
	Evaluator  *achievements.Evaluator
	Catalog    *catalog.Client
	Dispatcher *push.Dispatcher
	Log        *zap.Logger
}

// Server is the HTTP server for the JSON API.
type Server struct {
	cfg    Config
	router chi.Router
	server *http.Server

	db         *db.DB
	push       pushStore
	advice     *advice.Service
	chat       *chat.Service
	evaluator  *achievements.Evaluator
	catalog    *catalog.Client
	dispatcher *push.Dispatcher
	loc        *time.Location
	log        *zap.Logger
}

// NewServer creates the server and wires all routes.
func NewServer(cfg Config, deps Deps) (*Server, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone: %w", err)
	}

	s := &Server{
		cfg:        cfg,
		router:     chi.NewRouter(),
		db:         deps.DB,
		push:       deps.DB.Push(),
		advice:     deps.Advice,
		chat:       deps.Chat,
		evaluator:  deps.Evaluator,
		catalog:    deps.Catalog,
		dispatcher: deps.Dispatcher,
		loc:        loc,
		log:        deps.Log,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(s.userContext)

		r.Route("/practice", func(r chi.Router) {
			r.Get("/songs", s.handleListSongs)
			r.Post("/songs", s.handleCreateSong)
			r.Get("/songs/{songID}", s.handleGetSong)
			r.Put("/songs/{songID}", s.handleUpdateSong)
			r.Delete("/songs/{songID}", s.handleDeleteSong)

			r.Get("/sessions", s.handleListSessions)
			r.Post("/sessions", s.handleCreateSession)
			r.Patch("/sessions/{sessionID}", s.handleUpdateSession)
			r.Get("/stats", s.handlePracticeStats)
		})

		r.Route("/live", func(r chi.Router) {
			r.Get("/events", s.handleListEvents)
			r.Post("/events", s.handleCreateEvent)
			r.Get("/events/{eventID}", s.handleGetEvent)
			r.Put("/events/{eventID}", s.handleUpdateEvent)
			r.Delete("/events/{eventID}", s.handleDeleteEvent)

			r.Get("/events/{eventID}/setlist", s.handleListSetlist)
			r.Post("/events/{eventID}/setlist", s.handleAppendSetlistEntry)
			r.Delete("/events/{eventID}/setlist/{entryID}", s.handleDeleteSetlistEntry)

			r.Get("/events/{eventID}/ticket", s.handleGetTicket)
			r.Put("/events/{eventID}/ticket", s.handleUpsertTicket)
			r.Get("/events/{eventID}/impression", s.handleGetImpression)
			r.Put("/events/{eventID}/impression", s.handleUpsertImpression)

			r.Get("/stats", s.handleLiveStats)

			r.Get("/expenses", s.handleListExpenses)
			r.Post("/expenses", s.handleCreateExpense)
			r.Get("/expenses/summary", s.handleExpenseSummary)
			r.Get("/expenses/{expenseID}", s.handleGetExpense)
			r.Delete("/expenses/{expenseID}", s.handleDeleteExpense)
		})

		r.Route("/compose", func(r chi.Router) {
			r.Get("/projects", s.handleListProjects)
			r.Post("/projects", s.handleCreateProject)
			r.Get("/projects/{projectID}", s.handleGetProject)
			r.Put("/projects/{projectID}", s.handleUpdateProject)
			r.Delete("/projects/{projectID}", s.handleDeleteProject)
			r.Get("/projects/{projectID}/memos", s.handleListMemos)
			r.Post("/projects/{projectID}/memos", s.handleAppendMemo)
		})

		r.Route("/theory", func(r chi.Router) {
			r.Get("/topics", s.handleListTopics)
			r.Get("/topics/{slug}", s.handleGetTopic)
			r.Post("/topics/{slug}/bookmark", s.handleToggleBookmark)
			r.Get("/bookmarks", s.handleListBookmarks)
			r.Get("/progressions", s.handleListProgressions)
			r.Post("/chat", s.handleChat)
			r.Get("/chat/history", s.handleChatHistory)
		})

		r.Get("/me", s.handleGetMe)
		r.Put("/me", s.handleUpdateMe)

		r.Get("/dashboard/home", s.handleDashboardHome)
		r.Get("/dashboard/heatmap", s.handleHeatmap)
		r.Get("/dashboard/days/{date}", s.handleDayDetail)

		r.Get("/achievements", s.handleListAchievements)
		r.Post("/achievements/unnotified", s.handlePopUnnotified)
		r.Get("/advice", s.handleAdvice)

		r.Get("/catalog/tracks", s.handleSearchTracks)
		r.Get("/catalog/artists", s.handleSearchArtists)

		r.Post("/push/subscriptions", s.handleCreateSubscription)
		r.Delete("/push/subscriptions", s.handleDeleteSubscription)
		r.Get("/push/preferences", s.handleGetPreferences)
		r.Put("/push/preferences", s.handleUpdatePreferences)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.log.Info("starting server", zap.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Run starts the server and handles graceful shutdown on interrupt.
func (s *Server) Run() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-stop:
		s.log.Info("shutting down server")
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.log.Info("server stopped")
	return nil
}
