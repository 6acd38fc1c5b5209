// Package advice generates a short AI practice summary from the last
// seven days of activity, memoized in the database.
package advice

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zanon-app/zanon/internal/activity"
	"github.com/zanon-app/zanon/internal/db"
	"github.com/zanon-app/zanon/internal/gemini"
)

const (
	// maxAge is how long a cache entry stays fresh.
	maxAge = 24 * time.Hour
	// keepEntries caps retained cache rows per user.
	keepEntries = 5
	// windowDays is the aggregation window including today.
	windowDays = 7
	// songLimit caps the practicing-song list in the prompt.
	songLimit = 5
)

// CacheStore persists generated advice.
type CacheStore interface {
	Latest(ctx context.Context, userID uuid.UUID) (*db.AdviceCache, error)
	Create(ctx context.Context, entry *db.AdviceCache, keep int) error
}

// PracticeStore supplies practice aggregates for the prompt.
type PracticeStore interface {
	SessionCount(ctx context.Context, userID uuid.UUID, since time.Time) (int, error)
	MinutesByDay(ctx context.Context, userID uuid.UUID, from, to time.Time, tz string) (map[time.Time]int, error)
	DistinctDates(ctx context.Context, userID uuid.UUID, tz string) ([]time.Time, error)
	ListPracticingSongs(ctx context.Context, userID uuid.UUID, limit int) ([]db.PracticeSong, error)
}

// LiveStore supplies live event aggregates.
type LiveStore interface {
	CountEventsSince(ctx context.Context, userID uuid.UUID, from time.Time) (int, error)
}

// ProjectStore supplies composition aggregates.
type ProjectStore interface {
	CountUpdatedSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error)
}

// Generator produces the advice text. Satisfied by the gemini client.
type Generator interface {
	Generate(ctx context.Context, system string, history []gemini.Message) (string, error)
}

// Advice is what the caller gets back. FromCache distinguishes a fresh
// generation from a memoized or stale-fallback answer.
type Advice struct {
	Text        string    `json:"text"`
	GeneratedAt time.Time `json:"generated_at"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
	FromCache   bool      `json:"from_cache"`
}

// Service serves practice advice with a 24 hour cache. Generation
// failures degrade to the last cached entry, then to a static message;
// the caller never sees an error from the model.
type Service struct {
	cache    CacheStore
	practice PracticeStore
	live     LiveStore
	projects ProjectStore
	gen      Generator
	loc      *time.Location
	tz       string
	now      func() time.Time
	log      *zap.Logger
}

// NewService creates a Service. tz must be a valid IANA zone name.
func NewService(cache CacheStore, practice PracticeStore, live LiveStore, projects ProjectStore, gen Generator, tz string, log *zap.Logger) (*Service, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, err
	}
	return &Service{
		cache:    cache,
		practice: practice,
		live:     live,
		projects: projects,
		gen:      gen,
		loc:      loc,
		tz:       tz,
		now:      time.Now,
		log:      log,
	}, nil
}

// WithClock overrides the service clock. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Get returns advice for the user. A cache entry younger than 24 hours
// is returned as-is with no external call.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*Advice, error) {
	cached, err := s.cache.Latest(ctx, userID)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return nil, err
	}
	if cached != nil && s.now().Sub(cached.GeneratedAt) < maxAge {
		return fromEntry(cached, true), nil
	}

	f, err := s.gatherFacts(ctx, userID)
	if err != nil {
		return nil, err
	}

	text, err := s.gen.Generate(ctx, systemPrompt, []gemini.Message{
		{Role: "user", Text: buildPrompt(f)},
	})
	if err != nil {
		s.log.Warn("advice generation failed", zap.String("user_id", userID.String()), zap.Error(err))
		if cached != nil {
			return fromEntry(cached, true), nil
		}
		return &Advice{
			Text:        fallbackAdvice,
			GeneratedAt: s.now(),
			PeriodStart: f.PeriodStart,
			PeriodEnd:   f.PeriodEnd,
		}, nil
	}

	entry := &db.AdviceCache{
		ID:          uuid.New(),
		UserID:      userID,
		AdviceText:  text,
		PeriodStart: f.PeriodStart,
		PeriodEnd:   f.PeriodEnd,
	}
	if err := s.cache.Create(ctx, entry, keepEntries); err != nil {
		// Serve the generated text anyway; only memoization was lost.
		s.log.Error("caching advice failed", zap.String("user_id", userID.String()), zap.Error(err))
		entry.GeneratedAt = s.now()
	}
	return fromEntry(entry, false), nil
}

// gatherFacts collects the last-7-day aggregates.
func (s *Service) gatherFacts(ctx context.Context, userID uuid.UUID) (facts, error) {
	today := activity.Day(s.now(), s.loc)
	start := today.AddDate(0, 0, -(windowDays - 1))

	f := facts{PeriodStart: start, PeriodEnd: today}

	count, err := s.practice.SessionCount(ctx, userID, start)
	if err != nil {
		return f, err
	}
	f.SessionCount = count

	daily, err := s.practice.MinutesByDay(ctx, userID, start, today, s.tz)
	if err != nil {
		return f, err
	}
	f.DailyMinutes = daily
	for _, m := range daily {
		f.TotalMinutes += m
	}

	dates, err := s.practice.DistinctDates(ctx, userID, s.tz)
	if err != nil {
		return f, err
	}
	f.Streak = activity.Streak(today, dates)

	songs, err := s.practice.ListPracticingSongs(ctx, userID, songLimit)
	if err != nil {
		return f, err
	}
	for _, song := range songs {
		f.Songs = append(f.Songs, song.Title)
	}

	f.LiveCount, err = s.live.CountEventsSince(ctx, userID, start)
	if err != nil {
		return f, err
	}

	f.ComposeCount, err = s.projects.CountUpdatedSince(ctx, userID, start)
	if err != nil {
		return f, err
	}

	return f, nil
}

func fromEntry(entry *db.AdviceCache, cached bool) *Advice {
	return &Advice{
		Text:        entry.AdviceText,
		GeneratedAt: entry.GeneratedAt,
		PeriodStart: entry.PeriodStart,
		PeriodEnd:   entry.PeriodEnd,
		FromCache:   cached,
	}
}
