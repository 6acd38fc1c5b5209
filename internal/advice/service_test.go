package advice

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zanon-app/zanon/internal/db"
	"github.com/zanon-app/zanon/internal/gemini"
)

type fakeCache struct {
	latest  *db.AdviceCache
	created []*db.AdviceCache
	keep    int
}

func (c *fakeCache) Latest(context.Context, uuid.UUID) (*db.AdviceCache, error) {
	if c.latest == nil {
		return nil, db.ErrNotFound
	}
	return c.latest, nil
}

func (c *fakeCache) Create(_ context.Context, entry *db.AdviceCache, keep int) error {
	entry.GeneratedAt = time.Now()
	c.created = append(c.created, entry)
	c.keep = keep
	return nil
}

type fakeFacts struct {
	sessionCount int
	daily        map[time.Time]int
	dates        []time.Time
	songs        []db.PracticeSong
	liveCount    int
	composeCount int
}

func (f *fakeFacts) SessionCount(context.Context, uuid.UUID, time.Time) (int, error) {
	return f.sessionCount, nil
}

func (f *fakeFacts) MinutesByDay(context.Context, uuid.UUID, time.Time, time.Time, string) (map[time.Time]int, error) {
	return f.daily, nil
}

func (f *fakeFacts) DistinctDates(context.Context, uuid.UUID, string) ([]time.Time, error) {
	return f.dates, nil
}

func (f *fakeFacts) ListPracticingSongs(context.Context, uuid.UUID, int) ([]db.PracticeSong, error) {
	return f.songs, nil
}

func (f *fakeFacts) CountEventsSince(context.Context, uuid.UUID, time.Time) (int, error) {
	return f.liveCount, nil
}

func (f *fakeFacts) CountUpdatedSince(context.Context, uuid.UUID, time.Time) (int, error) {
	return f.composeCount, nil
}

type fakeGenerator struct {
	reply   string
	err     error
	calls   int
	prompts []string
}

func (g *fakeGenerator) Generate(_ context.Context, _ string, history []gemini.Message) (string, error) {
	g.calls++
	g.prompts = append(g.prompts, history[len(history)-1].Text)
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

func newTestService(t *testing.T, cache *fakeCache, facts *fakeFacts, gen *fakeGenerator, now time.Time) *Service {
	t.Helper()
	s, err := NewService(cache, facts, facts, facts, gen, "UTC", zap.NewNop())
	require.NoError(t, err)
	return s.WithClock(func() time.Time { return now })
}

func TestGetFreshCacheSkipsGeneration(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	cache := &fakeCache{latest: &db.AdviceCache{
		AdviceText:  "cached advice",
		GeneratedAt: now.Add(-23 * time.Hour),
	}}
	gen := &fakeGenerator{reply: "new advice"}
	s := newTestService(t, cache, &fakeFacts{}, gen, now)

	got, err := s.Get(context.Background(), uuid.New())
	require.NoError(t, err)

	assert.Equal(t, "cached advice", got.Text)
	assert.True(t, got.FromCache)
	assert.Zero(t, gen.calls)
	assert.Empty(t, cache.created)
}

func TestGetStaleCacheRegenerates(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	cache := &fakeCache{latest: &db.AdviceCache{
		AdviceText:  "old advice",
		GeneratedAt: now.Add(-25 * time.Hour),
	}}
	gen := &fakeGenerator{reply: "new advice"}
	s := newTestService(t, cache, &fakeFacts{sessionCount: 3}, gen, now)

	got, err := s.Get(context.Background(), uuid.New())
	require.NoError(t, err)

	assert.Equal(t, "new advice", got.Text)
	assert.False(t, got.FromCache)
	assert.Equal(t, 1, gen.calls)
	require.Len(t, cache.created, 1)
	assert.Equal(t, 5, cache.keep)
	assert.Equal(t, "new advice", cache.created[0].AdviceText)
}

func TestGetPromptContainsFacts(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	today := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	facts := &fakeFacts{
		sessionCount: 4,
		daily: map[time.Time]int{
			today:                   30,
			today.AddDate(0, 0, -1): 45,
		},
		dates:        []time.Time{today, today.AddDate(0, 0, -1)},
		songs:        []db.PracticeSong{{Title: "Autumn Leaves"}, {Title: "Giant Steps"}},
		liveCount:    1,
		composeCount: 2,
	}
	gen := &fakeGenerator{reply: "ok"}
	s := newTestService(t, &fakeCache{}, facts, gen, now)

	_, err := s.Get(context.Background(), uuid.New())
	require.NoError(t, err)

	require.Len(t, gen.prompts, 1)
	prompt := gen.prompts[0]
	assert.Contains(t, prompt, "2026-03-04 to 2026-03-10")
	assert.Contains(t, prompt, "Practice sessions: 4")
	assert.Contains(t, prompt, "Total practice time: 75 minutes")
	assert.Contains(t, prompt, "Current daily streak: 2 days")
	assert.Contains(t, prompt, "Autumn Leaves, Giant Steps")
	assert.Contains(t, prompt, "Live shows attended: 1")
	assert.Contains(t, prompt, "Composition projects worked on: 2")
}

func TestGetGenerationFailureFallsBackToStaleCache(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	cache := &fakeCache{latest: &db.AdviceCache{
		AdviceText:  "old advice",
		GeneratedAt: now.Add(-48 * time.Hour),
	}}
	gen := &fakeGenerator{err: errors.New("model unavailable")}
	s := newTestService(t, cache, &fakeFacts{}, gen, now)

	got, err := s.Get(context.Background(), uuid.New())
	require.NoError(t, err)

	assert.Equal(t, "old advice", got.Text)
	assert.True(t, got.FromCache)
	assert.Empty(t, cache.created)
}

func TestGetGenerationFailureWithoutCacheUsesStaticFallback(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	gen := &fakeGenerator{err: errors.New("model unavailable")}
	s := newTestService(t, &fakeCache{}, &fakeFacts{}, gen, now)

	got, err := s.Get(context.Background(), uuid.New())
	require.NoError(t, err)

	assert.Equal(t, fallbackAdvice, got.Text)
	assert.False(t, got.FromCache)
}

func TestBuildPromptOmitsEmptySections(t *testing.T) {
	out := buildPrompt(facts{
		PeriodStart: time.Date(2026, time.March, 4, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC),
	})
	assert.NotContains(t, out, "Daily breakdown")
	assert.NotContains(t, out, "Songs being practiced")
	assert.True(t, strings.Contains(out, "Practice sessions: 0"))
}
