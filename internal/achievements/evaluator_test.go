package achievements

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zanon-app/zanon/internal/db"
)

// fakeBadgeStore keeps grants in memory with get-or-create semantics.
type fakeBadgeStore struct {
	defs    map[string]*db.AchievementDefinition
	granted map[uuid.UUID]map[uuid.UUID]bool // user -> achievement ids
}

func newFakeBadgeStore() *fakeBadgeStore {
	s := &fakeBadgeStore{
		defs:    make(map[string]*db.AchievementDefinition),
		granted: make(map[uuid.UUID]map[uuid.UUID]bool),
	}
	for i := range Catalog {
		def := Catalog[i]
		def.ID = uuid.New()
		s.defs[def.Slug] = &def
	}
	return s
}

func (s *fakeBadgeStore) GetDefinitionBySlug(_ context.Context, slug string) (*db.AchievementDefinition, error) {
	def, ok := s.defs[slug]
	if !ok {
		return nil, db.ErrNotFound
	}
	return def, nil
}

func (s *fakeBadgeStore) GetOrCreate(_ context.Context, userID, achievementID uuid.UUID) (bool, error) {
	if s.granted[userID] == nil {
		s.granted[userID] = make(map[uuid.UUID]bool)
	}
	if s.granted[userID][achievementID] {
		return false, nil
	}
	s.granted[userID][achievementID] = true
	return true, nil
}

func (s *fakeBadgeStore) slugs(userID uuid.UUID) []string {
	var slugs []string
	for slug, def := range s.defs {
		if s.granted[userID][def.ID] {
			slugs = append(slugs, slug)
		}
	}
	return slugs
}

type fakeActivityStore struct {
	dates        []time.Time
	totalMinutes int
	liveCount    int
	projectCount int
}

func (s *fakeActivityStore) DistinctDates(context.Context, uuid.UUID, string) ([]time.Time, error) {
	return s.dates, nil
}

func (s *fakeActivityStore) TotalMinutes(context.Context, uuid.UUID) (int, error) {
	return s.totalMinutes, nil
}

func (s *fakeActivityStore) CountEvents(context.Context, uuid.UUID) (int, error) {
	return s.liveCount, nil
}

func (s *fakeActivityStore) Count(context.Context, uuid.UUID) (int, error) {
	return s.projectCount, nil
}

type recordingNotifier struct {
	titles []string
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, _ uuid.UUID, title, _, _ string) error {
	n.titles = append(n.titles, title)
	return n.err
}

func datesBackFrom(today time.Time, n int) []time.Time {
	dates := make([]time.Time, n)
	for i := range dates {
		dates[i] = today.AddDate(0, 0, -i)
	}
	return dates
}

func newTestEvaluator(t *testing.T, store *fakeBadgeStore, facts *fakeActivityStore, notifier Notifier, today time.Time) *Evaluator {
	t.Helper()
	return newTestEvaluatorInZone(t, store, facts, notifier, "UTC", today)
}

func newTestEvaluatorInZone(t *testing.T, store *fakeBadgeStore, facts *fakeActivityStore, notifier Notifier, tz string, clock time.Time) *Evaluator {
	t.Helper()
	e, err := NewEvaluator(store, facts, facts, facts, notifier, tz, zap.NewNop())
	require.NoError(t, err)
	return e.WithClock(func() time.Time { return clock })
}

func TestCheckPracticeFirstSession(t *testing.T) {
	today := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	store := newFakeBadgeStore()
	facts := &fakeActivityStore{dates: []time.Time{today}, totalMinutes: 30}
	notifier := &recordingNotifier{}
	e := newTestEvaluator(t, store, facts, notifier, today)

	userID := uuid.New()
	require.NoError(t, e.CheckPractice(context.Background(), userID))

	assert.ElementsMatch(t, []string{SlugFirstPractice}, store.slugs(userID))
	assert.Len(t, notifier.titles, 1)
}

func TestCheckPracticeStreakBadges(t *testing.T) {
	today := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	userID := uuid.New()

	tests := []struct {
		name      string
		streakLen int
		want      []string
	}{
		{name: "six days", streakLen: 6, want: []string{SlugFirstPractice}},
		{name: "seven days", streakLen: 7, want: []string{SlugFirstPractice, SlugStreak7}},
		{name: "thirty days", streakLen: 30, want: []string{SlugFirstPractice, SlugStreak7, SlugStreak30}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeBadgeStore()
			facts := &fakeActivityStore{dates: datesBackFrom(today, tt.streakLen), totalMinutes: 100}
			e := newTestEvaluator(t, store, facts, &recordingNotifier{}, today)

			require.NoError(t, e.CheckPractice(context.Background(), userID))
			assert.ElementsMatch(t, tt.want, store.slugs(userID))
		})
	}
}

func TestCheckPracticeStreakUsesConfiguredTimezone(t *testing.T) {
	// 20:00 UTC on March 9 is already 05:00 on March 10 in Tokyo, so
	// "today" for streak purposes must be the Tokyo date.
	clock := time.Date(2026, time.March, 9, 20, 0, 0, 0, time.UTC)
	userID := uuid.New()

	day := func(d int) time.Time {
		return time.Date(2026, time.March, d, 0, 0, 0, 0, time.UTC)
	}

	t.Run("streak broken two Tokyo days ago", func(t *testing.T) {
		store := newFakeBadgeStore()
		facts := &fakeActivityStore{dates: datesBackFrom(day(8), 7), totalMinutes: 100}
		e := newTestEvaluatorInZone(t, store, facts, &recordingNotifier{}, "Asia/Tokyo", clock)

		require.NoError(t, e.CheckPractice(context.Background(), userID))
		assert.NotContains(t, store.slugs(userID), SlugStreak7)
	})

	t.Run("streak alive through yesterday in Tokyo", func(t *testing.T) {
		store := newFakeBadgeStore()
		facts := &fakeActivityStore{dates: datesBackFrom(day(9), 7), totalMinutes: 100}
		e := newTestEvaluatorInZone(t, store, facts, &recordingNotifier{}, "Asia/Tokyo", clock)

		require.NoError(t, e.CheckPractice(context.Background(), userID))
		assert.Contains(t, store.slugs(userID), SlugStreak7)
	})
}

func TestNewEvaluatorRejectsBadTimezone(t *testing.T) {
	_, err := NewEvaluator(newFakeBadgeStore(), &fakeActivityStore{}, &fakeActivityStore{}, &fakeActivityStore{}, nil, "Mars/Olympus", zap.NewNop())
	assert.Error(t, err)
}

func TestCheckPracticeTotalMinutes(t *testing.T) {
	today := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	store := newFakeBadgeStore()
	facts := &fakeActivityStore{dates: []time.Time{today}, totalMinutes: 6000}
	e := newTestEvaluator(t, store, facts, &recordingNotifier{}, today)

	userID := uuid.New()
	require.NoError(t, e.CheckPractice(context.Background(), userID))
	assert.Contains(t, store.slugs(userID), SlugPractice100h)
}

func TestCheckPracticeIdempotent(t *testing.T) {
	today := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	store := newFakeBadgeStore()
	facts := &fakeActivityStore{dates: datesBackFrom(today, 7), totalMinutes: 6000}
	notifier := &recordingNotifier{}
	e := newTestEvaluator(t, store, facts, notifier, today)

	userID := uuid.New()
	require.NoError(t, e.CheckPractice(context.Background(), userID))
	firstGrants := store.slugs(userID)
	firstNotifications := len(notifier.titles)

	// Same facts, second run: nothing new granted, nothing new notified.
	require.NoError(t, e.CheckPractice(context.Background(), userID))
	assert.ElementsMatch(t, firstGrants, store.slugs(userID))
	assert.Equal(t, firstNotifications, len(notifier.titles))
}

func TestCheckLive(t *testing.T) {
	today := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	userID := uuid.New()

	t.Run("first event", func(t *testing.T) {
		store := newFakeBadgeStore()
		facts := &fakeActivityStore{liveCount: 1}
		e := newTestEvaluator(t, store, facts, &recordingNotifier{}, today)

		require.NoError(t, e.CheckLive(context.Background(), userID))
		assert.ElementsMatch(t, []string{SlugFirstLive}, store.slugs(userID))
	})

	t.Run("tenth event", func(t *testing.T) {
		store := newFakeBadgeStore()
		facts := &fakeActivityStore{liveCount: 10}
		e := newTestEvaluator(t, store, facts, &recordingNotifier{}, today)

		require.NoError(t, e.CheckLive(context.Background(), userID))
		assert.ElementsMatch(t, []string{SlugFirstLive, SlugLive10}, store.slugs(userID))
	})
}

func TestCheckProject(t *testing.T) {
	today := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	userID := uuid.New()

	t.Run("created", func(t *testing.T) {
		store := newFakeBadgeStore()
		facts := &fakeActivityStore{projectCount: 1}
		e := newTestEvaluator(t, store, facts, &recordingNotifier{}, today)

		require.NoError(t, e.CheckProject(context.Background(), userID, db.ProjectStatusIdea, true))
		assert.ElementsMatch(t, []string{SlugFirstCompose}, store.slugs(userID))
	})

	t.Run("status change to done", func(t *testing.T) {
		store := newFakeBadgeStore()
		facts := &fakeActivityStore{projectCount: 1}
		e := newTestEvaluator(t, store, facts, &recordingNotifier{}, today)

		require.NoError(t, e.CheckProject(context.Background(), userID, db.ProjectStatusDone, false))
		assert.ElementsMatch(t, []string{SlugComposeDone}, store.slugs(userID))
	})

	t.Run("non-terminal status change grants nothing", func(t *testing.T) {
		store := newFakeBadgeStore()
		facts := &fakeActivityStore{projectCount: 1}
		e := newTestEvaluator(t, store, facts, &recordingNotifier{}, today)

		require.NoError(t, e.CheckProject(context.Background(), userID, db.ProjectStatusComposing, false))
		assert.Empty(t, store.slugs(userID))
	})
}

func TestAllRounder(t *testing.T) {
	today := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	userID := uuid.New()

	t.Run("all three areas", func(t *testing.T) {
		store := newFakeBadgeStore()
		facts := &fakeActivityStore{
			dates:        []time.Time{today},
			liveCount:    1,
			projectCount: 1,
		}
		e := newTestEvaluator(t, store, facts, &recordingNotifier{}, today)

		require.NoError(t, e.CheckLive(context.Background(), userID))
		assert.Contains(t, store.slugs(userID), SlugAllRounder)
	})

	t.Run("missing composition", func(t *testing.T) {
		store := newFakeBadgeStore()
		facts := &fakeActivityStore{dates: []time.Time{today}, liveCount: 1}
		e := newTestEvaluator(t, store, facts, &recordingNotifier{}, today)

		require.NoError(t, e.CheckLive(context.Background(), userID))
		assert.NotContains(t, store.slugs(userID), SlugAllRounder)
	})
}

func TestNotificationFailureDoesNotBlockGrant(t *testing.T) {
	today := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	store := newFakeBadgeStore()
	facts := &fakeActivityStore{dates: []time.Time{today}, totalMinutes: 10}
	notifier := &recordingNotifier{err: errors.New("push endpoint gone")}
	e := newTestEvaluator(t, store, facts, notifier, today)

	userID := uuid.New()
	require.NoError(t, e.CheckPractice(context.Background(), userID))
	assert.Contains(t, store.slugs(userID), SlugFirstPractice)
}

func TestUnseededCatalogIsSkipped(t *testing.T) {
	today := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	store := newFakeBadgeStore()
	delete(store.defs, SlugFirstPractice)
	facts := &fakeActivityStore{dates: []time.Time{today}, totalMinutes: 10}
	e := newTestEvaluator(t, store, facts, &recordingNotifier{}, today)

	userID := uuid.New()
	require.NoError(t, e.CheckPractice(context.Background(), userID))
	assert.Empty(t, store.slugs(userID))
}
