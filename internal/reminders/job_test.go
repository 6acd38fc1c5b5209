package reminders

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
	"github.com/zanon-app/zanon/internal/push"
)

type fakePractice struct {
	byDay map[time.Time][]uuid.UUID
}

func (f *fakePractice) UserIDsPracticedOn(_ context.Context, date time.Time, _ string) ([]uuid.UUID, error) {
	return f.byDay[date], nil
}

type fakeLive struct {
	byDay map[time.Time][]db.LiveEvent
	err   error
}

func (f *fakeLive) ListEventsOn(_ context.Context, date time.Time) ([]db.LiveEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byDay[date], nil
}

type sentPush struct {
	userID uuid.UUID
	kind   push.Kind
	title  string
	body   string
	link   string
}

type fakeSender struct {
	sent    []sentPush
	failFor map[uuid.UUID]error
}

func (f *fakeSender) Send(_ context.Context, userID uuid.UUID, kind push.Kind, title, body, link string) error {
	if err := f.failFor[userID]; err != nil {
		return err
	}
	f.sent = append(f.sent, sentPush{userID: userID, kind: kind, title: title, body: body, link: link})
	return nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestJob(t *testing.T, practice *fakePractice, live *fakeLive, sender *fakeSender, now time.Time) *Job {
	t.Helper()
	j, err := NewJob(practice, live, sender, "UTC", zap.NewNop())
	require.NoError(t, err)
	return j.WithClock(func() time.Time { return now })
}

func TestRunPracticeReminders(t *testing.T) {
	now := time.Date(2026, time.March, 10, 20, 0, 0, 0, time.UTC)
	atRisk := uuid.New()
	alreadyDone := uuid.New()

	practice := &fakePractice{byDay: map[time.Time][]uuid.UUID{
		day(2026, time.March, 9):  {atRisk, alreadyDone},
		day(2026, time.March, 10): {alreadyDone},
	}}
	sender := &fakeSender{}
	j := newTestJob(t, practice, &fakeLive{}, sender, now)

	require.NoError(t, j.Run(context.Background()))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, atRisk, sender.sent[0].userID)
	assert.Equal(t, push.KindPracticeReminder, sender.sent[0].kind)
	assert.Equal(t, "Keep your streak going", sender.sent[0].title)
}

func TestRunLiveReminders(t *testing.T) {
	now := time.Date(2026, time.March, 10, 20, 0, 0, 0, time.UTC)
	owner := uuid.New()
	eventID := uuid.New()

	live := &fakeLive{byDay: map[time.Time][]db.LiveEvent{
		day(2026, time.March, 11): {
			{ID: eventID, UserID: owner, Title: "Spring Tour", Venue: "Blue Note"},
		},
		day(2026, time.March, 12): {
			{ID: uuid.New(), UserID: uuid.New(), Title: "Too Far Out"},
		},
	}}
	sender := &fakeSender{}
	j := newTestJob(t, &fakePractice{}, live, sender, now)

	require.NoError(t, j.Run(context.Background()))

	require.Len(t, sender.sent, 1)
	got := sender.sent[0]
	assert.Equal(t, owner, got.userID)
	assert.Equal(t, push.KindLiveReminder, got.kind)
	assert.Equal(t, "Spring Tour at Blue Note", got.body)
	assert.Equal(t, "/live/"+eventID.String(), got.link)
}

func TestRunSendFailureDoesNotStopSweep(t *testing.T) {
	now := time.Date(2026, time.March, 10, 20, 0, 0, 0, time.UTC)
	failing := uuid.New()
	fine := uuid.New()

	practice := &fakePractice{byDay: map[time.Time][]uuid.UUID{
		day(2026, time.March, 9): {failing, fine},
	}}
	sender := &fakeSender{failFor: map[uuid.UUID]error{failing: errors.New("endpoint gone")}}
	j := newTestJob(t, practice, &fakeLive{}, sender, now)

	require.NoError(t, j.Run(context.Background()))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, fine, sender.sent[0].userID)
}

func TestRunStoreFailureIsAnError(t *testing.T) {
	now := time.Date(2026, time.March, 10, 20, 0, 0, 0, time.UTC)
	live := &fakeLive{err: errors.New("db down")}
	j := newTestJob(t, &fakePractice{}, live, &fakeSender{}, now)

	assert.Error(t, j.Run(context.Background()))
}
