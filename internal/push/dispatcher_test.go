package push

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zanon-app/zanon/internal/db"
)

type fakeStore struct {
	subs    []db.PushSubscription
	prefs   db.NotificationPreference
	deleted []string
}

func (s *fakeStore) ListForUser(context.Context, uuid.UUID) ([]db.PushSubscription, error) {
	return s.subs, nil
}

func (s *fakeStore) DeleteByEndpoint(_ context.Context, endpoint string) error {
	s.deleted = append(s.deleted, endpoint)
	return nil
}

func (s *fakeStore) GetPreferences(context.Context, uuid.UUID) (*db.NotificationPreference, error) {
	p := s.prefs
	return &p, nil
}

type fakeSender struct {
	statuses map[string]int // endpoint -> response status
	sent     []string       // endpoints in delivery order
	messages []string
}

func (s *fakeSender) send(message []byte, sub *webpush.Subscription, _ *webpush.Options) (*http.Response, error) {
	s.sent = append(s.sent, sub.Endpoint)
	s.messages = append(s.messages, string(message))
	status := s.statuses[sub.Endpoint]
	if status == 0 {
		status = http.StatusCreated
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader("")),
	}, nil
}

func allOn() db.NotificationPreference {
	return db.NotificationPreference{
		PracticeReminder:  true,
		LiveReminder:      true,
		AchievementNotify: true,
	}
}

func newTestDispatcher(store *fakeStore, sender *fakeSender) *Dispatcher {
	d := NewDispatcher(store, "pub", "priv", "mailto:admin@example.com", zap.NewNop())
	d.sender = sender
	return d
}

func TestSendDeliversToAllSubscriptions(t *testing.T) {
	store := &fakeStore{
		subs: []db.PushSubscription{
			{Endpoint: "https://push.example/a"},
			{Endpoint: "https://push.example/b"},
		},
		prefs: allOn(),
	}
	sender := &fakeSender{}
	d := newTestDispatcher(store, sender)

	err := d.Send(context.Background(), uuid.New(), KindAchievement, "Title", "Body", "/achievements/")
	require.NoError(t, err)

	assert.Equal(t, []string{"https://push.example/a", "https://push.example/b"}, sender.sent)
	assert.Contains(t, sender.messages[0], `"title":"Title"`)
	assert.Contains(t, sender.messages[0], `"link":"/achievements/"`)
	assert.Empty(t, store.deleted)
}

func TestSendHonorsPreferenceToggles(t *testing.T) {
	tests := []struct {
		name  string
		prefs db.NotificationPreference
		kind  Kind
		sent  bool
	}{
		{name: "achievement disabled", prefs: db.NotificationPreference{PracticeReminder: true, LiveReminder: true}, kind: KindAchievement, sent: false},
		{name: "achievement enabled", prefs: allOn(), kind: KindAchievement, sent: true},
		{name: "practice disabled", prefs: db.NotificationPreference{LiveReminder: true, AchievementNotify: true}, kind: KindPracticeReminder, sent: false},
		{name: "live disabled", prefs: db.NotificationPreference{PracticeReminder: true, AchievementNotify: true}, kind: KindLiveReminder, sent: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{
				subs:  []db.PushSubscription{{Endpoint: "https://push.example/a"}},
				prefs: tt.prefs,
			}
			sender := &fakeSender{}
			d := newTestDispatcher(store, sender)

			require.NoError(t, d.Send(context.Background(), uuid.New(), tt.kind, "t", "b", ""))
			if tt.sent {
				assert.Len(t, sender.sent, 1)
			} else {
				assert.Empty(t, sender.sent)
			}
		})
	}
}

func TestSendPrunesGoneEndpoints(t *testing.T) {
	store := &fakeStore{
		subs: []db.PushSubscription{
			{Endpoint: "https://push.example/gone"},
			{Endpoint: "https://push.example/missing"},
			{Endpoint: "https://push.example/ok"},
		},
		prefs: allOn(),
	}
	sender := &fakeSender{statuses: map[string]int{
		"https://push.example/gone":    http.StatusGone,
		"https://push.example/missing": http.StatusNotFound,
	}}
	d := newTestDispatcher(store, sender)

	require.NoError(t, d.Send(context.Background(), uuid.New(), KindAchievement, "t", "b", ""))

	assert.Len(t, sender.sent, 3)
	assert.ElementsMatch(t,
		[]string{"https://push.example/gone", "https://push.example/missing"},
		store.deleted,
	)
}

func TestSendNoSubscriptionsIsNoError(t *testing.T) {
	store := &fakeStore{prefs: allOn()}
	sender := &fakeSender{}
	d := newTestDispatcher(store, sender)

	require.NoError(t, d.Send(context.Background(), uuid.New(), KindAchievement, "t", "b", ""))
	assert.Empty(t, sender.sent)
}
