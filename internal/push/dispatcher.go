// Package push delivers Web Push notifications to a user's subscribed
// browsers. Delivery is best effort; callers treat failures as
// non-fatal.
package push

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zanon-app/zanon/internal/db"
)

// Kind selects which preference toggle gates a notification.
type Kind string

const (
	KindPracticeReminder Kind = "practice_reminder"
	KindLiveReminder     Kind = "live_reminder"
	KindAchievement      Kind = "achievement"
)

// SubscriptionStore is the persistence the dispatcher needs.
type SubscriptionStore interface {
	ListForUser(ctx context.Context, userID uuid.UUID) ([]db.PushSubscription, error)
	DeleteByEndpoint(ctx context.Context, endpoint string) error
	GetPreferences(ctx context.Context, userID uuid.UUID) (*db.NotificationPreference, error)
}

// sender performs a single Web Push delivery. Stubbed in tests.
type sender interface {
	send(message []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

type webpushSender struct{}

func (webpushSender) send(message []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(message, sub, options)
}

// payload is the JSON body the service worker receives.
type payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Link  string `json:"link,omitempty"`
}

// Dispatcher sends notifications to every subscription a user holds,
// honoring the user's per-kind preference toggles. Subscriptions the
// push service reports as gone (404 or 410) are deleted.
type Dispatcher struct {
	store      SubscriptionStore
	sender     sender
	vapidPub   string
	vapidPriv  string
	subscriber string
	log        *zap.Logger
}

// NewDispatcher creates a Dispatcher. subscriber is the contact mailto
// or URL required by the VAPID spec.
func NewDispatcher(store SubscriptionStore, vapidPublic, vapidPrivate, subscriber string, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		store:      store,
		sender:     webpushSender{},
		vapidPub:   vapidPublic,
		vapidPriv:  vapidPrivate,
		subscriber: subscriber,
		log:        log,
	}
}

// Send delivers a notification of the given kind to all of the user's
// subscriptions. A disabled preference toggle or an empty subscription
// list is not an error. Individual delivery failures are logged; Send
// only fails when the subscription list cannot be loaded.
func (d *Dispatcher) Send(ctx context.Context, userID uuid.UUID, kind Kind, title, body, link string) error {
	prefs, err := d.store.GetPreferences(ctx, userID)
	if err != nil {
		return fmt.Errorf("loading notification preferences: %w", err)
	}
	if !enabled(prefs, kind) {
		return nil
	}

	subs, err := d.store.ListForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("listing push subscriptions: %w", err)
	}

	message, err := json.Marshal(payload{Title: title, Body: body, Link: link})
	if err != nil {
		return fmt.Errorf("encoding push payload: %w", err)
	}

	for _, sub := range subs {
		d.deliver(ctx, message, sub)
	}
	return nil
}

// Notify sends an achievement notification. Satisfies the evaluator's
// notifier interface.
func (d *Dispatcher) Notify(ctx context.Context, userID uuid.UUID, title, body, link string) error {
	return d.Send(ctx, userID, KindAchievement, title, body, link)
}

// deliver sends one message to one subscription and prunes endpoints
// the push service no longer knows.
func (d *Dispatcher) deliver(ctx context.Context, message []byte, sub db.PushSubscription) {
	resp, err := d.sender.send(message, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		Subscriber:      d.subscriber,
		VAPIDPublicKey:  d.vapidPub,
		VAPIDPrivateKey: d.vapidPriv,
		TTL:             3600,
	})
	if err != nil {
		d.log.Warn("push delivery failed",
			zap.String("endpoint", sub.Endpoint),
			zap.Error(err),
		)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		if err := d.store.DeleteByEndpoint(ctx, sub.Endpoint); err != nil {
			d.log.Warn("pruning dead subscription",
				zap.String("endpoint", sub.Endpoint),
				zap.Error(err),
			)
			return
		}
		d.log.Info("pruned dead subscription", zap.String("endpoint", sub.Endpoint))
	}
}

func enabled(prefs *db.NotificationPreference, kind Kind) bool {
	switch kind {
	case KindPracticeReminder:
		return prefs.PracticeReminder
	case KindLiveReminder:
		return prefs.LiveReminder
	case KindAchievement:
		return prefs.AchievementNotify
	default:
		return false
	}
}
