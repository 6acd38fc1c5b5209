// Package reminders implements the daily notification sweep, run once
// a day from the send-reminders subcommand.
package reminders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zanon-app/zanon/internal/activity"
	"github.com/zanon-app/zanon/internal/db"
	"github.com/zanon-app/zanon/internal/push"
)

// PracticeStore identifies users by practice day.
type PracticeStore interface {
	UserIDsPracticedOn(ctx context.Context, date time.Time, tz string) ([]uuid.UUID, error)
}

// LiveStore lists events by calendar day.
type LiveStore interface {
	ListEventsOn(ctx context.Context, date time.Time) ([]db.LiveEvent, error)
}

// Sender delivers preference-gated notifications.
type Sender interface {
	Send(ctx context.Context, userID uuid.UUID, kind push.Kind, title, body, link string) error
}

// Job runs the two daily reminder sweeps: streak rescue for users who
// practiced yesterday but not yet today, and a heads-up for tomorrow's
// live events.
type Job struct {
	practice PracticeStore
	live     LiveStore
	sender   Sender
	loc      *time.Location
	tz       string
	now      func() time.Time
	log      *zap.Logger
}

// NewJob creates a Job. tz must be a valid IANA zone name.
func NewJob(practice PracticeStore, live LiveStore, sender Sender, tz string, log *zap.Logger) (*Job, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, err
	}
	return &Job{
		practice: practice,
		live:     live,
		sender:   sender,
		loc:      loc,
		tz:       tz,
		now:      time.Now,
		log:      log,
	}, nil
}

// WithClock overrides the job clock. Test hook.
func (j *Job) WithClock(now func() time.Time) *Job {
	j.now = now
	return j
}

// Run executes both sweeps. Individual send failures are logged and do
// not stop the sweep; Run fails only when a user set cannot be loaded.
func (j *Job) Run(ctx context.Context) error {
	if err := j.practiceReminders(ctx); err != nil {
		return err
	}
	return j.liveReminders(ctx)
}

// practiceReminders nudges users whose streak is about to break: they
// practiced yesterday but have no session today.
func (j *Job) practiceReminders(ctx context.Context) error {
	today := activity.Day(j.now(), j.loc)
	yesterday := today.AddDate(0, 0, -1)

	practicedYesterday, err := j.practice.UserIDsPracticedOn(ctx, yesterday, j.tz)
	if err != nil {
		return fmt.Errorf("loading yesterday's practice users: %w", err)
	}
	practicedToday, err := j.practice.UserIDsPracticedOn(ctx, today, j.tz)
	if err != nil {
		return fmt.Errorf("loading today's practice users: %w", err)
	}
	done := make(map[uuid.UUID]struct{}, len(practicedToday))
	for _, id := range practicedToday {
		done[id] = struct{}{}
	}

	sent := 0
	for _, userID := range practicedYesterday {
		if _, ok := done[userID]; ok {
			continue
		}
		err := j.sender.Send(ctx, userID, push.KindPracticeReminder,
			"Keep your streak going",
			"You practiced yesterday. A short session today keeps the streak alive.",
			"/practice/")
		if err != nil {
			j.log.Warn("practice reminder failed", zap.String("user_id", userID.String()), zap.Error(err))
			continue
		}
		sent++
	}
	j.log.Info("practice reminder sweep done",
		zap.Int("candidates", len(practicedYesterday)),
		zap.Int("sent", sent),
	)
	return nil
}

// liveReminders notifies owners of events happening tomorrow.
func (j *Job) liveReminders(ctx context.Context) error {
	tomorrow := activity.Day(j.now(), j.loc).AddDate(0, 0, 1)

	events, err := j.live.ListEventsOn(ctx, tomorrow)
	if err != nil {
		return fmt.Errorf("loading tomorrow's events: %w", err)
	}

	sent := 0
	for _, event := range events {
		body := event.Title
		if event.Venue != "" {
			body = fmt.Sprintf("%s at %s", event.Title, event.Venue)
		}
		err := j.sender.Send(ctx, event.UserID, push.KindLiveReminder,
			"Live tomorrow", body, "/live/"+event.ID.String())
		if err != nil {
			j.log.Warn("live reminder failed", zap.String("event_id", event.ID.String()), zap.Error(err))
			continue
		}
		sent++
	}
	j.log.Info("live reminder sweep done",
		zap.Int("events", len(events)),
		zap.Int("sent", sent),
	)
	return nil
}
