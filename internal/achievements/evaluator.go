package achievements

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zanon-app/zanon/internal/activity"
	"github.com/zanon-app/zanon/internal/db"
)

// BadgeStore is the badge persistence the evaluator needs.
type BadgeStore interface {
	GetDefinitionBySlug(ctx context.Context, slug string) (*db.AchievementDefinition, error)
	GetOrCreate(ctx context.Context, userID, achievementID uuid.UUID) (bool, error)
}

// PracticeStore supplies practice aggregates.
type PracticeStore interface {
	DistinctDates(ctx context.Context, userID uuid.UUID, tz string) ([]time.Time, error)
	TotalMinutes(ctx context.Context, userID uuid.UUID) (int, error)
}

// LiveStore supplies live event aggregates.
type LiveStore interface {
	CountEvents(ctx context.Context, userID uuid.UUID) (int, error)
}

// ProjectStore supplies composition aggregates.
type ProjectStore interface {
	Count(ctx context.Context, userID uuid.UUID) (int, error)
}

// Notifier delivers best-effort badge notifications. Failures are the
// dispatcher's problem; the evaluator never rolls a grant back.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, title, body, link string) error
}

// Evaluator awards badges after record creation. Calls are explicit
// from the create paths so the control flow stays visible; running a
// check twice for the same facts grants nothing the second time.
type Evaluator struct {
	badges   BadgeStore
	practice PracticeStore
	live     LiveStore
	projects ProjectStore
	notifier Notifier
	tz       string
	loc      *time.Location
	now      func() time.Time
	log      *zap.Logger
}

// NewEvaluator creates an Evaluator. tz is the IANA timezone used for
// streak day-bucketing.
func NewEvaluator(badges BadgeStore, practice PracticeStore, live LiveStore, projects ProjectStore, notifier Notifier, tz string, log *zap.Logger) (*Evaluator, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("loading timezone: %w", err)
	}
	return &Evaluator{
		badges:   badges,
		practice: practice,
		live:     live,
		projects: projects,
		notifier: notifier,
		tz:       tz,
		loc:      loc,
		now:      time.Now,
		log:      log,
	}, nil
}

// WithClock overrides the evaluator's clock. Test hook.
func (e *Evaluator) WithClock(now func() time.Time) *Evaluator {
	e.now = now
	return e
}

// CheckPractice evaluates badges after a practice session is created.
func (e *Evaluator) CheckPractice(ctx context.Context, userID uuid.UUID) error {
	e.award(ctx, userID, SlugFirstPractice)

	dates, err := e.practice.DistinctDates(ctx, userID, e.tz)
	if err != nil {
		return err
	}
	streak := activity.Streak(activity.Day(e.now(), e.loc), dates)
	if streak >= streakWeek {
		e.award(ctx, userID, SlugStreak7)
	}
	if streak >= streakMonth {
		e.award(ctx, userID, SlugStreak30)
	}

	total, err := e.practice.TotalMinutes(ctx, userID)
	if err != nil {
		return err
	}
	if total >= practiceMinutes100h {
		e.award(ctx, userID, SlugPractice100h)
	}

	return e.checkAllRounder(ctx, userID)
}

// CheckLive evaluates badges after a live event is created.
func (e *Evaluator) CheckLive(ctx context.Context, userID uuid.UUID) error {
	e.award(ctx, userID, SlugFirstLive)

	count, err := e.live.CountEvents(ctx, userID)
	if err != nil {
		return err
	}
	if count >= liveMaster {
		e.award(ctx, userID, SlugLive10)
	}

	return e.checkAllRounder(ctx, userID)
}

// CheckProject evaluates badges after a project is created or its
// status changes. created marks a fresh project; status is the
// project's current workflow stage.
func (e *Evaluator) CheckProject(ctx context.Context, userID uuid.UUID, status string, created bool) error {
	if created {
		e.award(ctx, userID, SlugFirstCompose)
	}
	if status == db.ProjectStatusDone {
		e.award(ctx, userID, SlugComposeDone)
	}
	return e.checkAllRounder(ctx, userID)
}

// checkAllRounder awards all_rounder when the user has activity in all
// three areas.
func (e *Evaluator) checkAllRounder(ctx context.Context, userID uuid.UUID) error {
	dates, err := e.practice.DistinctDates(ctx, userID, e.tz)
	if err != nil {
		return err
	}
	if len(dates) == 0 {
		return nil
	}

	liveCount, err := e.live.CountEvents(ctx, userID)
	if err != nil {
		return err
	}
	if liveCount == 0 {
		return nil
	}

	projectCount, err := e.projects.Count(ctx, userID)
	if err != nil {
		return err
	}
	if projectCount == 0 {
		return nil
	}

	e.award(ctx, userID, SlugAllRounder)
	return nil
}

// award grants one badge if not already held, then notifies. A missing
// catalog entry (unseeded database) is skipped; store errors are logged
// and swallowed so one failing grant never blocks the record creation
// that triggered it.
func (e *Evaluator) award(ctx context.Context, userID uuid.UUID, slug string) {
	def, err := e.badges.GetDefinitionBySlug(ctx, slug)
	if errors.Is(err, db.ErrNotFound) {
		e.log.Warn("achievement not seeded", zap.String("slug", slug))
		return
	}
	if err != nil {
		e.log.Error("loading achievement definition", zap.String("slug", slug), zap.Error(err))
		return
	}

	created, err := e.badges.GetOrCreate(ctx, userID, def.ID)
	if err != nil {
		e.log.Error("granting achievement", zap.String("slug", slug), zap.Error(err))
		return
	}
	if !created {
		return
	}

	e.log.Info("achievement earned",
		zap.String("user_id", userID.String()),
		zap.String("slug", slug),
	)

	if e.notifier == nil {
		return
	}
	title := "Achievement unlocked: " + def.Name
	if err := e.notifier.Notify(ctx, userID, title, def.Description, "/achievements/"); err != nil {
		e.log.Warn("achievement notification failed", zap.String("slug", slug), zap.Error(err))
	}
}
