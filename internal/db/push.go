package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PushRepository handles push subscription and notification preference
// database operations.
type PushRepository struct {
	pool *pgxpool.Pool
}

// CreateSubscription stores a browser push subscription. Endpoints are
// globally unique; re-subscribing from the same browser reassigns the
// endpoint to the current user.
func (r *PushRepository) CreateSubscription(ctx context.Context, sub *PushSubscription) error {
	query := `
		INSERT INTO push_subscriptions (id, user_id, endpoint, p256dh, auth, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (endpoint) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			p256dh = EXCLUDED.p256dh,
			auth = EXCLUDED.auth
		RETURNING id, created_at
	`
	err := r.pool.QueryRow(ctx, query,
		sub.ID,
		sub.UserID,
		sub.Endpoint,
		sub.P256dh,
		sub.Auth,
	).Scan(&sub.ID, &sub.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting push subscription: %w", err)
	}
	return nil
}

// DeleteForUser removes one of the user's own subscriptions by its
// endpoint URL. Endpoints belonging to other users are left alone.
func (r *PushRepository) DeleteForUser(ctx context.Context, userID uuid.UUID, endpoint string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM push_subscriptions WHERE user_id = $1 AND endpoint = $2`, userID, endpoint)
	if err != nil {
		return fmt.Errorf("deleting push subscription: %w", err)
	}
	return nil
}

// DeleteByEndpoint removes a subscription by its endpoint URL regardless
// of owner. Reserved for pruning endpoints the push service reports gone.
func (r *PushRepository) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM push_subscriptions WHERE endpoint = $1`, endpoint)
	if err != nil {
		return fmt.Errorf("deleting push subscription: %w", err)
	}
	return nil
}

// ListForUser retrieves all push subscriptions for a user.
func (r *PushRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]PushSubscription, error) {
	query := `
		SELECT id, user_id, endpoint, p256dh, auth, created_at
		FROM push_subscriptions
		WHERE user_id = $1
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying push subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []PushSubscription
	for rows.Next() {
		var sub PushSubscription
		if err := rows.Scan(
			&sub.ID,
			&sub.UserID,
			&sub.Endpoint,
			&sub.P256dh,
			&sub.Auth,
			&sub.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning push subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// GetPreferences retrieves a user's notification preferences. When the
// user has never saved preferences, all toggles default to enabled.
func (r *PushRepository) GetPreferences(ctx context.Context, userID uuid.UUID) (*NotificationPreference, error) {
	query := `
		SELECT user_id, practice_reminder, live_reminder, achievement_notify
		FROM notification_preferences
		WHERE user_id = $1
	`
	var prefs NotificationPreference
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&prefs.UserID,
		&prefs.PracticeReminder,
		&prefs.LiveReminder,
		&prefs.AchievementNotify,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return &NotificationPreference{
			UserID:            userID,
			PracticeReminder:  true,
			LiveReminder:      true,
			AchievementNotify: true,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying notification preferences: %w", err)
	}
	return &prefs, nil
}

// UpsertPreferences creates or replaces a user's notification preferences.
func (r *PushRepository) UpsertPreferences(ctx context.Context, prefs *NotificationPreference) error {
	query := `
		INSERT INTO notification_preferences (user_id, practice_reminder, live_reminder, achievement_notify)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			practice_reminder = EXCLUDED.practice_reminder,
			live_reminder = EXCLUDED.live_reminder,
			achievement_notify = EXCLUDED.achievement_notify
	`
	_, err := r.pool.Exec(ctx, query,
		prefs.UserID,
		prefs.PracticeReminder,
		prefs.LiveReminder,
		prefs.AchievementNotify,
	)
	if err != nil {
		return fmt.Errorf("upserting notification preferences: %w", err)
	}
	return nil
}
