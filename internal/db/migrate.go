package db

import (
	"context"
	"fmt"
)

// migrations is the ordered, idempotent schema. Statements run one at a
// time so a failure reports the offending table.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS practice_songs (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		artist TEXT NOT NULL DEFAULT '',
		difficulty INT NOT NULL DEFAULT 3,
		status TEXT NOT NULL DEFAULT 'practicing',
		target_bpm INT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS practice_sessions (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		started_at TIMESTAMPTZ NOT NULL,
		duration_minutes INT NOT NULL DEFAULT 0 CHECK (duration_minutes >= 0),
		rating INT CHECK (rating BETWEEN 1 AND 5),
		memo TEXT NOT NULL DEFAULT '',
		is_quick_record BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_practice_sessions_user_started
		ON practice_sessions (user_id, started_at DESC)`,

	`CREATE TABLE IF NOT EXISTS live_events (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		share_token UUID NOT NULL UNIQUE,
		artist TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		date DATE NOT NULL,
		venue TEXT NOT NULL DEFAULT '',
		spotify_artist_id TEXT NOT NULL DEFAULT '',
		artist_image_url TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_live_events_user_date
		ON live_events (user_id, date DESC)`,

	`CREATE TABLE IF NOT EXISTS setlist_entries (
		id UUID PRIMARY KEY,
		event_id UUID NOT NULL REFERENCES live_events(id) ON DELETE CASCADE,
		song_title TEXT NOT NULL,
		ord INT NOT NULL,
		song_type TEXT NOT NULL DEFAULT 'normal',
		notes TEXT NOT NULL DEFAULT ''
	)`,

	`CREATE TABLE IF NOT EXISTS tickets (
		event_id UUID PRIMARY KEY REFERENCES live_events(id) ON DELETE CASCADE,
		ticket_type TEXT NOT NULL DEFAULT 'reserved',
		seat_info TEXT NOT NULL DEFAULT '',
		price INT
	)`,

	`CREATE TABLE IF NOT EXISTS impressions (
		event_id UUID PRIMARY KEY REFERENCES live_events(id) ON DELETE CASCADE,
		text TEXT NOT NULL,
		rating INT NOT NULL DEFAULT 3 CHECK (rating BETWEEN 1 AND 5)
	)`,

	`CREATE TABLE IF NOT EXISTS expenses (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		event_id UUID REFERENCES live_events(id) ON DELETE SET NULL,
		amount INT NOT NULL CHECK (amount >= 0),
		category TEXT NOT NULL,
		memo TEXT NOT NULL DEFAULT '',
		date DATE NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS projects (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'idea',
		key TEXT NOT NULL DEFAULT '',
		bpm INT,
		tags TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_projects_user_updated
		ON projects (user_id, updated_at DESC)`,

	`CREATE TABLE IF NOT EXISTS memos (
		id UUID PRIMARY KEY,
		project_id UUID NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		memo_type TEXT NOT NULL DEFAULT 'text',
		text_content TEXT NOT NULL DEFAULT '',
		file_path TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS topics (
		id UUID PRIMARY KEY,
		slug TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		category TEXT NOT NULL,
		difficulty INT NOT NULL DEFAULT 3,
		summary TEXT NOT NULL DEFAULT '',
		body TEXT NOT NULL DEFAULT '',
		tags TEXT NOT NULL DEFAULT ''
	)`,

	`CREATE TABLE IF NOT EXISTS bookmarks (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		topic_id UUID NOT NULL REFERENCES topics(id) ON DELETE CASCADE,
		memo TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (user_id, topic_id)
	)`,

	`CREATE TABLE IF NOT EXISTS chord_progressions (
		id UUID PRIMARY KEY,
		slug TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		starting_chord TEXT NOT NULL,
		degrees TEXT NOT NULL,
		chords_in_c TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		tags TEXT NOT NULL DEFAULT '',
		sort_order INT NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS achievement_definitions (
		id UUID PRIMARY KEY,
		slug TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL,
		icon_name TEXT NOT NULL DEFAULT '',
		sort_order INT NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS user_achievements (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		achievement_id UUID NOT NULL REFERENCES achievement_definitions(id) ON DELETE CASCADE,
		earned_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		notified BOOLEAN NOT NULL DEFAULT FALSE,
		UNIQUE (user_id, achievement_id)
	)`,

	`CREATE TABLE IF NOT EXISTS conversations (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS chat_messages (
		id UUID PRIMARY KEY,
		conversation_id UUID NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_chat_messages_created
		ON chat_messages (role, created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS message_topics (
		message_id UUID NOT NULL REFERENCES chat_messages(id) ON DELETE CASCADE,
		topic_id UUID NOT NULL REFERENCES topics(id) ON DELETE CASCADE,
		PRIMARY KEY (message_id, topic_id)
	)`,

	`CREATE TABLE IF NOT EXISTS advice_cache (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		advice_text TEXT NOT NULL,
		generated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		period_start DATE NOT NULL,
		period_end DATE NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS push_subscriptions (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		endpoint TEXT NOT NULL UNIQUE,
		p256dh TEXT NOT NULL,
		auth TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS notification_preferences (
		user_id UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		practice_reminder BOOLEAN NOT NULL DEFAULT TRUE,
		live_reminder BOOLEAN NOT NULL DEFAULT TRUE,
		achievement_notify BOOLEAN NOT NULL DEFAULT TRUE
	)`,
}

// Migrate applies the schema. Safe to run repeatedly.
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("applying migration: %w", err)
		}
	}
	return nil
}
