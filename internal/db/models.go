package db

import (
	"time"

	"github.com/google/uuid"
)

// User is a minimal account record. Authentication itself lives outside
// this service; handlers resolve the acting user from the session layer.
type User struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// PracticeSong is a song a user is working on.
type PracticeSong struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"-"`
	Title      string    `json:"title"`
	Artist     string    `json:"artist"`
	Difficulty int       `json:"difficulty"` // 1-5
	Status     string    `json:"status"`     // "practicing", "can_play", "rest"
	TargetBPM  *int      `json:"target_bpm"` // nullable
	CreatedAt  time.Time `json:"created_at"`
}

// PracticeSong statuses.
const (
	SongStatusPracticing = "practicing"
	SongStatusCanPlay    = "can_play"
	SongStatusRest       = "rest"
)

// PracticeSession is one logged practice, either from the timer or a quick record.
type PracticeSession struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"-"`
	StartedAt       time.Time `json:"started_at"`
	DurationMinutes int       `json:"duration_minutes"`
	Rating          *int      `json:"rating"` // 1-5, nullable
	Memo            string    `json:"memo"`
	IsQuickRecord   bool      `json:"is_quick_record"`
	CreatedAt       time.Time `json:"created_at"`
}

// LiveEvent is one gig attendance.
type LiveEvent struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"-"`
	ShareToken      uuid.UUID `json:"share_token"`
	Artist          string    `json:"artist"`
	Title           string    `json:"title"`
	Date            time.Time `json:"date"` // calendar date, stored at midnight UTC
	Venue           string    `json:"venue"`
	SpotifyArtistID string    `json:"spotify_artist_id,omitempty"`
	ArtistImageURL  string    `json:"artist_image_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// SetlistEntry is one song in an event's setlist. Order values form a
// dense 1..N sequence per event and are reindexed on deletion.
type SetlistEntry struct {
	ID        uuid.UUID `json:"id"`
	EventID   uuid.UUID `json:"-"`
	SongTitle string    `json:"song_title"`
	Order     int       `json:"order"`
	SongType  string    `json:"song_type"` // "normal", "encore", "double_encore"
	Notes     string    `json:"notes"`
}

// Ticket is the optional ticket record for an event (at most one).
type Ticket struct {
	EventID    uuid.UUID `json:"-"`
	TicketType string    `json:"ticket_type"` // "standing", "reserved", "arena", "vip", "other"
	SeatInfo   string    `json:"seat_info"`
	Price      *int      `json:"price"` // nullable
}

// Impression is the optional post-show impression for an event (at most one).
type Impression struct {
	EventID uuid.UUID `json:"-"`
	Text    string    `json:"text"`
	Rating  int       `json:"rating"` // 1-5
}

// Expense is a gig-related expense, optionally tied to an event.
type Expense struct {
	ID       uuid.UUID  `json:"id"`
	UserID   uuid.UUID  `json:"-"`
	EventID  *uuid.UUID `json:"event_id"` // set to NULL when the event is deleted
	Amount   int        `json:"amount"`
	Category string     `json:"category"` // "ticket", "transport", "goods", "food", "accommodation", "other"
	Memo     string     `json:"memo"`
	Date     time.Time  `json:"date"`
}

// Project is a composition project moving through a fixed workflow.
type Project struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"-"`
	Title       string    `json:"title"`
	Status      string    `json:"status"`
	Key         string    `json:"key"`
	BPM         *int      `json:"bpm"` // nullable
	Tags        string    `json:"tags"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Project workflow statuses, in order.
const (
	ProjectStatusIdea      = "idea"
	ProjectStatusSketch    = "sketch"
	ProjectStatusComposing = "composing"
	ProjectStatusArranging = "arranging"
	ProjectStatusLyrics    = "lyrics"
	ProjectStatusRecording = "recording"
	ProjectStatusDone      = "done"
)

// ProjectStatuses lists the valid workflow stages in order.
var ProjectStatuses = []string{
	ProjectStatusIdea,
	ProjectStatusSketch,
	ProjectStatusComposing,
	ProjectStatusArranging,
	ProjectStatusLyrics,
	ProjectStatusRecording,
	ProjectStatusDone,
}

// Memo is one entry in a project's append-only timeline.
type Memo struct {
	ID          uuid.UUID `json:"id"`
	ProjectID   uuid.UUID `json:"-"`
	MemoType    string    `json:"memo_type"` // "text", "audio", "photo"
	TextContent string    `json:"text_content"`
	FilePath    string    `json:"file_path,omitempty"` // storage key for audio/photo memos; media storage is external
	CreatedAt   time.Time `json:"created_at"`
}

// Topic is a music-theory reference entry.
type Topic struct {
	ID         uuid.UUID `json:"id"`
	Slug       string    `json:"slug"`
	Title      string    `json:"title"`
	Category   string    `json:"category"`   // "scale", "chord", "progression", "interval", "key", "rhythm", "form"
	Difficulty int       `json:"difficulty"` // 1-5
	Summary    string    `json:"summary"`
	Body       string    `json:"body,omitempty"`
	Tags       string    `json:"tags"` // comma-separated keywords
}

// Bookmark marks a topic saved by a user. Unique per (user, topic).
type Bookmark struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"-"`
	TopicID   uuid.UUID `json:"topic_id"`
	Memo      string    `json:"memo"`
	CreatedAt time.Time `json:"created_at"`
}

// ChordProgression is a reference chord-progression entry.
type ChordProgression struct {
	ID            uuid.UUID `json:"id"`
	Slug          string    `json:"slug"`
	Name          string    `json:"name"`
	StartingChord string    `json:"starting_chord"`
	Degrees       string    `json:"degrees"`
	ChordsInC     string    `json:"chords_in_c"`
	Description   string    `json:"description"`
	Tags          string    `json:"tags"`
	SortOrder     int       `json:"sort_order"`
}

// AchievementDefinition is a static badge catalog entry, seeded once.
type AchievementDefinition struct {
	ID          uuid.UUID `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"` // "practice", "live", "compose", "general"
	IconName    string    `json:"icon_name"`
	SortOrder   int       `json:"sort_order"`
}

// UserAchievement records a badge earned by a user. Unique per
// (user, achievement); created exactly once via atomic get-or-create.
type UserAchievement struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"-"`
	AchievementID uuid.UUID `json:"achievement_id"`
	EarnedAt      time.Time `json:"earned_at"`
	Notified      bool      `json:"notified"`
}

// Conversation is a user's chat thread with the theory assistant.
type Conversation struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Chat message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn in a conversation. Assistant messages may
// reference the topics injected as context when they were generated.
type ChatMessage struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"-"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// AdviceCache is a memoized AI practice summary. Stale after 24 hours;
// at most 5 rows retained per user.
type AdviceCache struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"-"`
	AdviceText  string    `json:"advice_text"`
	GeneratedAt time.Time `json:"generated_at"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
}

// PushSubscription is one browser push endpoint for a user.
type PushSubscription struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"-"`
	Endpoint  string    `json:"endpoint"`
	P256dh    string    `json:"p256dh"`
	Auth      string    `json:"auth"`
	CreatedAt time.Time `json:"created_at"`
}

// NotificationPreference holds a user's notification toggles.
// All toggles default to enabled when no row exists.
type NotificationPreference struct {
	UserID            uuid.UUID `json:"-"`
	PracticeReminder  bool      `json:"practice_reminder"`
	LiveReminder      bool      `json:"live_reminder"`
	AchievementNotify bool      `json:"achievement_notify"`
}
