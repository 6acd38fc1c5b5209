package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PracticeRepository handles practice song and session database operations.
type PracticeRepository struct {
	pool *pgxpool.Pool
}

// CreateSong inserts a new practice song.
func (r *PracticeRepository) CreateSong(ctx context.Context, song *PracticeSong) error {
	query := `
		INSERT INTO practice_songs (id, user_id, title, artist, difficulty, status, target_bpm, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING created_at
	`
	err := r.pool.QueryRow(ctx, query,
		song.ID,
		song.UserID,
		song.Title,
		song.Artist,
		song.Difficulty,
		song.Status,
		song.TargetBPM,
	).Scan(&song.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting practice song: %w", err)
	}
	return nil
}

// GetSong retrieves a practice song owned by the given user.
func (r *PracticeRepository) GetSong(ctx context.Context, userID, songID uuid.UUID) (*PracticeSong, error) {
	query := `
		SELECT id, user_id, title, artist, difficulty, status, target_bpm, created_at
		FROM practice_songs
		WHERE id = $1 AND user_id = $2
	`
	var song PracticeSong
	err := r.pool.QueryRow(ctx, query, songID, userID).Scan(
		&song.ID,
		&song.UserID,
		&song.Title,
		&song.Artist,
		&song.Difficulty,
		&song.Status,
		&song.TargetBPM,
		&song.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying practice song: %w", err)
	}
	return &song, nil
}

// ListSongs retrieves a user's practice songs, optionally filtered by status.
func (r *PracticeRepository) ListSongs(ctx context.Context, userID uuid.UUID, status string) ([]PracticeSong, error) {
	query := `
		SELECT id, user_id, title, artist, difficulty, status, target_bpm, created_at
		FROM practice_songs
		WHERE user_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID, status)
	if err != nil {
		return nil, fmt.Errorf("querying practice songs: %w", err)
	}
	defer rows.Close()

	var songs []PracticeSong
	for rows.Next() {
		var song PracticeSong
		if err := rows.Scan(
			&song.ID,
			&song.UserID,
			&song.Title,
			&song.Artist,
			&song.Difficulty,
			&song.Status,
			&song.TargetBPM,
			&song.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning practice song: %w", err)
		}
		songs = append(songs, song)
	}
	return songs, rows.Err()
}

// UpdateSong updates an existing practice song's editable fields.
func (r *PracticeRepository) UpdateSong(ctx context.Context, song *PracticeSong) error {
	query := `
		UPDATE practice_songs
		SET title = $3, artist = $4, difficulty = $5, status = $6, target_bpm = $7
		WHERE id = $1 AND user_id = $2
	`
	tag, err := r.pool.Exec(ctx, query,
		song.ID,
		song.UserID,
		song.Title,
		song.Artist,
		song.Difficulty,
		song.Status,
		song.TargetBPM,
	)
	if err != nil {
		return fmt.Errorf("updating practice song: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSong removes a practice song owned by the given user.
func (r *PracticeRepository) DeleteSong(ctx context.Context, userID, songID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM practice_songs WHERE id = $1 AND user_id = $2`, songID, userID)
	if err != nil {
		return fmt.Errorf("deleting practice song: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListPracticingSongs retrieves up to limit songs the user is actively practicing.
func (r *PracticeRepository) ListPracticingSongs(ctx context.Context, userID uuid.UUID, limit int) ([]PracticeSong, error) {
	query := `
		SELECT id, user_id, title, artist, difficulty, status, target_bpm, created_at
		FROM practice_songs
		WHERE user_id = $1 AND status = 'practicing'
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying practicing songs: %w", err)
	}
	defer rows.Close()

	var songs []PracticeSong
	for rows.Next() {
		var song PracticeSong
		if err := rows.Scan(
			&song.ID,
			&song.UserID,
			&song.Title,
			&song.Artist,
			&song.Difficulty,
			&song.Status,
			&song.TargetBPM,
			&song.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning practicing song: %w", err)
		}
		songs = append(songs, song)
	}
	return songs, rows.Err()
}

// CreateSession inserts a new practice session.
func (r *PracticeRepository) CreateSession(ctx context.Context, session *PracticeSession) error {
	query := `
		INSERT INTO practice_sessions (id, user_id, started_at, duration_minutes, rating, memo, is_quick_record, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING created_at
	`
	err := r.pool.QueryRow(ctx, query,
		session.ID,
		session.UserID,
		session.StartedAt,
		session.DurationMinutes,
		session.Rating,
		session.Memo,
		session.IsQuickRecord,
	).Scan(&session.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting practice session: %w", err)
	}
	return nil
}

// UpdateSession updates the rating and memo of an existing session.
// Other fields are immutable once created.
func (r *PracticeRepository) UpdateSession(ctx context.Context, userID, sessionID uuid.UUID, rating *int, memo string) error {
	query := `
		UPDATE practice_sessions
		SET rating = $3, memo = $4
		WHERE id = $1 AND user_id = $2
	`
	tag, err := r.pool.Exec(ctx, query, sessionID, userID, rating, memo)
	if err != nil {
		return fmt.Errorf("updating practice session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListRecentSessions retrieves a user's most recent sessions.
func (r *PracticeRepository) ListRecentSessions(ctx context.Context, userID uuid.UUID, limit int) ([]PracticeSession, error) {
	query := `
		SELECT id, user_id, started_at, duration_minutes, rating, memo, is_quick_record, created_at
		FROM practice_sessions
		WHERE user_id = $1
		ORDER BY started_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent sessions: %w", err)
	}
	defer rows.Close()

	var sessions []PracticeSession
	for rows.Next() {
		var session PracticeSession
		if err := rows.Scan(
			&session.ID,
			&session.UserID,
			&session.StartedAt,
			&session.DurationMinutes,
			&session.Rating,
			&session.Memo,
			&session.IsQuickRecord,
			&session.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// TotalMinutes returns the sum of all practice minutes for a user.
func (r *PracticeRepository) TotalMinutes(ctx context.Context, userID uuid.UUID) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(duration_minutes), 0) FROM practice_sessions WHERE user_id = $1`,
		userID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("summing practice minutes: %w", err)
	}
	return total, nil
}

// SessionCount returns the number of sessions a user logged since the given time.
func (r *PracticeRepository) SessionCount(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM practice_sessions WHERE user_id = $1 AND started_at >= $2`,
		userID, since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting sessions: %w", err)
	}
	return count, nil
}

// DistinctDates returns the distinct calendar dates (in the given IANA
// timezone) on which the user logged at least one session, newest first.
func (r *PracticeRepository) DistinctDates(ctx context.Context, userID uuid.UUID, tz string) ([]time.Time, error) {
	query := `
		SELECT DISTINCT (started_at AT TIME ZONE $2)::date AS d
		FROM practice_sessions
		WHERE user_id = $1
		ORDER BY d DESC
	`
	rows, err := r.pool.Query(ctx, query, userID, tz)
	if err != nil {
		return nil, fmt.Errorf("querying practice dates: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scanning practice date: %w", err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// MinutesByDay returns per-day practice minute sums for sessions between
// from and to (inclusive calendar dates in the given timezone).
func (r *PracticeRepository) MinutesByDay(ctx context.Context, userID uuid.UUID, from, to time.Time, tz string) (map[time.Time]int, error) {
	query := `
		SELECT (started_at AT TIME ZONE $4)::date AS d, SUM(duration_minutes)
		FROM practice_sessions
		WHERE user_id = $1
		  AND (started_at AT TIME ZONE $4)::date BETWEEN $2 AND $3
		GROUP BY d
	`
	rows, err := r.pool.Query(ctx, query, userID, from, to, tz)
	if err != nil {
		return nil, fmt.Errorf("querying minutes by day: %w", err)
	}
	defer rows.Close()

	minutes := make(map[time.Time]int)
	for rows.Next() {
		var d time.Time
		var total int
		if err := rows.Scan(&d, &total); err != nil {
			return nil, fmt.Errorf("scanning minutes by day: %w", err)
		}
		minutes[d] = total
	}
	return minutes, rows.Err()
}

// ListSessionsOn retrieves the sessions a user logged on one calendar date.
func (r *PracticeRepository) ListSessionsOn(ctx context.Context, userID uuid.UUID, date time.Time, tz string) ([]PracticeSession, error) {
	query := `
		SELECT id, user_id, started_at, duration_minutes, rating, memo, is_quick_record, created_at
		FROM practice_sessions
		WHERE user_id = $1 AND (started_at AT TIME ZONE $3)::date = $2
		ORDER BY started_at
	`
	rows, err := r.pool.Query(ctx, query, userID, date, tz)
	if err != nil {
		return nil, fmt.Errorf("querying sessions on date: %w", err)
	}
	defer rows.Close()

	var sessions []PracticeSession
	for rows.Next() {
		var session PracticeSession
		if err := rows.Scan(
			&session.ID,
			&session.UserID,
			&session.StartedAt,
			&session.DurationMinutes,
			&session.Rating,
			&session.Memo,
			&session.IsQuickRecord,
			&session.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// UserIDsPracticedOn returns the distinct users who logged a session on
// the given calendar date. Used by the reminder job.
func (r *PracticeRepository) UserIDsPracticedOn(ctx context.Context, date time.Time, tz string) ([]uuid.UUID, error) {
	query := `
		SELECT DISTINCT user_id
		FROM practice_sessions
		WHERE (started_at AT TIME ZONE $2)::date = $1
	`
	rows, err := r.pool.Query(ctx, query, date, tz)
	if err != nil {
		return nil, fmt.Errorf("querying users practiced on date: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
