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

// LiveRepository handles live event, setlist, ticket and impression
// database operations.
type LiveRepository struct {
	pool *pgxpool.Pool
}

// CreateEvent inserts a new live event.
func (r *LiveRepository) CreateEvent(ctx context.Context, event *LiveEvent) error {
	query := `
		INSERT INTO live_events (id, user_id, share_token, artist, title, date, venue, spotify_artist_id, artist_image_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING created_at
	`
	err := r.pool.QueryRow(ctx, query,
		event.ID,
		event.UserID,
		event.ShareToken,
		event.Artist,
		event.Title,
		event.Date,
		event.Venue,
		event.SpotifyArtistID,
		event.ArtistImageURL,
	).Scan(&event.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting live event: %w", err)
	}
	return nil
}

// GetEvent retrieves a live event owned by the given user.
func (r *LiveRepository) GetEvent(ctx context.Context, userID, eventID uuid.UUID) (*LiveEvent, error) {
	query := `
		SELECT id, user_id, share_token, artist, title, date, venue, spotify_artist_id, artist_image_url, created_at
		FROM live_events
		WHERE id = $1 AND user_id = $2
	`
	var event LiveEvent
	err := r.pool.QueryRow(ctx, query, eventID, userID).Scan(
		&event.ID,
		&event.UserID,
		&event.ShareToken,
		&event.Artist,
		&event.Title,
		&event.Date,
		&event.Venue,
		&event.SpotifyArtistID,
		&event.ArtistImageURL,
		&event.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying live event: %w", err)
	}
	return &event, nil
}

// ListEvents retrieves all events for a user, newest first.
func (r *LiveRepository) ListEvents(ctx context.Context, userID uuid.UUID) ([]LiveEvent, error) {
	query := `
		SELECT id, user_id, share_token, artist, title, date, venue, spotify_artist_id, artist_image_url, created_at
		FROM live_events
		WHERE user_id = $1
		ORDER BY date DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying live events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListEventsOn retrieves all events dated on the given calendar date,
// across all users. Used by the reminder job.
func (r *LiveRepository) ListEventsOn(ctx context.Context, date time.Time) ([]LiveEvent, error) {
	query := `
		SELECT id, user_id, share_token, artist, title, date, venue, spotify_artist_id, artist_image_url, created_at
		FROM live_events
		WHERE date = $1
	`
	rows, err := r.pool.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("querying events on date: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows pgx.Rows) ([]LiveEvent, error) {
	var events []LiveEvent
	for rows.Next() {
		var event LiveEvent
		if err := rows.Scan(
			&event.ID,
			&event.UserID,
			&event.ShareToken,
			&event.Artist,
			&event.Title,
			&event.Date,
			&event.Venue,
			&event.SpotifyArtistID,
			&event.ArtistImageURL,
			&event.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning live event: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// UpdateEvent updates an event's editable fields.
func (r *LiveRepository) UpdateEvent(ctx context.Context, event *LiveEvent) error {
	query := `
		UPDATE live_events
		SET artist = $3, title = $4, date = $5, venue = $6, spotify_artist_id = $7, artist_image_url = $8
		WHERE id = $1 AND user_id = $2
	`
	tag, err := r.pool.Exec(ctx, query,
		event.ID,
		event.UserID,
		event.Artist,
		event.Title,
		event.Date,
		event.Venue,
		event.SpotifyArtistID,
		event.ArtistImageURL,
	)
	if err != nil {
		return fmt.Errorf("updating live event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteEvent removes an event owned by the given user. Setlist entries,
// ticket and impression cascade; linked expenses keep their row with a
// NULL event reference.
func (r *LiveRepository) DeleteEvent(ctx context.Context, userID, eventID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM live_events WHERE id = $1 AND user_id = $2`, eventID, userID)
	if err != nil {
		return fmt.Errorf("deleting live event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountEvents returns the total number of events for a user.
func (r *LiveRepository) CountEvents(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM live_events WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting live events: %w", err)
	}
	return count, nil
}

// CountEventsSince returns the number of events dated on or after from.
func (r *LiveRepository) CountEventsSince(ctx context.Context, userID uuid.UUID, from time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM live_events WHERE user_id = $1 AND date >= $2`,
		userID, from,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting live events since: %w", err)
	}
	return count, nil
}

// EventsByDay returns per-day event counts between from and to (inclusive).
func (r *LiveRepository) EventsByDay(ctx context.Context, userID uuid.UUID, from, to time.Time) (map[time.Time]int, error) {
	query := `
		SELECT date, COUNT(*)
		FROM live_events
		WHERE user_id = $1 AND date BETWEEN $2 AND $3
		GROUP BY date
	`
	rows, err := r.pool.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("querying events by day: %w", err)
	}
	defer rows.Close()

	counts := make(map[time.Time]int)
	for rows.Next() {
		var d time.Time
		var count int
		if err := rows.Scan(&d, &count); err != nil {
			return nil, fmt.Errorf("scanning events by day: %w", err)
		}
		counts[d] = count
	}
	return counts, rows.Err()
}

// NameCount is one (name, count) row of a ranking query.
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ArtistRanking returns the most-attended artists for past events.
func (r *LiveRepository) ArtistRanking(ctx context.Context, userID uuid.UUID, before time.Time, limit int) ([]NameCount, error) {
	query := `
		SELECT artist, COUNT(*)
		FROM live_events
		WHERE user_id = $1 AND date < $2
		GROUP BY artist
		ORDER BY COUNT(*) DESC, artist
		LIMIT $3
	`
	return r.rankingQuery(ctx, query, userID, before, limit)
}

// VenueRanking returns the most-visited venues for past events.
func (r *LiveRepository) VenueRanking(ctx context.Context, userID uuid.UUID, before time.Time, limit int) ([]NameCount, error) {
	query := `
		SELECT venue, COUNT(*)
		FROM live_events
		WHERE user_id = $1 AND date < $2 AND venue <> ''
		GROUP BY venue
		ORDER BY COUNT(*) DESC, venue
		LIMIT $3
	`
	return r.rankingQuery(ctx, query, userID, before, limit)
}

// MonthlyCounts returns per-month attendance counts for past events,
// newest month first.
func (r *LiveRepository) MonthlyCounts(ctx context.Context, userID uuid.UUID, before time.Time, limit int) ([]NameCount, error) {
	query := `
		SELECT TO_CHAR(DATE_TRUNC('month', date), 'YYYY/MM'), COUNT(*)
		FROM live_events
		WHERE user_id = $1 AND date < $2
		GROUP BY DATE_TRUNC('month', date)
		ORDER BY DATE_TRUNC('month', date) DESC
		LIMIT $3
	`
	return r.rankingQuery(ctx, query, userID, before, limit)
}

func (r *LiveRepository) rankingQuery(ctx context.Context, query string, userID uuid.UUID, before time.Time, limit int) ([]NameCount, error) {
	rows, err := r.pool.Query(ctx, query, userID, before, limit)
	if err != nil {
		return nil, fmt.Errorf("querying ranking: %w", err)
	}
	defer rows.Close()

	var result []NameCount
	for rows.Next() {
		var nc NameCount
		if err := rows.Scan(&nc.Name, &nc.Count); err != nil {
			return nil, fmt.Errorf("scanning ranking row: %w", err)
		}
		result = append(result, nc)
	}
	return result, rows.Err()
}

// ListSetlist retrieves an event's setlist in order.
func (r *LiveRepository) ListSetlist(ctx context.Context, eventID uuid.UUID) ([]SetlistEntry, error) {
	query := `
		SELECT id, event_id, song_title, ord, song_type, notes
		FROM setlist_entries
		WHERE event_id = $1
		ORDER BY ord
	`
	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("querying setlist: %w", err)
	}
	defer rows.Close()

	var entries []SetlistEntry
	for rows.Next() {
		var entry SetlistEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.EventID,
			&entry.SongTitle,
			&entry.Order,
			&entry.SongType,
			&entry.Notes,
		); err != nil {
			return nil, fmt.Errorf("scanning setlist entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// AppendSetlistEntry adds a song at the end of an event's setlist,
// assigning the next order value.
func (r *LiveRepository) AppendSetlistEntry(ctx context.Context, entry *SetlistEntry) error {
	query := `
		INSERT INTO setlist_entries (id, event_id, song_title, ord, song_type, notes)
		VALUES ($1, $2, $3,
			(SELECT COALESCE(MAX(ord), 0) + 1 FROM setlist_entries WHERE event_id = $2),
			$4, $5)
		RETURNING ord
	`
	err := r.pool.QueryRow(ctx, query,
		entry.ID,
		entry.EventID,
		entry.SongTitle,
		entry.SongType,
		entry.Notes,
	).Scan(&entry.Order)
	if err != nil {
		return fmt.Errorf("inserting setlist entry: %w", err)
	}
	return nil
}

// DeleteSetlistEntry removes one entry and reindexes the remaining
// entries to a dense 1..N sequence, in a single transaction.
func (r *LiveRepository) DeleteSetlistEntry(ctx context.Context, eventID, entryID uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`DELETE FROM setlist_entries WHERE id = $1 AND event_id = $2`, entryID, eventID)
	if err != nil {
		return fmt.Errorf("deleting setlist entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	// Close the gap left by the deleted entry.
	reindex := `
		UPDATE setlist_entries s
		SET ord = n.new_ord
		FROM (
			SELECT id, ROW_NUMBER() OVER (ORDER BY ord) AS new_ord
			FROM setlist_entries
			WHERE event_id = $1
		) n
		WHERE s.id = n.id AND s.ord <> n.new_ord
	`
	if _, err := tx.Exec(ctx, reindex, eventID); err != nil {
		return fmt.Errorf("reindexing setlist: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing setlist delete: %w", err)
	}
	return nil
}

// GetTicket retrieves the ticket for an event, if any.
func (r *LiveRepository) GetTicket(ctx context.Context, eventID uuid.UUID) (*Ticket, error) {
	query := `
		SELECT event_id, ticket_type, seat_info, price
		FROM tickets
		WHERE event_id = $1
	`
	var ticket Ticket
	err := r.pool.QueryRow(ctx, query, eventID).Scan(
		&ticket.EventID,
		&ticket.TicketType,
		&ticket.SeatInfo,
		&ticket.Price,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying ticket: %w", err)
	}
	return &ticket, nil
}

// UpsertTicket creates or replaces the ticket for an event.
func (r *LiveRepository) UpsertTicket(ctx context.Context, ticket *Ticket) error {
	query := `
		INSERT INTO tickets (event_id, ticket_type, seat_info, price)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (event_id) DO UPDATE SET
			ticket_type = EXCLUDED.ticket_type,
			seat_info = EXCLUDED.seat_info,
			price = EXCLUDED.price
	`
	_, err := r.pool.Exec(ctx, query,
		ticket.EventID,
		ticket.TicketType,
		ticket.SeatInfo,
		ticket.Price,
	)
	if err != nil {
		return fmt.Errorf("upserting ticket: %w", err)
	}
	return nil
}

// GetImpression retrieves the impression for an event, if any.
func (r *LiveRepository) GetImpression(ctx context.Context, eventID uuid.UUID) (*Impression, error) {
	query := `
		SELECT event_id, text, rating
		FROM impressions
		WHERE event_id = $1
	`
	var impression Impression
	err := r.pool.QueryRow(ctx, query, eventID).Scan(
		&impression.EventID,
		&impression.Text,
		&impression.Rating,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying impression: %w", err)
	}
	return &impression, nil
}

// UpsertImpression creates or replaces the impression for an event.
func (r *LiveRepository) UpsertImpression(ctx context.Context, impression *Impression) error {
	query := `
		INSERT INTO impressions (event_id, text, rating)
		VALUES ($1, $2, $3)
		ON CONFLICT (event_id) DO UPDATE SET
			text = EXCLUDED.text,
			rating = EXCLUDED.rating
	`
	_, err := r.pool.Exec(ctx, query,
		impression.EventID,
		impression.Text,
		impression.Rating,
	)
	if err != nil {
		return fmt.Errorf("upserting impression: %w", err)
	}
	return nil
}
