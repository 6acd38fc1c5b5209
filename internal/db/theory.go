package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TheoryRepository handles topic, bookmark and chord progression
// database operations.
type TheoryRepository struct {
	pool *pgxpool.Pool
}

const topicColumns = `id, slug, title, category, difficulty, summary, body, tags`

// ListTopics retrieves topics, optionally filtered by a free-text query
// (substring match over title, summary, tags and body) and a category.
func (r *TheoryRepository) ListTopics(ctx context.Context, query, category string) ([]Topic, error) {
	sql := `
		SELECT ` + topicColumns + `
		FROM topics
		WHERE ($1 = '' OR title ILIKE '%' || $1 || '%' OR summary ILIKE '%' || $1 || '%'
			OR tags ILIKE '%' || $1 || '%' OR body ILIKE '%' || $1 || '%')
		  AND ($2 = '' OR category = $2)
		ORDER BY category, title
	`
	rows, err := r.pool.Query(ctx, sql, query, category)
	if err != nil {
		return nil, fmt.Errorf("querying topics: %w", err)
	}
	defer rows.Close()
	return scanTopics(rows)
}

// SearchTopicsAny retrieves up to limit topics matching any of the
// keywords (case-insensitive substring match over the indexed text
// fields), deduplicated, in catalog order.
func (r *TheoryRepository) SearchTopicsAny(ctx context.Context, keywords []string, limit int) ([]Topic, error) {
	if len(keywords) == 0 {
		return nil, nil
	}
	sql := `
		SELECT DISTINCT ` + topicColumns + `
		FROM topics, unnest($1::text[]) AS kw
		WHERE title ILIKE '%' || kw || '%' OR tags ILIKE '%' || kw || '%'
			OR summary ILIKE '%' || kw || '%' OR body ILIKE '%' || kw || '%'
		ORDER BY category, title
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, sql, keywords, limit)
	if err != nil {
		return nil, fmt.Errorf("searching topics: %w", err)
	}
	defer rows.Close()
	return scanTopics(rows)
}

// GetTopicBySlug retrieves one topic by its slug.
func (r *TheoryRepository) GetTopicBySlug(ctx context.Context, slug string) (*Topic, error) {
	sql := `SELECT ` + topicColumns + ` FROM topics WHERE slug = $1`
	var topic Topic
	err := r.pool.QueryRow(ctx, sql, slug).Scan(
		&topic.ID,
		&topic.Slug,
		&topic.Title,
		&topic.Category,
		&topic.Difficulty,
		&topic.Summary,
		&topic.Body,
		&topic.Tags,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying topic: %w", err)
	}
	return &topic, nil
}

func scanTopics(rows pgx.Rows) ([]Topic, error) {
	var topics []Topic
	for rows.Next() {
		var topic Topic
		if err := rows.Scan(
			&topic.ID,
			&topic.Slug,
			&topic.Title,
			&topic.Category,
			&topic.Difficulty,
			&topic.Summary,
			&topic.Body,
			&topic.Tags,
		); err != nil {
			return nil, fmt.Errorf("scanning topic: %w", err)
		}
		topics = append(topics, topic)
	}
	return topics, rows.Err()
}

// ToggleBookmark creates a bookmark if absent or deletes it if present.
// Returns true when the topic is bookmarked after the call.
func (r *TheoryRepository) ToggleBookmark(ctx context.Context, userID, topicID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM bookmarks WHERE user_id = $1 AND topic_id = $2`, userID, topicID)
	if err != nil {
		return false, fmt.Errorf("deleting bookmark: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO bookmarks (id, user_id, topic_id, memo, created_at)
		 VALUES ($1, $2, $3, '', NOW())
		 ON CONFLICT (user_id, topic_id) DO NOTHING`,
		uuid.New(), userID, topicID)
	if err != nil {
		return false, fmt.Errorf("inserting bookmark: %w", err)
	}
	return true, nil
}

// IsBookmarked reports whether a user has bookmarked a topic.
func (r *TheoryRepository) IsBookmarked(ctx context.Context, userID, topicID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM bookmarks WHERE user_id = $1 AND topic_id = $2)`,
		userID, topicID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking bookmark: %w", err)
	}
	return exists, nil
}

// ListBookmarkedTopics retrieves the topics a user has bookmarked,
// most recently bookmarked first.
func (r *TheoryRepository) ListBookmarkedTopics(ctx context.Context, userID uuid.UUID) ([]Topic, error) {
	sql := `
		SELECT t.id, t.slug, t.title, t.category, t.difficulty, t.summary, t.body, t.tags
		FROM topics t
		JOIN bookmarks b ON b.topic_id = t.id
		WHERE b.user_id = $1
		ORDER BY b.created_at DESC
	`
	rows, err := r.pool.Query(ctx, sql, userID)
	if err != nil {
		return nil, fmt.Errorf("querying bookmarked topics: %w", err)
	}
	defer rows.Close()
	return scanTopics(rows)
}

// CountBookmarks returns the number of bookmarks a user has.
func (r *TheoryRepository) CountBookmarks(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM bookmarks WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting bookmarks: %w", err)
	}
	return count, nil
}

const progressionColumns = `id, slug, name, starting_chord, degrees, chords_in_c, description, tags, sort_order`

// ListProgressions retrieves chord progressions, optionally filtered by
// starting chord.
func (r *TheoryRepository) ListProgressions(ctx context.Context, startingChord string) ([]ChordProgression, error) {
	sql := `
		SELECT ` + progressionColumns + `
		FROM chord_progressions
		WHERE ($1 = '' OR starting_chord = $1)
		ORDER BY starting_chord, sort_order
	`
	rows, err := r.pool.Query(ctx, sql, startingChord)
	if err != nil {
		return nil, fmt.Errorf("querying progressions: %w", err)
	}
	defer rows.Close()
	return scanProgressions(rows)
}

// SearchProgressionsAny retrieves up to limit progressions matching any
// of the keywords (case-insensitive substring match), deduplicated.
func (r *TheoryRepository) SearchProgressionsAny(ctx context.Context, keywords []string, limit int) ([]ChordProgression, error) {
	if len(keywords) == 0 {
		return nil, nil
	}
	sql := `
		SELECT DISTINCT ` + progressionColumns + `
		FROM chord_progressions, unnest($1::text[]) AS kw
		WHERE name ILIKE '%' || kw || '%' OR degrees ILIKE '%' || kw || '%'
			OR tags ILIKE '%' || kw || '%' OR description ILIKE '%' || kw || '%'
		ORDER BY starting_chord, sort_order
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, sql, keywords, limit)
	if err != nil {
		return nil, fmt.Errorf("searching progressions: %w", err)
	}
	defer rows.Close()
	return scanProgressions(rows)
}

func scanProgressions(rows pgx.Rows) ([]ChordProgression, error) {
	var progressions []ChordProgression
	for rows.Next() {
		var p ChordProgression
		if err := rows.Scan(
			&p.ID,
			&p.Slug,
			&p.Name,
			&p.StartingChord,
			&p.Degrees,
			&p.ChordsInC,
			&p.Description,
			&p.Tags,
			&p.SortOrder,
		); err != nil {
			return nil, fmt.Errorf("scanning progression: %w", err)
		}
		progressions = append(progressions, p)
	}
	return progressions, rows.Err()
}
