package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AdviceRepository handles the per-user practice advice cache.
type AdviceRepository struct {
	pool *pgxpool.Pool
}

// Latest retrieves the most recent cache entry for a user.
func (r *AdviceRepository) Latest(ctx context.Context, userID uuid.UUID) (*AdviceCache, error) {
	query := `
		SELECT id, user_id, advice_text, generated_at, period_start, period_end
		FROM advice_cache
		WHERE user_id = $1
		ORDER BY generated_at DESC
		LIMIT 1
	`
	var entry AdviceCache
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&entry.ID,
		&entry.UserID,
		&entry.AdviceText,
		&entry.GeneratedAt,
		&entry.PeriodStart,
		&entry.PeriodEnd,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying advice cache: %w", err)
	}
	return &entry, nil
}

// Create stores a new cache entry and prunes rows beyond the retention
// cap, oldest first, in one transaction.
func (r *AdviceRepository) Create(ctx context.Context, entry *AdviceCache, keep int) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	insert := `
		INSERT INTO advice_cache (id, user_id, advice_text, generated_at, period_start, period_end)
		VALUES ($1, $2, $3, NOW(), $4, $5)
		RETURNING generated_at
	`
	err = tx.QueryRow(ctx, insert,
		entry.ID,
		entry.UserID,
		entry.AdviceText,
		entry.PeriodStart,
		entry.PeriodEnd,
	).Scan(&entry.GeneratedAt)
	if err != nil {
		return fmt.Errorf("inserting advice cache entry: %w", err)
	}

	prune := `
		DELETE FROM advice_cache
		WHERE user_id = $1 AND id NOT IN (
			SELECT id FROM advice_cache
			WHERE user_id = $1
			ORDER BY generated_at DESC
			LIMIT $2
		)
	`
	if _, err := tx.Exec(ctx, prune, entry.UserID, keep); err != nil {
		return fmt.Errorf("pruning advice cache: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing advice cache write: %w", err)
	}
	return nil
}

// CountForUser returns the number of retained cache rows for a user.
func (r *AdviceRepository) CountForUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM advice_cache WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting advice cache rows: %w", err)
	}
	return count, nil
}
