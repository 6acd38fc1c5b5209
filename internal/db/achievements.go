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

// AchievementRepository handles badge catalog and user badge database
// operations.
type AchievementRepository struct {
	pool *pgxpool.Pool
}

// UpsertDefinition creates or updates a catalog entry keyed by slug.
// Returns true when a new row was created.
func (r *AchievementRepository) UpsertDefinition(ctx context.Context, def *AchievementDefinition) (bool, error) {
	query := `
		INSERT INTO achievement_definitions (id, slug, name, description, category, icon_name, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (slug) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			icon_name = EXCLUDED.icon_name,
			sort_order = EXCLUDED.sort_order
		RETURNING id, (xmax = 0)
	`
	var created bool
	err := r.pool.QueryRow(ctx, query,
		def.ID,
		def.Slug,
		def.Name,
		def.Description,
		def.Category,
		def.IconName,
		def.SortOrder,
	).Scan(&def.ID, &created)
	if err != nil {
		return false, fmt.Errorf("upserting achievement definition: %w", err)
	}
	return created, nil
}

// GetDefinitionBySlug retrieves one catalog entry.
func (r *AchievementRepository) GetDefinitionBySlug(ctx context.Context, slug string) (*AchievementDefinition, error) {
	query := `
		SELECT id, slug, name, description, category, icon_name, sort_order
		FROM achievement_definitions
		WHERE slug = $1
	`
	var def AchievementDefinition
	err := r.pool.QueryRow(ctx, query, slug).Scan(
		&def.ID,
		&def.Slug,
		&def.Name,
		&def.Description,
		&def.Category,
		&def.IconName,
		&def.SortOrder,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying achievement definition: %w", err)
	}
	return &def, nil
}

// ListDefinitions retrieves the whole catalog in display order.
func (r *AchievementRepository) ListDefinitions(ctx context.Context) ([]AchievementDefinition, error) {
	query := `
		SELECT id, slug, name, description, category, icon_name, sort_order
		FROM achievement_definitions
		ORDER BY sort_order
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying achievement definitions: %w", err)
	}
	defer rows.Close()

	var defs []AchievementDefinition
	for rows.Next() {
		var def AchievementDefinition
		if err := rows.Scan(
			&def.ID,
			&def.Slug,
			&def.Name,
			&def.Description,
			&def.Category,
			&def.IconName,
			&def.SortOrder,
		); err != nil {
			return nil, fmt.Errorf("scanning achievement definition: %w", err)
		}
		defs = append(defs, def)
	}
	return defs, rows.Err()
}

// GetOrCreate atomically grants a badge to a user. The unique
// (user_id, achievement_id) constraint resolves concurrent grants: a
// conflict means the badge already exists and is reported as
// created=false, never as an error.
func (r *AchievementRepository) GetOrCreate(ctx context.Context, userID, achievementID uuid.UUID) (bool, error) {
	query := `
		INSERT INTO user_achievements (id, user_id, achievement_id, earned_at, notified)
		VALUES ($1, $2, $3, NOW(), FALSE)
		ON CONFLICT (user_id, achievement_id) DO NOTHING
	`
	tag, err := r.pool.Exec(ctx, query, uuid.New(), userID, achievementID)
	if err != nil {
		return false, fmt.Errorf("granting achievement: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// EarnedAchievement is a catalog entry joined with a user's earn state.
type EarnedAchievement struct {
	AchievementDefinition
	Earned   bool       `json:"earned"`
	EarnedAt *time.Time `json:"earned_at"`
}

// ListForUser retrieves the full catalog with the user's earned flags.
func (r *AchievementRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]EarnedAchievement, error) {
	query := `
		SELECT d.id, d.slug, d.name, d.description, d.category, d.icon_name, d.sort_order,
			ua.earned_at
		FROM achievement_definitions d
		LEFT JOIN user_achievements ua ON ua.achievement_id = d.id AND ua.user_id = $1
		ORDER BY d.sort_order
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying user achievements: %w", err)
	}
	defer rows.Close()

	var result []EarnedAchievement
	for rows.Next() {
		var ea EarnedAchievement
		if err := rows.Scan(
			&ea.ID,
			&ea.Slug,
			&ea.Name,
			&ea.Description,
			&ea.Category,
			&ea.IconName,
			&ea.SortOrder,
			&ea.EarnedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning user achievement: %w", err)
		}
		ea.Earned = ea.EarnedAt != nil
		result = append(result, ea)
	}
	return result, rows.Err()
}

// PopUnnotified retrieves the user's unnotified badges and marks them
// notified, so each badge is surfaced in the UI exactly once.
func (r *AchievementRepository) PopUnnotified(ctx context.Context, userID uuid.UUID) ([]AchievementDefinition, error) {
	query := `
		UPDATE user_achievements ua
		SET notified = TRUE
		FROM achievement_definitions d
		WHERE ua.achievement_id = d.id AND ua.user_id = $1 AND NOT ua.notified
		RETURNING d.id, d.slug, d.name, d.description, d.category, d.icon_name, d.sort_order
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("popping unnotified achievements: %w", err)
	}
	defer rows.Close()

	var defs []AchievementDefinition
	for rows.Next() {
		var def AchievementDefinition
		if err := rows.Scan(
			&def.ID,
			&def.Slug,
			&def.Name,
			&def.Description,
			&def.Category,
			&def.IconName,
			&def.SortOrder,
		); err != nil {
			return nil, fmt.Errorf("scanning unnotified achievement: %w", err)
		}
		defs = append(defs, def)
	}
	return defs, rows.Err()
}
