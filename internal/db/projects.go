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

// ProjectRepository handles composition project and memo database operations.
type ProjectRepository struct {
	pool *pgxpool.Pool
}

// Create inserts a new project.
func (r *ProjectRepository) Create(ctx context.Context, project *Project) error {
	query := `
		INSERT INTO projects (id, user_id, title, status, key, bpm, tags, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		project.ID,
		project.UserID,
		project.Title,
		project.Status,
		project.Key,
		project.BPM,
		project.Tags,
		project.Description,
	).Scan(&project.CreatedAt, &project.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting project: %w", err)
	}
	return nil
}

// Get retrieves a project owned by the given user.
func (r *ProjectRepository) Get(ctx context.Context, userID, projectID uuid.UUID) (*Project, error) {
	query := `
		SELECT id, user_id, title, status, key, bpm, tags, description, created_at, updated_at
		FROM projects
		WHERE id = $1 AND user_id = $2
	`
	var project Project
	err := r.pool.QueryRow(ctx, query, projectID, userID).Scan(
		&project.ID,
		&project.UserID,
		&project.Title,
		&project.Status,
		&project.Key,
		&project.BPM,
		&project.Tags,
		&project.Description,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying project: %w", err)
	}
	return &project, nil
}

// List retrieves all projects for a user, most recently updated first.
func (r *ProjectRepository) List(ctx context.Context, userID uuid.UUID) ([]Project, error) {
	query := `
		SELECT id, user_id, title, status, key, bpm, tags, description, created_at, updated_at
		FROM projects
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var project Project
		if err := rows.Scan(
			&project.ID,
			&project.UserID,
			&project.Title,
			&project.Status,
			&project.Key,
			&project.BPM,
			&project.Tags,
			&project.Description,
			&project.CreatedAt,
			&project.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

// Update updates a project's editable fields and touches updated_at.
func (r *ProjectRepository) Update(ctx context.Context, project *Project) error {
	query := `
		UPDATE projects
		SET title = $3, status = $4, key = $5, bpm = $6, tags = $7, description = $8, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		project.ID,
		project.UserID,
		project.Title,
		project.Status,
		project.Key,
		project.BPM,
		project.Tags,
		project.Description,
	).Scan(&project.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("updating project: %w", err)
	}
	return nil
}

// Delete removes a project owned by the given user.
func (r *ProjectRepository) Delete(ctx context.Context, userID, projectID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM projects WHERE id = $1 AND user_id = $2`, projectID, userID)
	if err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the total number of projects for a user.
func (r *ProjectRepository) Count(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM projects WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting projects: %w", err)
	}
	return count, nil
}

// CountUpdatedSince returns the number of projects touched on or after since.
func (r *ProjectRepository) CountUpdatedSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM projects WHERE user_id = $1 AND updated_at >= $2`,
		userID, since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting updated projects: %w", err)
	}
	return count, nil
}

// TouchedByDay returns, for each calendar day between from and to, how
// many distinct projects had their last update on that day.
func (r *ProjectRepository) TouchedByDay(ctx context.Context, userID uuid.UUID, from, to time.Time, tz string) (map[time.Time]int, error) {
	query := `
		SELECT (updated_at AT TIME ZONE $4)::date AS d, COUNT(DISTINCT id)
		FROM projects
		WHERE user_id = $1
		  AND (updated_at AT TIME ZONE $4)::date BETWEEN $2 AND $3
		GROUP BY d
	`
	rows, err := r.pool.Query(ctx, query, userID, from, to, tz)
	if err != nil {
		return nil, fmt.Errorf("querying projects by day: %w", err)
	}
	defer rows.Close()

	counts := make(map[time.Time]int)
	for rows.Next() {
		var d time.Time
		var count int
		if err := rows.Scan(&d, &count); err != nil {
			return nil, fmt.Errorf("scanning projects by day: %w", err)
		}
		counts[d] = count
	}
	return counts, rows.Err()
}

// AppendMemo adds an entry to a project's timeline and touches the
// project's updated_at so the activity shows up in the heatmap.
func (r *ProjectRepository) AppendMemo(ctx context.Context, memo *Memo) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO memos (id, project_id, memo_type, text_content, file_path, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING created_at
	`
	err = tx.QueryRow(ctx, query,
		memo.ID,
		memo.ProjectID,
		memo.MemoType,
		memo.TextContent,
		memo.FilePath,
	).Scan(&memo.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting memo: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE projects SET updated_at = NOW() WHERE id = $1`, memo.ProjectID); err != nil {
		return fmt.Errorf("touching project: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing memo append: %w", err)
	}
	return nil
}

// ListMemos retrieves a project's memo timeline, newest first.
func (r *ProjectRepository) ListMemos(ctx context.Context, projectID uuid.UUID) ([]Memo, error) {
	query := `
		SELECT id, project_id, memo_type, text_content, file_path, created_at
		FROM memos
		WHERE project_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("querying memos: %w", err)
	}
	defer rows.Close()

	var memos []Memo
	for rows.Next() {
		var memo Memo
		if err := rows.Scan(
			&memo.ID,
			&memo.ProjectID,
			&memo.MemoType,
			&memo.TextContent,
			&memo.FilePath,
			&memo.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning memo: %w", err)
		}
		memos = append(memos, memo)
	}
	return memos, rows.Err()
}
