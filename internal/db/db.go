// Package db provides PostgreSQL database access for the Zanon practice companion.
package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Common errors.
var (
	ErrNotFound = errors.New("not found")
)

// DB wraps a PostgreSQL connection pool.
type DB struct {
	pool *pgxpool.Pool
}

// New creates a new database connection pool.
func New(ctx context.Context, databaseURL string) (*DB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the database connection pool.
func (db *DB) Close() {
	db.pool.Close()
}

// Pool returns the underlying connection pool for advanced operations.
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

// Users returns a UserRepository.
func (db *DB) Users() *UserRepository {
	return &UserRepository{pool: db.pool}
}

// Practice returns a PracticeRepository.
func (db *DB) Practice() *PracticeRepository {
	return &PracticeRepository{pool: db.pool}
}

// Live returns a LiveRepository.
func (db *DB) Live() *LiveRepository {
	return &LiveRepository{pool: db.pool}
}

// Expenses returns an ExpenseRepository.
func (db *DB) Expenses() *ExpenseRepository {
	return &ExpenseRepository{pool: db.pool}
}

// Projects returns a ProjectRepository.
func (db *DB) Projects() *ProjectRepository {
	return &ProjectRepository{pool: db.pool}
}

// Theory returns a TheoryRepository.
func (db *DB) Theory() *TheoryRepository {
	return &TheoryRepository{pool: db.pool}
}

// Achievements returns an AchievementRepository.
func (db *DB) Achievements() *AchievementRepository {
	return &AchievementRepository{pool: db.pool}
}

// Chat returns a ChatRepository.
func (db *DB) Chat() *ChatRepository {
	return &ChatRepository{pool: db.pool}
}

// Advice returns an AdviceRepository.
func (db *DB) Advice() *AdviceRepository {
	return &AdviceRepository{pool: db.pool}
}

// Push returns a PushRepository.
func (db *DB) Push() *PushRepository {
	return &PushRepository{pool: db.pool}
}
