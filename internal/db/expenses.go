package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ExpenseRepository handles gig expense database operations.
type ExpenseRepository struct {
	pool *pgxpool.Pool
}

// Create inserts a new expense.
func (r *ExpenseRepository) Create(ctx context.Context, expense *Expense) error {
	query := `
		INSERT INTO expenses (id, user_id, event_id, amount, category, memo, date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query,
		expense.ID,
		expense.UserID,
		expense.EventID,
		expense.Amount,
		expense.Category,
		expense.Memo,
		expense.Date,
	)
	if err != nil {
		return fmt.Errorf("inserting expense: %w", err)
	}
	return nil
}

// List retrieves all expenses for a user, newest first.
func (r *ExpenseRepository) List(ctx context.Context, userID uuid.UUID) ([]Expense, error) {
	query := `
		SELECT id, user_id, event_id, amount, category, memo, date
		FROM expenses
		WHERE user_id = $1
		ORDER BY date DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying expenses: %w", err)
	}
	defer rows.Close()

	var expenses []Expense
	for rows.Next() {
		var expense Expense
		if err := rows.Scan(
			&expense.ID,
			&expense.UserID,
			&expense.EventID,
			&expense.Amount,
			&expense.Category,
			&expense.Memo,
			&expense.Date,
		); err != nil {
			return nil, fmt.Errorf("scanning expense: %w", err)
		}
		expenses = append(expenses, expense)
	}
	return expenses, rows.Err()
}

// Get retrieves an expense owned by the given user.
func (r *ExpenseRepository) Get(ctx context.Context, userID, expenseID uuid.UUID) (*Expense, error) {
	query := `
		SELECT id, user_id, event_id, amount, category, memo, date
		FROM expenses
		WHERE id = $1 AND user_id = $2
	`
	var expense Expense
	err := r.pool.QueryRow(ctx, query, expenseID, userID).Scan(
		&expense.ID,
		&expense.UserID,
		&expense.EventID,
		&expense.Amount,
		&expense.Category,
		&expense.Memo,
		&expense.Date,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying expense: %w", err)
	}
	return &expense, nil
}

// Delete removes an expense owned by the given user.
func (r *ExpenseRepository) Delete(ctx context.Context, userID, expenseID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM expenses WHERE id = $1 AND user_id = $2`, expenseID, userID)
	if err != nil {
		return fmt.Errorf("deleting expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MonthlyTotals returns per-month expense totals, newest month first.
func (r *ExpenseRepository) MonthlyTotals(ctx context.Context, userID uuid.UUID, limit int) ([]NameCount, error) {
	query := `
		SELECT TO_CHAR(DATE_TRUNC('month', date), 'YYYY/MM'), SUM(amount)
		FROM expenses
		WHERE user_id = $1
		GROUP BY DATE_TRUNC('month', date)
		ORDER BY DATE_TRUNC('month', date) DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying monthly expense totals: %w", err)
	}
	defer rows.Close()

	var totals []NameCount
	for rows.Next() {
		var nc NameCount
		if err := rows.Scan(&nc.Name, &nc.Count); err != nil {
			return nil, fmt.Errorf("scanning monthly total: %w", err)
		}
		totals = append(totals, nc)
	}
	return totals, rows.Err()
}

// CategoryTotals returns total spend per category, largest first.
func (r *ExpenseRepository) CategoryTotals(ctx context.Context, userID uuid.UUID) ([]NameCount, error) {
	query := `
		SELECT category, SUM(amount)
		FROM expenses
		WHERE user_id = $1
		GROUP BY category
		ORDER BY SUM(amount) DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying category totals: %w", err)
	}
	defer rows.Close()

	var totals []NameCount
	for rows.Next() {
		var nc NameCount
		if err := rows.Scan(&nc.Name, &nc.Count); err != nil {
			return nil, fmt.Errorf("scanning category total: %w", err)
		}
		totals = append(totals, nc)
	}
	return totals, rows.Err()
}
