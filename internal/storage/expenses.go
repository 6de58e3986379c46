package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/geospice/internal/common"
	"github.com/Veraticus/geospice/internal/model"
	"github.com/google/uuid"
)

// SaveExpense inserts or replaces an expense. A missing ID is generated and
// written back to e.
func (s *SQLiteStorage) SaveExpense(ctx context.Context, e *model.Expense) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := ValidateExpense(e); err != nil {
		return err
	}
	return s.saveExpenseTx(ctx, s.db, e)
}

// SaveExpenses writes all expenses in one transaction, calling progress after
// each one. Nothing is written if any expense is invalid.
func (s *SQLiteStorage) SaveExpenses(ctx context.Context, expenses []model.Expense, progress func(done int)) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	for i := range expenses {
		if err := ValidateExpense(&expenses[i]); err != nil {
			return fmt.Errorf("expense at index %d: %w", i, err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i := range expenses {
		if err := s.saveExpenseTx(ctx, tx, &expenses[i]); err != nil {
			return fmt.Errorf("expense at index %d: %w", i, err)
		}
		if progress != nil {
			progress(i + 1)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStorage) saveExpenseTx(ctx context.Context, q queryable, e *model.Expense) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO expenses (id, category, label, amount, latitude, longitude, datetime, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			category = excluded.category,
			label = excluded.label,
			amount = excluded.amount,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			datetime = excluded.datetime
	`, e.ID, string(e.Category), e.Label, e.Amount, e.Latitude, e.Longitude, e.DateTime, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save expense: %w", err)
	}
	return nil
}

// GetExpense returns the expense with the given ID, or common.ErrNotFound.
func (s *SQLiteStorage) GetExpense(ctx context.Context, id string) (*model.Expense, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, category, label, amount, latitude, longitude, datetime, created_at
		FROM expenses
		WHERE id = ?
	`, id)

	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("expense %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return e, nil
}

// ListExpenses returns every stored expense, most recent first.
func (s *SQLiteStorage) ListExpenses(ctx context.Context) ([]model.Expense, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category, label, amount, latitude, longitude, datetime, created_at
		FROM expenses
		ORDER BY datetime DESC, created_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	expenses := []model.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, *e)
	}
	return expenses, rows.Err()
}

// DeleteExpense removes an expense, returning common.ErrNotFound if it does
// not exist.
func (s *SQLiteStorage) DeleteExpense(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("expense %s: %w", id, common.ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExpense(sc scanner) (*model.Expense, error) {
	var (
		e        model.Expense
		category string
	)
	if err := sc.Scan(&e.ID, &category, &e.Label, &e.Amount, &e.Latitude, &e.Longitude, &e.DateTime, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.Category = model.Category(category)
	return &e, nil
}
