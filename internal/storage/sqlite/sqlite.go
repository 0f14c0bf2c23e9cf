// Package sqlite provides a SQLite-backed implementation of the
// storage.Store interface using the pure Go driver (no CGO).
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/fkhayef/splitledger/internal/models"
	"github.com/fkhayef/splitledger/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// timeFormat is how timestamps are stored; SQLite has no native type.
const timeFormat = time.RFC3339Nano

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore at the given database path. It creates the
// parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ListPeople returns every known person in creation order.
func (s *SQLiteStore) ListPeople(ctx context.Context) ([]models.Person, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, created_at FROM people ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list people: %w", err)
	}
	defer rows.Close()

	var people []models.Person
	for rows.Next() {
		var p models.Person
		var createdAt string
		if err := rows.Scan(&p.ID, &p.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan person: %w", err)
		}
		p.CreatedAt = parseTime(createdAt)
		people = append(people, p)
	}

	return people, rows.Err()
}

// GetOrCreatePersonByName returns the person with the given name, creating
// them if absent. The UNIQUE constraint plus ON CONFLICT DO NOTHING keeps
// concurrent callers from producing duplicates.
func (s *SQLiteStore) GetOrCreatePersonByName(ctx context.Context, name string) (*models.Person, error) {
	name = strings.TrimSpace(name)

	insert := `INSERT INTO people (name, created_at) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`
	if _, err := s.db.ExecContext(ctx, insert, name, time.Now().UTC().Format(timeFormat)); err != nil {
		return nil, fmt.Errorf("failed to create person: %w", err)
	}

	person := &models.Person{}
	var createdAt string
	err := s.db.QueryRowContext(ctx, `SELECT id, name, created_at FROM people WHERE name = ?`, name).
		Scan(&person.ID, &person.Name, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get person: %w", err)
	}
	person.CreatedAt = parseTime(createdAt)

	return person, nil
}

// CreateExpense inserts the expense and its full split set in one
// transaction.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense, splits []models.ExpenseSplit) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	expense.CreatedAt = now
	expense.UpdatedAt = now

	insert := `
		INSERT INTO expenses (amount, description, paid_by_id, split_method, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	result, err := tx.ExecContext(ctx, insert,
		expense.Amount,
		expense.Description,
		expense.PaidByID,
		expense.SplitMethod,
		now.Format(timeFormat),
		now.Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}

	expense.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}

	if err := insertSplits(ctx, tx, expense.ID, splits); err != nil {
		return err
	}

	return tx.Commit()
}

// GetExpense retrieves an expense by its ID.
func (s *SQLiteStore) GetExpense(ctx context.Context, id int64) (*models.Expense, error) {
	query := `
		SELECT e.id, e.amount, e.description, e.paid_by_id, e.split_method, e.created_at, e.updated_at, p.name
		FROM expenses e
		JOIN people p ON e.paid_by_id = p.id
		WHERE e.id = ?
	`

	expense := &models.Expense{}
	var createdAt, updatedAt string
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&expense.ID,
		&expense.Amount,
		&expense.Description,
		&expense.PaidByID,
		&expense.SplitMethod,
		&createdAt,
		&updatedAt,
		&expense.PaidByName,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	expense.CreatedAt = parseTime(createdAt)
	expense.UpdatedAt = parseTime(updatedAt)

	return expense, nil
}

// ListExpenses returns all expenses, newest first.
func (s *SQLiteStore) ListExpenses(ctx context.Context) ([]models.Expense, error) {
	query := `
		SELECT e.id, e.amount, e.description, e.paid_by_id, e.split_method, e.created_at, e.updated_at, p.name
		FROM expenses e
		JOIN people p ON e.paid_by_id = p.id
		ORDER BY e.created_at DESC, e.id DESC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		var e models.Expense
		var createdAt, updatedAt string
		if err := rows.Scan(
			&e.ID,
			&e.Amount,
			&e.Description,
			&e.PaidByID,
			&e.SplitMethod,
			&createdAt,
			&updatedAt,
			&e.PaidByName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		e.CreatedAt = parseTime(createdAt)
		e.UpdatedAt = parseTime(updatedAt)
		expenses = append(expenses, e)
	}

	return expenses, rows.Err()
}

// UpdateExpense persists the expense fields and, when splits is non-nil,
// replaces the split set in the same transaction.
func (s *SQLiteStore) UpdateExpense(ctx context.Context, expense *models.Expense, splits []models.ExpenseSplit) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	expense.UpdatedAt = time.Now().UTC()

	update := `
		UPDATE expenses
		SET amount = ?, description = ?, paid_by_id = ?, split_method = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := tx.ExecContext(ctx, update,
		expense.Amount,
		expense.Description,
		expense.PaidByID,
		expense.SplitMethod,
		expense.UpdatedAt.Format(timeFormat),
		expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}

	if splits != nil {
		if err := replaceSplits(ctx, tx, expense.ID, splits); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// DeleteExpense removes an expense and its splits.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM expense_splits WHERE expense_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete splits: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}

	return tx.Commit()
}

// ReplaceExpenseSplits atomically swaps the full split set for one expense.
func (s *SQLiteStore) ReplaceExpenseSplits(ctx context.Context, expenseID int64, splits []models.ExpenseSplit) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := replaceSplits(ctx, tx, expenseID, splits); err != nil {
		return err
	}

	return tx.Commit()
}

func replaceSplits(ctx context.Context, tx *sql.Tx, expenseID int64, splits []models.ExpenseSplit) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM expense_splits WHERE expense_id = ?`, expenseID); err != nil {
		return fmt.Errorf("failed to delete splits: %w", err)
	}
	return insertSplits(ctx, tx, expenseID, splits)
}

func insertSplits(ctx context.Context, tx *sql.Tx, expenseID int64, splits []models.ExpenseSplit) error {
	insert := `
		INSERT INTO expense_splits (expense_id, person_id, amount, percentage)
		VALUES (?, ?, ?, ?)
	`
	for i := range splits {
		splits[i].ExpenseID = expenseID
		result, err := tx.ExecContext(ctx, insert,
			expenseID,
			splits[i].PersonID,
			splits[i].Amount,
			splits[i].Percentage,
		)
		if err != nil {
			return fmt.Errorf("failed to create split: %w", err)
		}
		if splits[i].ID, err = result.LastInsertId(); err != nil {
			return fmt.Errorf("failed to create split: %w", err)
		}
	}
	return nil
}

// ListSplitsByExpense returns the splits for one expense with person names
// populated.
func (s *SQLiteStore) ListSplitsByExpense(ctx context.Context, expenseID int64) ([]models.ExpenseSplit, error) {
	query := `
		SELECT s.id, s.expense_id, s.person_id, s.amount, s.percentage, p.name
		FROM expense_splits s
		JOIN people p ON s.person_id = p.id
		WHERE s.expense_id = ?
		ORDER BY s.id
	`
	return s.querySplits(ctx, query, expenseID)
}

// ListSplits returns every split in the store.
func (s *SQLiteStore) ListSplits(ctx context.Context) ([]models.ExpenseSplit, error) {
	query := `
		SELECT s.id, s.expense_id, s.person_id, s.amount, s.percentage, p.name
		FROM expense_splits s
		JOIN people p ON s.person_id = p.id
		ORDER BY s.id
	`
	return s.querySplits(ctx, query)
}

func (s *SQLiteStore) querySplits(ctx context.Context, query string, args ...interface{}) ([]models.ExpenseSplit, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list splits: %w", err)
	}
	defer rows.Close()

	var splits []models.ExpenseSplit
	for rows.Next() {
		var sp models.ExpenseSplit
		if err := rows.Scan(
			&sp.ID,
			&sp.ExpenseID,
			&sp.PersonID,
			&sp.Amount,
			&sp.Percentage,
			&sp.PersonName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}
		splits = append(splits, sp)
	}

	return splits, rows.Err()
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
