// Package postgres provides a PostgreSQL-backed implementation of the
// storage.Store interface.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq" // Postgres driver

	"github.com/fkhayef/splitledger/internal/models"
	"github.com/fkhayef/splitledger/internal/storage"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Ensure PostgresStore implements storage.Store
var _ storage.Store = (*PostgresStore)(nil)

// PostgresStore implements storage.Store using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// New connects to the database at the given URL and runs migrations.
func New(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("create postgres driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// ListPeople returns every known person in creation order.
func (s *PostgresStore) ListPeople(ctx context.Context) ([]models.Person, error) {
	query := `
		SELECT id, name, created_at
		FROM people
		ORDER BY id
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list people: %w", err)
	}
	defer rows.Close()

	var people []models.Person
	for rows.Next() {
		var p models.Person
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan person: %w", err)
		}
		people = append(people, p)
	}

	return people, rows.Err()
}

// GetOrCreatePersonByName returns the person with the given name, creating
// them if absent. ON CONFLICT DO NOTHING plus a re-select keeps concurrent
// callers from producing duplicate people.
func (s *PostgresStore) GetOrCreatePersonByName(ctx context.Context, name string) (*models.Person, error) {
	name = strings.TrimSpace(name)

	insert := `
		INSERT INTO people (name)
		VALUES ($1)
		ON CONFLICT (name) DO NOTHING
		RETURNING id, name, created_at
	`

	person := &models.Person{}
	err := s.db.QueryRowContext(ctx, insert, name).Scan(&person.ID, &person.Name, &person.CreatedAt)
	if err == nil {
		return person, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to create person: %w", err)
	}

	// Conflict: the person already exists.
	query := `SELECT id, name, created_at FROM people WHERE name = $1`
	err = s.db.QueryRowContext(ctx, query, name).Scan(&person.ID, &person.Name, &person.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get person: %w", err)
	}

	return person, nil
}

// CreateExpense inserts the expense and its full split set in one
// transaction, so a reader never observes an expense without obligations.
func (s *PostgresStore) CreateExpense(ctx context.Context, expense *models.Expense, splits []models.ExpenseSplit) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	insert := `
		INSERT INTO expenses (amount, description, paid_by_id, split_method)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err = tx.QueryRowContext(ctx, insert,
		expense.Amount,
		expense.Description,
		expense.PaidByID,
		expense.SplitMethod,
	).Scan(&expense.ID, &expense.CreatedAt, &expense.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}

	if err := insertSplits(ctx, tx, expense.ID, splits); err != nil {
		return err
	}

	return tx.Commit()
}

// GetExpense retrieves an expense by its ID.
func (s *PostgresStore) GetExpense(ctx context.Context, id int64) (*models.Expense, error) {
	query := `
		SELECT e.id, e.amount, e.description, e.paid_by_id, e.split_method, e.created_at, e.updated_at, p.name
		FROM expenses e
		JOIN people p ON e.paid_by_id = p.id
		WHERE e.id = $1
	`

	expense := &models.Expense{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&expense.ID,
		&expense.Amount,
		&expense.Description,
		&expense.PaidByID,
		&expense.SplitMethod,
		&expense.CreatedAt,
		&expense.UpdatedAt,
		&expense.PaidByName,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	return expense, nil
}

// ListExpenses returns all expenses, newest first.
func (s *PostgresStore) ListExpenses(ctx context.Context) ([]models.Expense, error) {
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
		if err := rows.Scan(
			&e.ID,
			&e.Amount,
			&e.Description,
			&e.PaidByID,
			&e.SplitMethod,
			&e.CreatedAt,
			&e.UpdatedAt,
			&e.PaidByName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}

	return expenses, rows.Err()
}

// UpdateExpense persists the expense fields and, when splits is non-nil,
// replaces the split set in the same transaction.
func (s *PostgresStore) UpdateExpense(ctx context.Context, expense *models.Expense, splits []models.ExpenseSplit) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	update := `
		UPDATE expenses
		SET amount = $2, description = $3, paid_by_id = $4, split_method = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err = tx.QueryRowContext(ctx, update,
		expense.ID,
		expense.Amount,
		expense.Description,
		expense.PaidByID,
		expense.SplitMethod,
	).Scan(&expense.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("failed to update expense: %w", err)
	}

	if splits != nil {
		if err := replaceSplits(ctx, tx, expense.ID, splits); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// DeleteExpense removes an expense; its splits cascade.
func (s *PostgresStore) DeleteExpense(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1`, id)
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

	return nil
}

// ReplaceExpenseSplits atomically swaps the full split set for one expense.
func (s *PostgresStore) ReplaceExpenseSplits(ctx context.Context, expenseID int64, splits []models.ExpenseSplit) error {
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
	if _, err := tx.ExecContext(ctx, `DELETE FROM expense_splits WHERE expense_id = $1`, expenseID); err != nil {
		return fmt.Errorf("failed to delete splits: %w", err)
	}
	return insertSplits(ctx, tx, expenseID, splits)
}

func insertSplits(ctx context.Context, tx *sql.Tx, expenseID int64, splits []models.ExpenseSplit) error {
	insert := `
		INSERT INTO expense_splits (expense_id, person_id, amount, percentage)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	for i := range splits {
		splits[i].ExpenseID = expenseID
		err := tx.QueryRowContext(ctx, insert,
			expenseID,
			splits[i].PersonID,
			splits[i].Amount,
			splits[i].Percentage,
		).Scan(&splits[i].ID)
		if err != nil {
			return fmt.Errorf("failed to create split: %w", err)
		}
	}
	return nil
}

// ListSplitsByExpense returns the splits for one expense with person names
// populated.
func (s *PostgresStore) ListSplitsByExpense(ctx context.Context, expenseID int64) ([]models.ExpenseSplit, error) {
	query := `
		SELECT s.id, s.expense_id, s.person_id, s.amount, s.percentage, p.name
		FROM expense_splits s
		JOIN people p ON s.person_id = p.id
		WHERE s.expense_id = $1
		ORDER BY s.id
	`
	return s.querySplits(ctx, query, expenseID)
}

// ListSplits returns every split in the store.
func (s *PostgresStore) ListSplits(ctx context.Context) ([]models.ExpenseSplit, error) {
	query := `
		SELECT s.id, s.expense_id, s.person_id, s.amount, s.percentage, p.name
		FROM expense_splits s
		JOIN people p ON s.person_id = p.id
		ORDER BY s.id
	`
	return s.querySplits(ctx, query)
}

func (s *PostgresStore) querySplits(ctx context.Context, query string, args ...interface{}) ([]models.ExpenseSplit, error) {
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
