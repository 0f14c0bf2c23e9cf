// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/fkhayef/splitledger/internal/models"
)

// ErrNotFound is returned when a referenced expense or person is absent.
var ErrNotFound = errors.New("not found")

// Store defines the capability interface the engines and services are
// polymorphic over. This keeps the split and settlement logic written once,
// regardless of which backend holds the data.
//
// Two operations carry atomicity contracts:
//
//   - GetOrCreatePersonByName must not race with itself: concurrent calls
//     with the same name return the same person, never duplicates.
//   - ReplaceExpenseSplits (and the split portion of CreateExpense /
//     UpdateExpense) applies its delete-then-insert as one atomic unit; no
//     reader may observe an expense with a partial split set.
type Store interface {
	// ListPeople returns every known person in creation order.
	ListPeople(ctx context.Context) ([]models.Person, error)

	// GetOrCreatePersonByName returns the person with the given
	// (trimmed, case-sensitive) name, creating them on first reference.
	GetOrCreatePersonByName(ctx context.Context, name string) (*models.Person, error)

	// CreateExpense persists an expense together with its full split set
	// in one transaction. The expense and split IDs are populated by the
	// store.
	CreateExpense(ctx context.Context, expense *models.Expense, splits []models.ExpenseSplit) error

	// GetExpense retrieves an expense by ID, or ErrNotFound.
	GetExpense(ctx context.Context, id int64) (*models.Expense, error)

	// ListExpenses returns all expenses, newest first.
	ListExpenses(ctx context.Context) ([]models.Expense, error)

	// UpdateExpense persists changed expense fields and, when splits is
	// non-nil, replaces the expense's split set in the same transaction.
	UpdateExpense(ctx context.Context, expense *models.Expense, splits []models.ExpenseSplit) error

	// DeleteExpense removes an expense and its splits, or ErrNotFound.
	DeleteExpense(ctx context.Context, id int64) error

	// ReplaceExpenseSplits atomically swaps the full split set for one
	// expense.
	ReplaceExpenseSplits(ctx context.Context, expenseID int64, splits []models.ExpenseSplit) error

	// ListSplitsByExpense returns the splits for one expense with person
	// names populated, in insertion order.
	ListSplitsByExpense(ctx context.Context, expenseID int64) ([]models.ExpenseSplit, error)

	// ListSplits returns every split in the store.
	ListSplits(ctx context.Context) ([]models.ExpenseSplit, error)

	// Close releases any resources held by the store.
	Close() error
}
