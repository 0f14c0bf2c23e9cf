// Package models holds the entities shared between the storage backends and
// the feature services. People, expenses, and splits are related by id
// reference only; aggregates are computed by folding over the collections.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Person is identified by their unique, case-sensitive name. People are
// created lazily on first reference as a payer or participant and are never
// deleted.
type Person struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Expense represents one payment event. Its split set is owned by the
// expense and fully replaced whenever amount, split method, or participants
// change.
type Expense struct {
	ID          int64           `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	PaidByID    int64           `json:"paid_by_id"`
	SplitMethod string          `json:"split_method"` // equal, exact, percentage
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	// Populated via JOIN
	PaidByName string `json:"paid_by,omitempty"`
}

// ExpenseSplit is one person's share of one expense. At most one split
// exists per (expense, person) pair, and for any expense the split amounts
// sum exactly to the expense amount.
type ExpenseSplit struct {
	ID         int64               `json:"id"`
	ExpenseID  int64               `json:"expense_id"`
	PersonID   int64               `json:"person_id"`
	Amount     decimal.Decimal     `json:"amount"`
	Percentage decimal.NullDecimal `json:"percentage"`

	// Populated via JOIN
	PersonName string `json:"person_name,omitempty"`
}
