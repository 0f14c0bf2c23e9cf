package expense

import (
	"time"

	"github.com/fkhayef/splitledger/internal/models"
)

// SplitInput is one participant's entry in the splits array of a create or
// update request. Amount is used for exact splits, Percentage for
// percentage splits.
type SplitInput struct {
	Person     string   `json:"person"`
	Amount     *float64 `json:"amount,omitempty"`
	Percentage *float64 `json:"percentage,omitempty"`
}

// CreateExpenseRequest represents the request to create an expense.
type CreateExpenseRequest struct {
	Amount       *float64     `json:"amount"`
	Description  string       `json:"description"`
	PaidBy       string       `json:"paid_by"`
	SplitMethod  string       `json:"split_method,omitempty"` // defaults to equal
	Participants []string     `json:"participants,omitempty"` // equal splits only
	Splits       []SplitInput `json:"splits,omitempty"`       // exact and percentage splits
}

// UpdateExpenseRequest represents a partial update. Changing amount,
// split_method, participants, or splits recomputes the obligation set.
type UpdateExpenseRequest struct {
	Amount       *float64     `json:"amount,omitempty"`
	Description  *string      `json:"description,omitempty"`
	PaidBy       *string      `json:"paid_by,omitempty"`
	SplitMethod  *string      `json:"split_method,omitempty"`
	Participants []string     `json:"participants,omitempty"`
	Splits       []SplitInput `json:"splits,omitempty"`
}

// SplitResponse represents one obligation in an expense response.
type SplitResponse struct {
	ID         int64    `json:"id"`
	ExpenseID  int64    `json:"expense_id"`
	PersonID   int64    `json:"person_id"`
	PersonName string   `json:"person_name"`
	Amount     float64  `json:"amount"`
	Percentage *float64 `json:"percentage"`
}

// ExpenseResponse represents the response for an expense with its splits.
type ExpenseResponse struct {
	ID          int64            `json:"id"`
	Amount      float64          `json:"amount"`
	Description string           `json:"description"`
	PaidBy      string           `json:"paid_by"`
	PaidByID    int64            `json:"paid_by_id"`
	SplitMethod string           `json:"split_method"`
	CreatedAt   string           `json:"created_at"`
	UpdatedAt   string           `json:"updated_at"`
	Splits      []*SplitResponse `json:"splits"`
}

// ToResponse converts an expense and its splits to the wire representation.
// Monetary values become plain base-10 numbers; the internal decimals carry
// at most 2 fractional digits so the conversion is lossless.
func ToResponse(e *models.Expense, splits []models.ExpenseSplit) *ExpenseResponse {
	resp := &ExpenseResponse{
		ID:          e.ID,
		Amount:      e.Amount.InexactFloat64(),
		Description: e.Description,
		PaidBy:      e.PaidByName,
		PaidByID:    e.PaidByID,
		SplitMethod: e.SplitMethod,
		CreatedAt:   e.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   e.UpdatedAt.UTC().Format(time.RFC3339),
		Splits:      make([]*SplitResponse, len(splits)),
	}
	for i := range splits {
		resp.Splits[i] = toSplitResponse(&splits[i])
	}
	return resp
}

func toSplitResponse(s *models.ExpenseSplit) *SplitResponse {
	resp := &SplitResponse{
		ID:         s.ID,
		ExpenseID:  s.ExpenseID,
		PersonID:   s.PersonID,
		PersonName: s.PersonName,
		Amount:     s.Amount.InexactFloat64(),
	}
	if s.Percentage.Valid {
		pct := s.Percentage.Decimal.InexactFloat64()
		resp.Percentage = &pct
	}
	return resp
}
