package expense

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fkhayef/splitledger/internal/expense/split"
	"github.com/fkhayef/splitledger/internal/models"
	"github.com/fkhayef/splitledger/internal/storage"
)

// Common errors
var ErrExpenseNotFound = errors.New("expense not found")

// Service handles expense business logic: validation, person resolution,
// split computation, and atomic persistence.
type Service struct {
	store        storage.Store
	splitFactory *split.Factory
}

// NewService creates a new expense service with dependencies injected.
func NewService(store storage.Store, splitFactory *split.Factory) *Service {
	return &Service{
		store:        store,
		splitFactory: splitFactory,
	}
}

// Create validates the request, computes the splits with the requested
// policy, and persists the expense together with its full obligation set in
// one atomic write.
func (s *Service) Create(ctx context.Context, req *CreateExpenseRequest) (*models.Expense, []models.ExpenseSplit, error) {
	if err := validateCreate(req); err != nil {
		return nil, nil, err
	}

	payer, err := s.store.GetOrCreatePersonByName(ctx, req.PaidBy)
	if err != nil {
		return nil, nil, err
	}

	method := req.SplitMethod
	if method == "" {
		method = string(split.PolicyEqual)
	}

	amount := decimal.NewFromFloat(*req.Amount).Round(2)

	obligations, err := s.computeObligations(amount, method, payer.Name, req.Participants, req.Splits)
	if err != nil {
		return nil, nil, err
	}

	expenseSplits, err := s.resolveObligations(ctx, obligations)
	if err != nil {
		return nil, nil, err
	}

	expense := &models.Expense{
		Amount:      amount,
		Description: strings.TrimSpace(req.Description),
		PaidByID:    payer.ID,
		PaidByName:  payer.Name,
		SplitMethod: method,
	}

	if err := s.store.CreateExpense(ctx, expense, expenseSplits); err != nil {
		return nil, nil, err
	}

	return expense, expenseSplits, nil
}

// GetByID retrieves an expense with its splits.
func (s *Service) GetByID(ctx context.Context, id int64) (*models.Expense, []models.ExpenseSplit, error) {
	expense, err := s.store.GetExpense(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, ErrExpenseNotFound
		}
		return nil, nil, err
	}

	splits, err := s.store.ListSplitsByExpense(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	return expense, splits, nil
}

// List retrieves all expenses, newest first, with their splits attached.
func (s *Service) List(ctx context.Context) ([]*models.Expense, map[int64][]models.ExpenseSplit, error) {
	expenses, err := s.store.ListExpenses(ctx)
	if err != nil {
		return nil, nil, err
	}

	allSplits, err := s.store.ListSplits(ctx)
	if err != nil {
		return nil, nil, err
	}

	byExpense := make(map[int64][]models.ExpenseSplit)
	for _, sp := range allSplits {
		byExpense[sp.ExpenseID] = append(byExpense[sp.ExpenseID], sp)
	}

	result := make([]*models.Expense, len(expenses))
	for i := range expenses {
		result[i] = &expenses[i]
	}

	return result, byExpense, nil
}

// Update applies a partial update. When any financially relevant field
// changes (amount, split method, participants, splits), the obligation set
// is recomputed and fully replaced in the same transaction as the expense
// update.
func (s *Service) Update(ctx context.Context, id int64, req *UpdateExpenseRequest) (*models.Expense, []models.ExpenseSplit, error) {
	expense, err := s.store.GetExpense(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, ErrExpenseNotFound
		}
		return nil, nil, err
	}

	// Merge the request over the stored expense, then validate the
	// effective state as if it were a create.
	effective := &CreateExpenseRequest{
		Description:  expense.Description,
		PaidBy:       expense.PaidByName,
		SplitMethod:  expense.SplitMethod,
		Participants: req.Participants,
		Splits:       req.Splits,
	}
	amountValue := expense.Amount.InexactFloat64()
	effective.Amount = &amountValue
	if req.Amount != nil {
		effective.Amount = req.Amount
	}
	if req.Description != nil {
		effective.Description = *req.Description
	}
	if req.PaidBy != nil {
		effective.PaidBy = *req.PaidBy
	}
	if req.SplitMethod != nil {
		effective.SplitMethod = *req.SplitMethod
	}

	recompute := req.Amount != nil || req.SplitMethod != nil || req.Participants != nil || req.Splits != nil

	// A method switch to exact or percentage needs a splits array; without
	// a recompute the splits array rules don't apply.
	if recompute {
		if err := validateCreate(effective); err != nil {
			return nil, nil, err
		}
	} else if err := validateCreate(&CreateExpenseRequest{
		Amount:      effective.Amount,
		Description: effective.Description,
		PaidBy:      effective.PaidBy,
	}); err != nil {
		return nil, nil, err
	}

	payer, err := s.store.GetOrCreatePersonByName(ctx, effective.PaidBy)
	if err != nil {
		return nil, nil, err
	}

	expense.Amount = decimal.NewFromFloat(*effective.Amount).Round(2)
	expense.Description = strings.TrimSpace(effective.Description)
	expense.PaidByID = payer.ID
	expense.PaidByName = payer.Name
	expense.SplitMethod = effective.SplitMethod

	var newSplits []models.ExpenseSplit
	if recompute {
		participants := req.Participants
		if split.Policy(effective.SplitMethod) == split.PolicyEqual && participants == nil {
			// Amount-only updates keep the current participant set.
			participants, err = s.currentParticipants(ctx, id, payer.Name)
			if err != nil {
				return nil, nil, err
			}
		}

		obligations, err := s.computeObligations(expense.Amount, effective.SplitMethod, payer.Name, participants, req.Splits)
		if err != nil {
			return nil, nil, err
		}

		newSplits, err = s.resolveObligations(ctx, obligations)
		if err != nil {
			return nil, nil, err
		}
	}

	if err := s.store.UpdateExpense(ctx, expense, newSplits); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, ErrExpenseNotFound
		}
		return nil, nil, err
	}

	if newSplits == nil {
		if newSplits, err = s.store.ListSplitsByExpense(ctx, id); err != nil {
			return nil, nil, err
		}
	}

	return expense, newSplits, nil
}

// Delete removes an expense and its splits.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteExpense(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrExpenseNotFound
		}
		return err
	}
	return nil
}

// computeObligations runs the split engine for the given method. Equal
// splits take their participant set from the participants list (defaulting
// to the payer, who is always included); exact and percentage splits take
// it from the splits array.
func (s *Service) computeObligations(amount decimal.Decimal, method, payerName string, participants []string, splits []SplitInput) ([]split.Obligation, error) {
	strategy, err := s.splitFactory.CreateFromString(method)
	if err != nil {
		return nil, &ValidationError{Code: CodeInvalidPolicy, Issues: []string{err.Error()}}
	}

	var inputs []split.Participant
	if strategy.Policy() == split.PolicyEqual {
		names := make([]string, 0, len(participants)+1)
		hasPayer := false
		for _, name := range participants {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if name == payerName {
				hasPayer = true
			}
			names = append(names, name)
		}
		if !hasPayer {
			names = append(names, payerName)
		}
		for _, name := range names {
			inputs = append(inputs, split.Participant{Name: name})
		}
	} else {
		for _, in := range splits {
			p := split.Participant{Name: strings.TrimSpace(in.Person)}
			if in.Amount != nil {
				d := decimal.NewFromFloat(*in.Amount)
				p.Amount = &d
			}
			if in.Percentage != nil {
				d := decimal.NewFromFloat(*in.Percentage)
				p.Percentage = &d
			}
			inputs = append(inputs, p)
		}
	}

	obligations, err := strategy.Compute(amount, inputs)
	if err != nil {
		return nil, &ValidationError{Code: CodeValidationFailed, Issues: []string{err.Error()}}
	}
	return obligations, nil
}

// resolveObligations turns engine output into storable splits, creating
// people on first reference.
func (s *Service) resolveObligations(ctx context.Context, obligations []split.Obligation) ([]models.ExpenseSplit, error) {
	splits := make([]models.ExpenseSplit, len(obligations))
	for i, o := range obligations {
		person, err := s.store.GetOrCreatePersonByName(ctx, o.PersonName)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve participant %s: %w", o.PersonName, err)
		}
		splits[i] = models.ExpenseSplit{
			PersonID:   person.ID,
			PersonName: person.Name,
			Amount:     o.Amount,
			Percentage: decimal.NullDecimal{Decimal: o.Percentage, Valid: true},
		}
	}
	return splits, nil
}

// currentParticipants returns the names on the expense's existing splits,
// falling back to the payer when none exist.
func (s *Service) currentParticipants(ctx context.Context, expenseID int64, payerName string) ([]string, error) {
	existing, err := s.store.ListSplitsByExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if len(existing) == 0 {
		return []string{payerName}, nil
	}
	names := make([]string, len(existing))
	for i, sp := range existing {
		names[i] = sp.PersonName
	}
	return names, nil
}
