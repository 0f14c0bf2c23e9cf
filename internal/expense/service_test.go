package expense

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fkhayef/splitledger/internal/expense/split"
	"github.com/fkhayef/splitledger/internal/models"
	"github.com/fkhayef/splitledger/internal/storage"
)

// memStore is an in-memory Store for exercising the service orchestration
// without a database.
type memStore struct {
	people   []models.Person
	expenses map[int64]*models.Expense
	splits   map[int64][]models.ExpenseSplit
	nextID   int64
}

func newMemStore() *memStore {
	return &memStore{
		expenses: make(map[int64]*models.Expense),
		splits:   make(map[int64][]models.ExpenseSplit),
		nextID:   1,
	}
}

func (m *memStore) id() int64 {
	id := m.nextID
	m.nextID++
	return id
}

func (m *memStore) ListPeople(ctx context.Context) ([]models.Person, error) {
	return append([]models.Person(nil), m.people...), nil
}

func (m *memStore) GetOrCreatePersonByName(ctx context.Context, name string) (*models.Person, error) {
	name = strings.TrimSpace(name)
	for i := range m.people {
		if m.people[i].Name == name {
			return &m.people[i], nil
		}
	}
	m.people = append(m.people, models.Person{ID: m.id(), Name: name})
	return &m.people[len(m.people)-1], nil
}

func (m *memStore) CreateExpense(ctx context.Context, expense *models.Expense, splits []models.ExpenseSplit) error {
	expense.ID = m.id()
	m.expenses[expense.ID] = expense
	for i := range splits {
		splits[i].ID = m.id()
		splits[i].ExpenseID = expense.ID
	}
	m.splits[expense.ID] = splits
	return nil
}

func (m *memStore) GetExpense(ctx context.Context, id int64) (*models.Expense, error) {
	e, ok := m.expenses[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *e
	return &copied, nil
}

func (m *memStore) ListExpenses(ctx context.Context) ([]models.Expense, error) {
	var out []models.Expense
	for _, e := range m.expenses {
		out = append(out, *e)
	}
	return out, nil
}

func (m *memStore) UpdateExpense(ctx context.Context, expense *models.Expense, splits []models.ExpenseSplit) error {
	if _, ok := m.expenses[expense.ID]; !ok {
		return storage.ErrNotFound
	}
	m.expenses[expense.ID] = expense
	if splits != nil {
		return m.ReplaceExpenseSplits(ctx, expense.ID, splits)
	}
	return nil
}

func (m *memStore) DeleteExpense(ctx context.Context, id int64) error {
	if _, ok := m.expenses[id]; !ok {
		return storage.ErrNotFound
	}
	delete(m.expenses, id)
	delete(m.splits, id)
	return nil
}

func (m *memStore) ReplaceExpenseSplits(ctx context.Context, expenseID int64, splits []models.ExpenseSplit) error {
	for i := range splits {
		splits[i].ID = m.id()
		splits[i].ExpenseID = expenseID
	}
	m.splits[expenseID] = splits
	return nil
}

func (m *memStore) ListSplitsByExpense(ctx context.Context, expenseID int64) ([]models.ExpenseSplit, error) {
	return append([]models.ExpenseSplit(nil), m.splits[expenseID]...), nil
}

func (m *memStore) ListSplits(ctx context.Context) ([]models.ExpenseSplit, error) {
	var out []models.ExpenseSplit
	for _, sps := range m.splits {
		out = append(out, sps...)
	}
	return out, nil
}

func (m *memStore) Close() error { return nil }

func newTestService() (*Service, *memStore) {
	store := newMemStore()
	return NewService(store, split.NewFactory()), store
}

func splitByName(t *testing.T, splits []models.ExpenseSplit, name string) models.ExpenseSplit {
	t.Helper()
	for _, sp := range splits {
		if sp.PersonName == name {
			return sp
		}
	}
	t.Fatalf("no split for %s in %v", name, splits)
	return models.ExpenseSplit{}
}

func TestServiceCreateEqualIncludesPayer(t *testing.T) {
	svc, store := newTestService()

	exp, splits, err := svc.Create(context.Background(), &CreateExpenseRequest{
		Amount:       f64(60),
		Description:  "Dinner",
		PaidBy:       "Alice",
		SplitMethod:  "equal",
		Participants: []string{"Bob", "Carol"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if exp.ID == 0 {
		t.Error("expense ID should be assigned")
	}
	if len(splits) != 3 {
		t.Fatalf("splits = %d, want 3 (payer auto-included)", len(splits))
	}
	for _, sp := range splits {
		if !sp.Amount.Equal(decimal.NewFromInt(20)) {
			t.Errorf("%s amount = %s, want 20", sp.PersonName, sp.Amount)
		}
	}
	// All three people are created lazily.
	people, _ := store.ListPeople(context.Background())
	if len(people) != 3 {
		t.Errorf("people = %d, want 3", len(people))
	}
}

func TestServiceCreateExact(t *testing.T) {
	svc, _ := newTestService()

	_, splits, err := svc.Create(context.Background(), &CreateExpenseRequest{
		Amount:      f64(100),
		Description: "Groceries",
		PaidBy:      "Alice",
		SplitMethod: "exact",
		Splits: []SplitInput{
			{Person: "Alice", Amount: f64(70)},
			{Person: "Bob", Amount: f64(30)},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got := splitByName(t, splits, "Bob").Amount; !got.Equal(decimal.NewFromInt(30)) {
		t.Errorf("Bob amount = %s, want 30", got)
	}
	if got := splitByName(t, splits, "Alice").Percentage.Decimal; !got.Equal(decimal.NewFromInt(70)) {
		t.Errorf("Alice percentage = %s, want 70", got)
	}
}

func TestServiceCreateRejectsInvalid(t *testing.T) {
	svc, _ := newTestService()

	_, _, err := svc.Create(context.Background(), &CreateExpenseRequest{
		Amount:      f64(-5),
		Description: "Bad",
		PaidBy:      "Alice",
	})
	ve := asValidationError(t, err)
	if ve.Code != CodeInvalidAmount {
		t.Errorf("code = %s, want %s", ve.Code, CodeInvalidAmount)
	}
}

func TestServiceUpdateAmountKeepsParticipants(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	exp, _, err := svc.Create(ctx, &CreateExpenseRequest{
		Amount:       f64(60),
		Description:  "Dinner",
		PaidBy:       "Alice",
		SplitMethod:  "equal",
		Participants: []string{"Alice", "Bob", "Carol"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Reprice only; no participant list supplied.
	updated, splits, err := svc.Update(ctx, exp.ID, &UpdateExpenseRequest{Amount: f64(90)})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !updated.Amount.Equal(decimal.NewFromInt(90)) {
		t.Errorf("amount = %s, want 90", updated.Amount)
	}
	if len(splits) != 3 {
		t.Fatalf("splits = %d, want 3 (existing participants kept)", len(splits))
	}
	for _, sp := range splits {
		if !sp.Amount.Equal(decimal.NewFromInt(30)) {
			t.Errorf("%s amount = %s, want 30", sp.PersonName, sp.Amount)
		}
	}
}

func TestServiceUpdateSwitchesMethod(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	exp, _, err := svc.Create(ctx, &CreateExpenseRequest{
		Amount:       f64(100),
		Description:  "Trip",
		PaidBy:       "Alice",
		SplitMethod:  "equal",
		Participants: []string{"Alice", "Bob"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	method := "percentage"
	_, splits, err := svc.Update(ctx, exp.ID, &UpdateExpenseRequest{
		SplitMethod: &method,
		Splits: []SplitInput{
			{Person: "Alice", Percentage: f64(25)},
			{Person: "Bob", Percentage: f64(75)},
		},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := splitByName(t, splits, "Bob").Amount; !got.Equal(decimal.NewFromInt(75)) {
		t.Errorf("Bob amount = %s, want 75", got)
	}
}

func TestServiceUpdateMethodSwitchRequiresSplits(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	exp, _, err := svc.Create(ctx, &CreateExpenseRequest{
		Amount:      f64(100),
		Description: "Trip",
		PaidBy:      "Alice",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	method := "exact"
	_, _, err = svc.Update(ctx, exp.ID, &UpdateExpenseRequest{SplitMethod: &method})
	ve := asValidationError(t, err)
	if ve.Code != CodeInvalidPolicy {
		t.Errorf("code = %s, want %s", ve.Code, CodeInvalidPolicy)
	}
}

func TestServiceUpdateDescriptionOnlyKeepsSplits(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	exp, created, err := svc.Create(ctx, &CreateExpenseRequest{
		Amount:       f64(60),
		Description:  "Dinner",
		PaidBy:       "Alice",
		Participants: []string{"Alice", "Bob", "Carol"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	desc := "Team dinner"
	updated, splits, err := svc.Update(ctx, exp.ID, &UpdateExpenseRequest{Description: &desc})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Description != "Team dinner" {
		t.Errorf("description = %q", updated.Description)
	}
	if len(splits) != len(created) {
		t.Fatalf("splits = %d, want %d", len(splits), len(created))
	}
	stored, _ := store.ListSplitsByExpense(ctx, exp.ID)
	for i := range stored {
		if stored[i].ID != created[i].ID {
			t.Errorf("split %d was replaced on a description-only update", i)
		}
	}
}

func TestServiceUpdateNotFound(t *testing.T) {
	svc, _ := newTestService()

	_, _, err := svc.Update(context.Background(), 999, &UpdateExpenseRequest{Amount: f64(10)})
	if err != ErrExpenseNotFound {
		t.Errorf("err = %v, want ErrExpenseNotFound", err)
	}
}

func TestServiceDelete(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	exp, _, err := svc.Create(ctx, &CreateExpenseRequest{
		Amount:      f64(10),
		Description: "Coffee",
		PaidBy:      "Alice",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Delete(ctx, exp.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, _, err := svc.GetByID(ctx, exp.ID); err != ErrExpenseNotFound {
		t.Errorf("GetByID after delete = %v, want ErrExpenseNotFound", err)
	}
	if err := svc.Delete(ctx, exp.ID); err != ErrExpenseNotFound {
		t.Errorf("second Delete = %v, want ErrExpenseNotFound", err)
	}
}
