package settlement

import (
	"context"

	"github.com/fkhayef/splitledger/internal/storage"
)

// Service exposes balance and settlement computation over a snapshot read
// of the store. Both operations are pure functions of the snapshot, so
// recomputing on unchanged data yields identical results.
type Service struct {
	store storage.Store
}

// NewService creates a new settlement service.
func NewService(store storage.Store) *Service {
	return &Service{store: store}
}

// Balances reads the full people/expense/split collections and aggregates
// every person's net position.
func (s *Service) Balances(ctx context.Context) ([]Balance, error) {
	people, err := s.store.ListPeople(ctx)
	if err != nil {
		return nil, err
	}
	expenses, err := s.store.ListExpenses(ctx)
	if err != nil {
		return nil, err
	}
	splits, err := s.store.ListSplits(ctx)
	if err != nil {
		return nil, err
	}

	return ComputeBalances(people, expenses, splits), nil
}

// Settlements computes the recommended payment plan from current balances.
func (s *Service) Settlements(ctx context.Context) ([]Settlement, error) {
	balances, err := s.Balances(ctx)
	if err != nil {
		return nil, err
	}
	return ComputeSettlements(balances), nil
}
