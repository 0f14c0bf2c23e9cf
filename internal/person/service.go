package person

import (
	"context"

	"github.com/fkhayef/splitledger/internal/models"
	"github.com/fkhayef/splitledger/internal/storage"
)

// Service handles person business logic. People are created lazily on first
// reference as a payer or participant; the core never deletes them.
type Service struct {
	store storage.Store
}

// NewService creates a new person service.
func NewService(store storage.Store) *Service {
	return &Service{store: store}
}

// List retrieves every known person in creation order.
func (s *Service) List(ctx context.Context) ([]models.Person, error) {
	return s.store.ListPeople(ctx)
}
