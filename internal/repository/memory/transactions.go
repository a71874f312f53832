package memory

import (
	"context"
	"sort"

	"github.com/itoshi/membership-service/internal/core/domain"
	"github.com/itoshi/membership-service/internal/core/port"
)

// TransactionRepository implements port.TransactionRepository over the shared
// store. Entries are append-only.
type TransactionRepository struct {
	store *Store
}

// Create appends a ledger entry.
func (r *TransactionRepository) Create(_ context.Context, tx domain.Transaction) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transactions = append(s.transactions, tx)
	return nil
}

// ListByUser returns every entry whose beneficiary is userID, in append order.
func (r *TransactionRepository) ListByUser(_ context.Context, userID string) ([]domain.Transaction, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]domain.Transaction, 0)
	for _, tx := range s.transactions {
		if tx.UserID == userID {
			entries = append(entries, tx)
		}
	}
	return entries, nil
}

func sortUsersByCreation(users []domain.User) {
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID < users[j].ID
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
}

var _ port.TransactionRepository = (*TransactionRepository)(nil)
