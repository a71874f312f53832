package memory

import (
	"sync"

	"github.com/itoshi/membership-service/internal/core/domain"
)

// Store owns the in-memory user and transaction collections. Both repositories
// returned by Users and Transactions share the same lock, so a reader never
// observes a half-applied activation.
type Store struct {
	mu           sync.RWMutex
	users        map[string]domain.User
	byUsername   map[string]string
	byEmail      map[string]string
	byReferral   map[string]string
	transactions []domain.Transaction
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{
		users:      make(map[string]domain.User),
		byUsername: make(map[string]string),
		byEmail:    make(map[string]string),
		byReferral: make(map[string]string),
	}
}

// Users returns the user repository view over the store.
func (s *Store) Users() *UserRepository {
	return &UserRepository{store: s}
}

// Transactions returns the ledger repository view over the store.
func (s *Store) Transactions() *TransactionRepository {
	return &TransactionRepository{store: s}
}
