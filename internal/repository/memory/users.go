package memory

import (
	"context"

	"github.com/itoshi/membership-service/internal/core/domain"
	"github.com/itoshi/membership-service/internal/core/port"
	"github.com/itoshi/membership-service/internal/repository"
)

// UserRepository implements port.UserRepository over the shared store.
type UserRepository struct {
	store *Store
}

// Create inserts a new user, enforcing username, email, and referral code
// uniqueness.
func (r *UserRepository) Create(_ context.Context, user domain.User) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.ID]; exists {
		return repository.ErrDuplicate
	}
	if _, exists := s.byUsername[user.Username]; exists {
		return repository.ErrDuplicate
	}
	if _, exists := s.byEmail[user.Email]; exists {
		return repository.ErrDuplicate
	}
	if _, exists := s.byReferral[user.ReferralCode]; exists {
		return repository.ErrDuplicate
	}

	s.users[user.ID] = user
	s.byUsername[user.Username] = user.ID
	s.byEmail[user.Email] = user.ID
	s.byReferral[user.ReferralCode] = user.ID
	return nil
}

// GetByID retrieves a user by identifier.
func (r *UserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := user
	return &copy, nil
}

// GetByEmailOrUsername returns a user colliding with either field.
func (r *UserRepository) GetByEmailOrUsername(_ context.Context, email, username string) (*domain.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id, ok := s.byEmail[email]; ok {
		user := s.users[id]
		return &user, nil
	}
	if id, ok := s.byUsername[username]; ok {
		user := s.users[id]
		return &user, nil
	}
	return nil, repository.ErrNotFound
}

// GetByReferralCode resolves a referral code to its owner.
func (r *UserRepository) GetByReferralCode(_ context.Context, code string) (*domain.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byReferral[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	user := s.users[id]
	return &user, nil
}

// Update replaces the stored user. Username, email, and referral code are
// immutable after creation, so the secondary indexes stay untouched.
func (r *UserRepository) Update(_ context.Context, user domain.User) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	s.users[user.ID] = user
	return nil
}

// ListReferrals returns users directly referred by userID, oldest first.
func (r *UserRepository) ListReferrals(_ context.Context, userID string) ([]domain.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	referrals := make([]domain.User, 0)
	for _, user := range s.users {
		if user.ReferredBy != nil && *user.ReferredBy == userID {
			referrals = append(referrals, user)
		}
	}
	sortUsersByCreation(referrals)
	return referrals, nil
}

var _ port.UserRepository = (*UserRepository)(nil)
