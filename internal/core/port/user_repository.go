package port

import (
	"context"

	"github.com/itoshi/membership-service/internal/core/domain"
)

// UserRepository exposes persistence behavior for the user directory.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// GetByEmailOrUsername returns a user matching either field. Used at
	// registration time to enforce the uniqueness invariant.
	GetByEmailOrUsername(ctx context.Context, email, username string) (*domain.User, error)
	GetByReferralCode(ctx context.Context, code string) (*domain.User, error)
	Update(ctx context.Context, user domain.User) error
	// ListReferrals returns every user whose ReferredBy points at userID.
	ListReferrals(ctx context.Context, userID string) ([]domain.User, error)
}
