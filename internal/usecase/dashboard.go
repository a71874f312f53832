package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/itoshi/membership-service/internal/core/domain"
	"github.com/itoshi/membership-service/internal/core/port"
	"github.com/itoshi/membership-service/internal/repository"
)

// ReferralSummary is the read-only view of a direct referral shown on the
// dashboard.
type ReferralSummary struct {
	Username  string
	Email     string
	IsActive  bool
	CreatedAt time.Time
}

// DashboardOverview aggregates everything the dashboard reader consumes.
type DashboardOverview struct {
	User         domain.User
	Transactions []domain.Transaction
	Referrals    []ReferralSummary
}

// DashboardService assembles read-only account views.
type DashboardService struct {
	users  port.UserRepository
	ledger port.TransactionRepository
}

// NewDashboardService constructs a dashboard service.
func NewDashboardService(users port.UserRepository, ledger port.TransactionRepository) *DashboardService {
	return &DashboardService{users: users, ledger: ledger}
}

// Overview returns the user, their ledger entries, and their direct referrals.
func (s *DashboardService) Overview(ctx context.Context, userID string) (DashboardOverview, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return DashboardOverview{}, ErrUserNotFound
		}
		return DashboardOverview{}, fmt.Errorf("lookup user: %w", err)
	}

	transactions, err := s.ledger.ListByUser(ctx, userID)
	if err != nil {
		return DashboardOverview{}, fmt.Errorf("list transactions: %w", err)
	}

	referred, err := s.users.ListReferrals(ctx, userID)
	if err != nil {
		return DashboardOverview{}, fmt.Errorf("list referrals: %w", err)
	}

	referrals := make([]ReferralSummary, 0, len(referred))
	for _, r := range referred {
		referrals = append(referrals, ReferralSummary{
			Username:  r.Username,
			Email:     r.Email,
			IsActive:  r.IsActive,
			CreatedAt: r.CreatedAt,
		})
	}

	return DashboardOverview{
		User:         *user,
		Transactions: transactions,
		Referrals:    referrals,
	}, nil
}

// ReferralLink returns the user's referral code and the shareable
// registration link built from it.
func (s *DashboardService) ReferralLink(ctx context.Context, userID, baseURL string) (string, string, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", "", ErrUserNotFound
		}
		return "", "", fmt.Errorf("lookup user: %w", err)
	}

	link := fmt.Sprintf("%s/register?ref=%s", baseURL, user.ReferralCode)
	return user.ReferralCode, link, nil
}
