package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/itoshi/membership-service/internal/core/domain"
	"github.com/itoshi/membership-service/internal/core/port"
	"github.com/itoshi/membership-service/internal/repository"
)

var (
	// ErrUserNotFound indicates the referenced user id does not resolve.
	ErrUserNotFound = errors.New("user not found")
	// ErrAlreadyActive indicates the account has already been activated.
	ErrAlreadyActive = errors.New("account already active")
)

// ActivationService owns the activation transaction: it flips the account
// active, credits the signup bonus, records the fee, and walks up to two
// ancestor levels crediting tiered commission.
type ActivationService struct {
	users  port.UserRepository
	ledger port.TransactionRepository
	locks  port.AccountLocker
	events port.EventPublisher
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

// NewActivationService constructs the engine over the provided repositories.
func NewActivationService(users port.UserRepository, ledger port.TransactionRepository, locks port.AccountLocker) *ActivationService {
	return &ActivationService{
		users:  users,
		ledger: ledger,
		locks:  locks,
		logger: zap.NewNop(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// WithEventPublisher attaches an event publisher for activation and commission events.
func (s *ActivationService) WithEventPublisher(events port.EventPublisher) *ActivationService {
	s.events = events
	return s
}

// WithLogger attaches a structured logger.
func (s *ActivationService) WithLogger(logger *zap.Logger) *ActivationService {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Activate performs the activation transaction for userID. The payment method
// and reference identify the external fee payment and are carried on the
// activation ledger entry for audit. Precondition failures leave all state
// untouched.
func (s *ActivationService) Activate(ctx context.Context, userID, paymentMethod, paymentRef string) (domain.UserSnapshot, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.UserSnapshot{}, ErrUserNotFound
		}
		return domain.UserSnapshot{}, fmt.Errorf("lookup user: %w", err)
	}

	// Referral links are set once at registration and never reassigned, so the
	// lock scope can be derived before acquiring it.
	scope, err := s.lockScope(ctx, user)
	if err != nil {
		return domain.UserSnapshot{}, err
	}

	release := s.locks.Lock(scope...)
	defer release()

	// Re-read under the lock; a concurrent activation may have won the race.
	user, err = s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.UserSnapshot{}, ErrUserNotFound
		}
		return domain.UserSnapshot{}, fmt.Errorf("lookup user: %w", err)
	}
	if user.IsActive {
		return domain.UserSnapshot{}, ErrAlreadyActive
	}

	now := s.now().UTC()

	user.IsActive = true
	user.Balance += domain.SignupBonus

	updates := []domain.User{*user}
	entries := []domain.Transaction{
		domain.NewActivationTransaction(s.newID(), user.ID, paymentMethod, paymentRef, now),
	}
	commissions := make([]domain.CommissionEarnedEvent, 0, 2)

	if user.ReferredBy != nil {
		referrer, err := s.users.GetByID(ctx, *user.ReferredBy)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return domain.UserSnapshot{}, fmt.Errorf("lookup referrer: %w", err)
		}
		// An inactive referrer earns nothing, and suppresses the second tier too.
		if referrer != nil && referrer.IsActive {
			referrer.ReferralCount++
			referrer.Level = domain.LevelForReferrals(referrer.ReferralCount)

			rate := domain.CommissionRate(referrer.Level)
			amount := domain.CommissionAmount(rate)
			referrer.Balance += amount

			updates = append(updates, *referrer)
			entries = append(entries, domain.NewReferralCommission(s.newID(), referrer.ID, user.ID, amount, rate, now))
			commissions = append(commissions, domain.CommissionEarnedEvent{
				UserID:     referrer.ID,
				FromUser:   user.ID,
				Type:       domain.TransactionReferralCommission,
				Amount:     amount,
				Rate:       rate,
				NewLevel:   referrer.Level,
				OccurredAt: now,
			})

			if referrer.ReferredBy != nil {
				grand, err := s.users.GetByID(ctx, *referrer.ReferredBy)
				if err != nil && !errors.Is(err, repository.ErrNotFound) {
					return domain.UserSnapshot{}, fmt.Errorf("lookup sub-referrer: %w", err)
				}
				if grand != nil && grand.IsActive {
					sub := domain.NewSubReferralCommission(s.newID(), grand.ID, user.ID, now)
					grand.Balance += sub.Amount

					updates = append(updates, *grand)
					entries = append(entries, sub)
					commissions = append(commissions, domain.CommissionEarnedEvent{
						UserID:     grand.ID,
						FromUser:   user.ID,
						Type:       domain.TransactionSubReferralCommission,
						Amount:     sub.Amount,
						Rate:       domain.SubReferralRatePercent,
						NewLevel:   grand.Level,
						OccurredAt: now,
					})
				}
			}
		}
	}

	for _, updated := range updates {
		if err := s.users.Update(ctx, updated); err != nil {
			return domain.UserSnapshot{}, fmt.Errorf("update user %s: %w", updated.ID, err)
		}
	}
	for _, entry := range entries {
		if err := s.ledger.Create(ctx, entry); err != nil {
			return domain.UserSnapshot{}, fmt.Errorf("append %s transaction: %w", entry.Type, err)
		}
	}

	s.publishActivation(ctx, *user, paymentMethod, paymentRef, now, commissions)

	s.logger.Info("account activated",
		zap.String("user_id", user.ID),
		zap.Int64("balance", user.Balance),
		zap.Int("commission_entries", len(commissions)),
	)

	return user.Snapshot(), nil
}

// lockScope collects the ids of every account the activation may mutate: the
// user plus up to two ancestors.
func (s *ActivationService) lockScope(ctx context.Context, user *domain.User) ([]string, error) {
	scope := []string{user.ID}
	if user.ReferredBy == nil {
		return scope, nil
	}
	scope = append(scope, *user.ReferredBy)

	referrer, err := s.users.GetByID(ctx, *user.ReferredBy)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return scope, nil
		}
		return nil, fmt.Errorf("lookup referrer: %w", err)
	}
	if referrer.ReferredBy != nil {
		scope = append(scope, *referrer.ReferredBy)
	}
	return scope, nil
}

func (s *ActivationService) publishActivation(ctx context.Context, user domain.User, paymentMethod, paymentRef string, at time.Time, commissions []domain.CommissionEarnedEvent) {
	if s.events == nil {
		return
	}

	event := domain.AccountActivatedEvent{
		UserID:        user.ID,
		Username:      user.Username,
		PaymentMethod: paymentMethod,
		PaymentRef:    paymentRef,
		Balance:       user.Balance,
		ActivatedAt:   at,
	}
	if err := s.events.PublishAccountActivated(ctx, event); err != nil {
		s.logger.Warn("failed to publish activation event", zap.String("user_id", user.ID), zap.Error(err))
	}

	for _, commission := range commissions {
		if err := s.events.PublishCommissionEarned(ctx, commission); err != nil {
			s.logger.Warn("failed to publish commission event",
				zap.String("user_id", commission.UserID),
				zap.Error(err),
			)
		}
	}
}
