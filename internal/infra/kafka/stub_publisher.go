package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/itoshi/membership-service/internal/core/domain"
	"github.com/itoshi/membership-service/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for
// development environments without brokers.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType, userID string, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("stub event published",
		zap.String("event_type", eventType),
		zap.String("user_id", userID),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishUserRegistered logs membership.user.registered events.
func (p *StubPublisher) PublishUserRegistered(_ context.Context, event domain.UserRegisteredEvent) error {
	payload := map[string]any{
		"username":      event.Username,
		"referral_code": event.ReferralCode,
		"referred":      event.ReferredBy != nil,
	}
	p.logEvent("membership.user.registered", event.UserID, event.RegisteredAt, payload)
	return nil
}

// PublishAccountActivated logs membership.account.activated events.
func (p *StubPublisher) PublishAccountActivated(_ context.Context, event domain.AccountActivatedEvent) error {
	payload := map[string]any{
		"username":       event.Username,
		"payment_method": event.PaymentMethod,
		"balance":        event.Balance,
	}
	p.logEvent("membership.account.activated", event.UserID, event.ActivatedAt, payload)
	return nil
}

// PublishCommissionEarned logs membership.commission.earned events.
func (p *StubPublisher) PublishCommissionEarned(_ context.Context, event domain.CommissionEarnedEvent) error {
	payload := map[string]any{
		"from_user": event.FromUser,
		"type":      string(event.Type),
		"amount":    event.Amount,
		"rate":      event.Rate,
	}
	p.logEvent("membership.commission.earned", event.UserID, event.OccurredAt, payload)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
