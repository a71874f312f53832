package port

import (
	"context"

	"github.com/itoshi/membership-service/internal/core/domain"
)

// EventPublisher exposes domain event publishing behavior.
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, event domain.UserRegisteredEvent) error
	PublishAccountActivated(ctx context.Context, event domain.AccountActivatedEvent) error
	PublishCommissionEarned(ctx context.Context, event domain.CommissionEarnedEvent) error
}
