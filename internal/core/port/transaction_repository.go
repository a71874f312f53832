package port

import (
	"context"

	"github.com/itoshi/membership-service/internal/core/domain"
)

// TransactionRepository appends and reads immutable ledger entries.
type TransactionRepository interface {
	Create(ctx context.Context, tx domain.Transaction) error
	ListByUser(ctx context.Context, userID string) ([]domain.Transaction, error)
}
