package postgres

import (
	"context"
	"database/sql"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/itoshi/membership-service/internal/core/domain"
	"github.com/itoshi/membership-service/internal/core/port"
)

var transactionColumns = []string{
	"id",
	"user_id",
	"type",
	"amount",
	"from_user",
	"commission_rate",
	"payment_method",
	"payment_ref",
	"created_at",
}

// TransactionRepository implements port.TransactionRepository using PostgreSQL.
// Ledger rows are append-only; there is no update or delete path.
type TransactionRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewTransactionRepository constructs a repository backed by any executor that
// satisfies pgExecutor.
func NewTransactionRepository(exec pgExecutor) *TransactionRepository {
	return &TransactionRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *TransactionRepository) WithTx(tx pgx.Tx) *TransactionRepository {
	if tx == nil {
		return r
	}
	return &TransactionRepository{
		exec:    tx,
		builder: r.builder,
	}
}

// Create appends a ledger entry.
func (r *TransactionRepository) Create(ctx context.Context, entry domain.Transaction) error {
	var fromUser, paymentMethod, paymentRef any
	if entry.FromUser != nil {
		fromUser = *entry.FromUser
	}
	if entry.PaymentMethod != nil {
		paymentMethod = *entry.PaymentMethod
	}
	if entry.PaymentRef != nil {
		paymentRef = *entry.PaymentRef
	}

	var commissionRate any
	if entry.CommissionRate != nil {
		commissionRate = *entry.CommissionRate
	}

	stmt, args, err := r.builder.Insert("membership.transactions").
		Columns(transactionColumns...).
		Values(
			entry.ID,
			entry.UserID,
			entry.Type,
			entry.Amount,
			fromUser,
			commissionRate,
			paymentMethod,
			paymentRef,
			entry.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert transaction sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	return nil
}

// ListByUser returns every entry whose beneficiary is userID, oldest first.
func (r *TransactionRepository) ListByUser(ctx context.Context, userID string) ([]domain.Transaction, error) {
	stmt, args, err := r.builder.
		Select(transactionColumns...).
		From("membership.transactions").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list transactions sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.Transaction, 0)
	for rows.Next() {
		var (
			entry          domain.Transaction
			fromUser       sql.NullString
			commissionRate sql.NullInt32
			paymentMethod  sql.NullString
			paymentRef     sql.NullString
		)

		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.Type,
			&entry.Amount,
			&fromUser,
			&commissionRate,
			&paymentMethod,
			&paymentRef,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}

		if fromUser.Valid {
			val := fromUser.String
			entry.FromUser = &val
		}
		if commissionRate.Valid {
			val := int(commissionRate.Int32)
			entry.CommissionRate = &val
		}
		if paymentMethod.Valid {
			val := paymentMethod.String
			entry.PaymentMethod = &val
		}
		if paymentRef.Valid {
			val := paymentRef.String
			entry.PaymentRef = &val
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	return entries, nil
}

var _ port.TransactionRepository = (*TransactionRepository)(nil)
