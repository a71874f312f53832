package postgres

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/itoshi/membership-service/internal/core/domain"
)

func TestTransactionRepositoryCreateActivation(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewTransactionRepository(mock)

	entry := domain.NewActivationTransaction(
		"txn-1", "user-1", "card", "pay-123", time.Now().UTC(),
	)

	mock.ExpectExec(`INSERT INTO membership\.transactions`).
		WithArgs(
			entry.ID,
			entry.UserID,
			domain.TransactionActivation,
			domain.ActivationFee,
			nil,
			nil,
			"card",
			"pay-123",
			entry.CreatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Create(context.Background(), entry); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTransactionRepositoryCreateCommission(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewTransactionRepository(mock)

	entry := domain.NewReferralCommission(
		"txn-2", "user-1", "user-2", 320, 32, time.Now().UTC(),
	)

	mock.ExpectExec(`INSERT INTO membership\.transactions`).
		WithArgs(
			entry.ID,
			entry.UserID,
			domain.TransactionReferralCommission,
			int64(320),
			"user-2",
			32,
			nil,
			nil,
			entry.CreatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Create(context.Background(), entry); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTransactionRepositoryListByUser(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewTransactionRepository(mock)

	base := time.Now().UTC()
	rows := pgxmock.NewRows(transactionColumns).
		AddRow("txn-1", "user-1", domain.TransactionActivation, int64(1000),
			nil, nil, "card", "pay-123", base).
		AddRow("txn-2", "user-1", domain.TransactionReferralCommission, int64(320),
			"user-2", int32(32), nil, nil, base.Add(time.Second))

	mock.ExpectQuery(`SELECT .* FROM membership\.transactions WHERE user_id = \$1 ORDER BY created_at ASC`).
		WithArgs("user-1").
		WillReturnRows(rows)

	entries, err := repo.ListByUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ListByUser returned error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	activation := entries[0]
	if activation.Type != domain.TransactionActivation || activation.Amount != 1000 {
		t.Fatalf("unexpected activation entry: %+v", activation)
	}
	if activation.PaymentMethod == nil || *activation.PaymentMethod != "card" {
		t.Fatalf("expected payment method populated")
	}
	if activation.FromUser != nil || activation.CommissionRate != nil {
		t.Fatalf("activation entry must not carry commission fields")
	}

	commission := entries[1]
	if commission.FromUser == nil || *commission.FromUser != "user-2" {
		t.Fatalf("expected from_user populated")
	}
	if commission.CommissionRate == nil || *commission.CommissionRate != 32 {
		t.Fatalf("expected commission rate populated")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTransactionRepositoryListByUserEmpty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewTransactionRepository(mock)

	mock.ExpectQuery(`SELECT .* FROM membership\.transactions`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows(transactionColumns))

	entries, err := repo.ListByUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ListByUser returned error: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty ledger, got %d entries", len(entries))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
