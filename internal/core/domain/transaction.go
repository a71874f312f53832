package domain

import "time"

// TransactionType enumerates the closed set of ledger entry kinds.
type TransactionType string

const (
	TransactionActivation            TransactionType = "activation"
	TransactionReferralCommission    TransactionType = "referral_commission"
	TransactionSubReferralCommission TransactionType = "sub_referral_commission"
)

// Transaction is an immutable ledger entry. UserID is the beneficiary whose
// balance the entry concerns. FromUser and CommissionRate are set only on the
// commission kinds; PaymentMethod and PaymentRef only on activation entries.
type Transaction struct {
	ID             string
	UserID         string
	Type           TransactionType
	Amount         int64
	FromUser       *string
	CommissionRate *int
	PaymentMethod  *string
	PaymentRef     *string
	CreatedAt      time.Time
}

// NewActivationTransaction records the externally-paid activation fee with its
// audit trail.
func NewActivationTransaction(id, userID, paymentMethod, paymentRef string, at time.Time) Transaction {
	tx := Transaction{
		ID:        id,
		UserID:    userID,
		Type:      TransactionActivation,
		Amount:    ActivationFee,
		CreatedAt: at,
	}
	if paymentMethod != "" {
		tx.PaymentMethod = &paymentMethod
	}
	if paymentRef != "" {
		tx.PaymentRef = &paymentRef
	}
	return tx
}

// NewReferralCommission records a direct-referral commission credited to the
// referrer when a referred account activates.
func NewReferralCommission(id, referrerID, fromUserID string, amount int64, rate int, at time.Time) Transaction {
	return Transaction{
		ID:             id,
		UserID:         referrerID,
		Type:           TransactionReferralCommission,
		Amount:         amount,
		FromUser:       &fromUserID,
		CommissionRate: &rate,
		CreatedAt:      at,
	}
}

// NewSubReferralCommission records the flat second-tier commission credited to
// the referrer's own referrer.
func NewSubReferralCommission(id, referrerID, fromUserID string, at time.Time) Transaction {
	rate := SubReferralRatePercent
	amount := ActivationFee * int64(rate) / 100
	return Transaction{
		ID:             id,
		UserID:         referrerID,
		Type:           TransactionSubReferralCommission,
		Amount:         amount,
		FromUser:       &fromUserID,
		CommissionRate: &rate,
		CreatedAt:      at,
	}
}
