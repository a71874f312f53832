package domain

import "time"

// Ledger constants. The activation fee is paid externally and recorded for audit;
// it is never debited from a balance. The signup bonus is credited to every
// activating account regardless of referral status.
const (
	ActivationFee          int64 = 1000
	SignupBonus            int64 = 100
	SubReferralRatePercent int   = 1
)

// MaxLevel is the highest referral tier an account can reach.
const MaxLevel = 5

// User mirrors the persisted representation in the users table.
type User struct {
	ID            string
	Username      string
	Email         string
	Phone         *string
	PasswordHash  string
	ReferralCode  string
	ReferredBy    *string
	Balance       int64
	ReferralCount int
	Level         int
	IsActive      bool
	CreatedAt     time.Time
}

// UserSnapshot is the minimal view of an account returned after activation.
type UserSnapshot struct {
	ID       string
	Username string
	Balance  int64
	Level    int
	IsActive bool
}

// Snapshot derives the public view of the user.
func (u User) Snapshot() UserSnapshot {
	return UserSnapshot{
		ID:       u.ID,
		Username: u.Username,
		Balance:  u.Balance,
		Level:    u.Level,
		IsActive: u.IsActive,
	}
}

// LevelForReferrals maps a direct-referral count to a tier. Thresholds are
// step-wise and the highest qualifying tier wins.
func LevelForReferrals(count int) int {
	switch {
	case count >= 50:
		return 5
	case count >= 30:
		return 4
	case count >= 20:
		return 3
	case count >= 10:
		return 2
	case count >= 1:
		return 1
	default:
		return 0
	}
}

// CommissionRate returns the direct-referral commission percentage for a tier:
// a 30% base plus 2% per level.
func CommissionRate(level int) int {
	return 30 + level*2
}

// CommissionAmount computes the currency units credited for a direct referral
// at the given rate.
func CommissionAmount(rate int) int64 {
	return ActivationFee * int64(rate) / 100
}
