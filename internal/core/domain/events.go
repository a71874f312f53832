package domain

import "time"

// UserRegisteredEvent represents the payload for membership.user.registered messages.
type UserRegisteredEvent struct {
	EventID      string
	UserID       string
	Username     string
	Email        string
	ReferralCode string
	ReferredBy   *string
	RegisteredAt time.Time
}

// AccountActivatedEvent represents the payload for membership.account.activated messages.
type AccountActivatedEvent struct {
	EventID       string
	UserID        string
	Username      string
	PaymentMethod string
	PaymentRef    string
	Balance       int64
	ActivatedAt   time.Time
}

// CommissionEarnedEvent represents the payload for membership.commission.earned
// messages, emitted once per ancestor credited by an activation.
type CommissionEarnedEvent struct {
	EventID    string
	UserID     string
	FromUser   string
	Type       TransactionType
	Amount     int64
	Rate       int
	NewLevel   int
	OccurredAt time.Time
}
