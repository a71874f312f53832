package handlers

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/itoshi/membership-service/internal/core/domain"
	"github.com/itoshi/membership-service/internal/usecase"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// UserSummary describes a minimal view of a user returned by the API.
type UserSummary struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	Phone         *string   `json:"phone,omitempty"`
	ReferralCode  string    `json:"referral_code"`
	Balance       int64     `json:"balance"`
	ReferralCount int       `json:"referral_count"`
	Level         int       `json:"level"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}

// RegistrationRequest defines the account registration payload.
type RegistrationRequest struct {
	Username     string `json:"username" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	Phone        string `json:"phone" binding:"omitempty"`
	Password     string `json:"password" binding:"required,min=8"`
	ReferralCode string `json:"referral_code"`
}

// RegistrationResponse contains the newly created account.
type RegistrationResponse struct {
	User    UserSummary `json:"user"`
	Message string      `json:"message,omitempty"`
}

// AuthLoginRequest defines the payload for the login endpoint.
type AuthLoginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// AuthLoginResponse describes the response returned for a successful login.
type AuthLoginResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        UserSummary `json:"user"`
}

// ActivationRequest carries the external payment record for account activation.
type ActivationRequest struct {
	UserID        string `json:"user_id" binding:"required"`
	PaymentMethod string `json:"payment_method" binding:"required"`
	TransactionID string `json:"transaction_id" binding:"required"`
}

// ActivationResponse returns the post-activation account view.
type ActivationResponse struct {
	Message string          `json:"message"`
	Account AccountSnapshot `json:"account"`
}

// AccountSnapshot is the compact account view embedded in activation responses.
type AccountSnapshot struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Balance  int64  `json:"balance"`
	Level    int    `json:"level"`
	IsActive bool   `json:"is_active"`
}

// TransactionPayload describes a ledger entry in API responses.
type TransactionPayload struct {
	ID             string    `json:"id"`
	Type           string    `json:"type"`
	Amount         int64     `json:"amount"`
	FromUser       *string   `json:"from_user,omitempty"`
	CommissionRate *int      `json:"commission_rate,omitempty"`
	PaymentMethod  *string   `json:"payment_method,omitempty"`
	PaymentRef     *string   `json:"payment_ref,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// ReferralPayload describes a direct referral on the dashboard.
type ReferralPayload struct {
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// DashboardResponse aggregates the account, ledger, and referral views.
type DashboardResponse struct {
	User         UserSummary          `json:"user"`
	Transactions []TransactionPayload `json:"transactions"`
	Referrals    []ReferralPayload    `json:"referrals"`
}

// ReferralLinkResponse returns the shareable registration link.
type ReferralLinkResponse struct {
	ReferralCode string `json:"referral_code"`
	ReferralLink string `json:"referral_link"`
}

// HealthResponse describes the service health payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadyResponse describes readiness probe results with dependency checks.
type ReadyResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// newUserSummary converts a domain user to a summary suitable for API responses.
func newUserSummary(user domain.User) UserSummary {
	summary := UserSummary{
		ID:            user.ID,
		Username:      user.Username,
		Email:         user.Email,
		ReferralCode:  user.ReferralCode,
		Balance:       user.Balance,
		ReferralCount: user.ReferralCount,
		Level:         user.Level,
		IsActive:      user.IsActive,
		CreatedAt:     user.CreatedAt,
	}

	if user.Phone != nil {
		phone := strings.TrimSpace(*user.Phone)
		if phone != "" {
			summary.Phone = &phone
		}
	}

	return summary
}

func newAccountSnapshot(snapshot domain.UserSnapshot) AccountSnapshot {
	return AccountSnapshot{
		ID:       snapshot.ID,
		Username: snapshot.Username,
		Balance:  snapshot.Balance,
		Level:    snapshot.Level,
		IsActive: snapshot.IsActive,
	}
}

func newTransactionPayload(entry domain.Transaction) TransactionPayload {
	return TransactionPayload{
		ID:             entry.ID,
		Type:           string(entry.Type),
		Amount:         entry.Amount,
		FromUser:       entry.FromUser,
		CommissionRate: entry.CommissionRate,
		PaymentMethod:  entry.PaymentMethod,
		PaymentRef:     entry.PaymentRef,
		CreatedAt:      entry.CreatedAt,
	}
}

func newReferralPayload(ref usecase.ReferralSummary) ReferralPayload {
	return ReferralPayload{
		Username:  ref.Username,
		Email:     ref.Email,
		IsActive:  ref.IsActive,
		CreatedAt: ref.CreatedAt,
	}
}
