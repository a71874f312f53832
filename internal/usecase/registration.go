package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/itoshi/membership-service/internal/core/domain"
	"github.com/itoshi/membership-service/internal/core/port"
	"github.com/itoshi/membership-service/internal/infra/security"
	"github.com/itoshi/membership-service/internal/repository"
)

const referralCodeLength = 8

var (
	// ErrDuplicateIdentity indicates the username or email is already taken.
	ErrDuplicateIdentity = errors.New("username or email already registered")
	// ErrPasswordPolicyViolation indicates the password does not satisfy complexity requirements.
	ErrPasswordPolicyViolation = errors.New("password does not meet complexity requirements")
)

// RegistrationService handles new account onboarding and referral-code
// resolution.
type RegistrationService struct {
	users             port.UserRepository
	passwordValidator *security.PasswordValidator
	events            port.EventPublisher
	logger            *zap.Logger
	now               func() time.Time
	newID             func() string
}

// NewRegistrationService constructs a registration service.
func NewRegistrationService(users port.UserRepository, validator *security.PasswordValidator) *RegistrationService {
	if validator == nil {
		validator = security.DefaultPasswordValidator()
	}
	return &RegistrationService{
		users:             users,
		passwordValidator: validator,
		logger:            zap.NewNop(),
		now:               time.Now,
		newID:             uuid.NewString,
	}
}

// WithEventPublisher attaches an event publisher for registration events.
func (s *RegistrationService) WithEventPublisher(events port.EventPublisher) *RegistrationService {
	s.events = events
	return s
}

// WithLogger attaches a structured logger.
func (s *RegistrationService) WithLogger(logger *zap.Logger) *RegistrationService {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Register creates a new inactive account. An unknown or empty referral code
// is ignored; a known one links the new account under its owner.
func (s *RegistrationService) Register(ctx context.Context, username, email, phone, password, referralCode string) (domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	phone = strings.TrimSpace(phone)
	referralCode = strings.TrimSpace(referralCode)

	if username == "" {
		return domain.User{}, fmt.Errorf("username is required")
	}
	if email == "" {
		return domain.User{}, fmt.Errorf("email is required")
	}
	if strings.TrimSpace(password) == "" {
		return domain.User{}, fmt.Errorf("password is required")
	}

	if err := s.passwordValidator.Validate(password); err != nil {
		return domain.User{}, fmt.Errorf("%w: %v", ErrPasswordPolicyViolation, err)
	}

	if _, err := s.users.GetByEmailOrUsername(ctx, email, username); err == nil {
		return domain.User{}, ErrDuplicateIdentity
	} else if !errors.Is(err, repository.ErrNotFound) {
		return domain.User{}, fmt.Errorf("check identity uniqueness: %w", err)
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := domain.User{
		ID:           s.newID(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		ReferralCode: newReferralCode(s.newID),
		CreatedAt:    now,
	}
	if phone != "" {
		user.Phone = &phone
	}

	if referralCode != "" {
		referrer, err := s.users.GetByReferralCode(ctx, referralCode)
		switch {
		case err == nil:
			user.ReferredBy = &referrer.ID
		case errors.Is(err, repository.ErrNotFound):
			// Unknown codes are silently ignored; registration proceeds
			// without a referrer.
		default:
			return domain.User{}, fmt.Errorf("resolve referral code: %w", err)
		}
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return domain.User{}, ErrDuplicateIdentity
		}
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}

	s.publishRegistered(ctx, user)

	s.logger.Info("user registered",
		zap.String("user_id", user.ID),
		zap.String("username", user.Username),
		zap.Bool("referred", user.ReferredBy != nil),
	)

	return user, nil
}

func (s *RegistrationService) publishRegistered(ctx context.Context, user domain.User) {
	if s.events == nil {
		return
	}

	event := domain.UserRegisteredEvent{
		UserID:       user.ID,
		Username:     user.Username,
		Email:        user.Email,
		ReferralCode: user.ReferralCode,
		ReferredBy:   user.ReferredBy,
		RegisteredAt: user.CreatedAt,
	}
	if err := s.events.PublishUserRegistered(ctx, event); err != nil {
		s.logger.Warn("failed to publish registration event", zap.String("user_id", user.ID), zap.Error(err))
	}
}

// newReferralCode derives an 8-character uppercase code from a fresh uuid.
func newReferralCode(newID func() string) string {
	return strings.ToUpper(newID()[:referralCodeLength])
}
