package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/itoshi/membership-service/internal/core/domain"
	"github.com/itoshi/membership-service/internal/core/port"
	"github.com/itoshi/membership-service/internal/infra/logger"
	"github.com/itoshi/membership-service/internal/infra/security"
	"github.com/itoshi/membership-service/internal/repository"
)

var (
	// ErrInvalidCredentials covers both unknown identifiers and bad passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidAccessToken indicates the token failed verification.
	ErrInvalidAccessToken = errors.New("invalid access token")
	// ErrExpiredAccessToken indicates the token is past its expiry.
	ErrExpiredAccessToken = errors.New("access token expired")
)

// AuthService verifies credentials and issues identity tokens.
type AuthService struct {
	users  port.UserRepository
	tokens *security.TokenIssuer
	logger *zap.Logger
}

// NewAuthService constructs an auth service.
func NewAuthService(users port.UserRepository, tokens *security.TokenIssuer) (*AuthService, error) {
	if tokens == nil {
		return nil, fmt.Errorf("token issuer is required")
	}
	return &AuthService{users: users, tokens: tokens, logger: zap.NewNop()}, nil
}

// WithLogger attaches a structured logger.
func (s *AuthService) WithLogger(log *zap.Logger) *AuthService {
	if log != nil {
		s.logger = log
	}
	return s
}

// Login resolves the identifier (email or username), verifies the password,
// and returns a signed token alongside the user record.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (string, domain.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return "", domain.User{}, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmailOrUsername(ctx, identifier, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", domain.User{}, ErrInvalidCredentials
		}
		return "", domain.User{}, fmt.Errorf("lookup user: %w", err)
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return "", domain.User{}, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		s.logger.Info("login rejected", zap.String("identifier", logger.MaskEmail(identifier)))
		return "", domain.User{}, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", domain.User{}, fmt.Errorf("issue token: %w", err)
	}

	return token, *user, nil
}

// VerifyToken extracts the user id bound to the token.
func (s *AuthService) VerifyToken(_ context.Context, token string) (string, error) {
	userID, err := s.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, security.ErrExpiredToken) {
			return "", ErrExpiredAccessToken
		}
		return "", ErrInvalidAccessToken
	}
	return userID, nil
}
