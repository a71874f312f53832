package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/itoshi/membership-service/internal/usecase"
)

// AuthHandler exposes registration and login endpoints.
type AuthHandler struct {
	auth         *usecase.AuthService
	registration *usecase.RegistrationService
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *usecase.AuthService, registration *usecase.RegistrationService) *AuthHandler {
	return &AuthHandler{
		auth:         auth,
		registration: registration,
	}
}

// RegisterRoutes binds authentication routes, applying optional middleware ahead of handlers.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, registerMiddlewares, loginMiddlewares []gin.HandlerFunc) {
	registerChain := append([]gin.HandlerFunc{}, registerMiddlewares...)
	registerChain = append(registerChain, h.register)
	r.POST("/register", registerChain...)

	loginChain := append([]gin.HandlerFunc{}, loginMiddlewares...)
	loginChain = append(loginChain, h.login)
	r.POST("/login", loginChain...)
}

// Register godoc
// @Summary Register a new member account
// @Description Creates an inactive account, optionally linked to the referrer owning the supplied code.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body RegistrationRequest true "Registration request payload"
// @Success 201 {object} RegistrationResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) register(c *gin.Context) {
	if h.registration == nil {
		c.JSON(http.StatusServiceUnavailable, NewErrorResponse(c, "registration service unavailable"))
		return
	}

	var req RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid registration payload"))
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	req.ReferralCode = strings.TrimSpace(req.ReferralCode)

	if req.Username == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "username is required"))
		return
	}
	if req.Email == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "email is required"))
		return
	}

	user, err := h.registration.Register(c.Request.Context(), req.Username, req.Email, req.Phone, req.Password, req.ReferralCode)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrDuplicateIdentity):
			c.JSON(http.StatusConflict, NewErrorResponse(c, "username or email already registered"))
		case errors.Is(err, usecase.ErrPasswordPolicyViolation):
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "password does not meet requirements"))
		default:
			c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to register user"))
		}
		return
	}

	user.PasswordHash = ""

	c.JSON(http.StatusCreated, RegistrationResponse{
		User:    newUserSummary(user),
		Message: "registration successful, activate your account to start earning",
	})
}

// Login godoc
// @Summary Authenticate a member
// @Description Issues an access token for a valid username-or-email plus password pair.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body AuthLoginRequest true "Login request payload"
// @Success 200 {object} AuthLoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) login(c *gin.Context) {
	var req AuthLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "identifier and password are required"))
		return
	}

	token, user, err := h.auth.Login(c.Request.Context(), strings.TrimSpace(req.Identifier), req.Password)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid credentials"))
			return
		}
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to login"))
		return
	}

	user.PasswordHash = ""

	c.JSON(http.StatusOK, AuthLoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		User:        newUserSummary(user),
	})
}
