package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/itoshi/membership-service/internal/usecase"
)

// ActivationHandler exposes the paid activation endpoint.
type ActivationHandler struct {
	activation *usecase.ActivationService
}

// NewActivationHandler constructs ActivationHandler.
func NewActivationHandler(activation *usecase.ActivationService) *ActivationHandler {
	return &ActivationHandler{activation: activation}
}

// RegisterRoutes binds activation routes.
func (h *ActivationHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/activate", h.activate)
}

// Activate godoc
// @Summary Activate a member account
// @Description Marks the account active after an external payment, credits the signup bonus, and pays referral commissions.
// @Tags Account
// @Accept json
// @Produce json
// @Param request body ActivationRequest true "Activation request payload"
// @Success 200 {object} ActivationResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/account/activate [post]
func (h *ActivationHandler) activate(c *gin.Context) {
	var req ActivationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "user_id, payment_method and transaction_id are required"))
		return
	}

	snapshot, err := h.activation.Activate(
		c.Request.Context(),
		strings.TrimSpace(req.UserID),
		strings.TrimSpace(req.PaymentMethod),
		strings.TrimSpace(req.TransactionID),
	)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "user not found"},
			{Err: usecase.ErrAlreadyActive, Status: http.StatusBadRequest, Message: "account already active"},
		}, http.StatusInternalServerError, "failed to activate account")
		return
	}

	c.JSON(http.StatusOK, ActivationResponse{
		Message: "account activated",
		Account: newAccountSnapshot(snapshot),
	})
}
