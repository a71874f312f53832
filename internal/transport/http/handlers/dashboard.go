package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/itoshi/membership-service/internal/transport/http/middleware"
	"github.com/itoshi/membership-service/internal/usecase"
)

// DashboardHandler exposes the authenticated account dashboard.
type DashboardHandler struct {
	dashboard   *usecase.DashboardService
	linkBaseURL string
}

// NewDashboardHandler constructs DashboardHandler. linkBaseURL is the public
// origin used when rendering shareable referral links.
func NewDashboardHandler(dashboard *usecase.DashboardService, linkBaseURL string) *DashboardHandler {
	return &DashboardHandler{
		dashboard:   dashboard,
		linkBaseURL: strings.TrimRight(linkBaseURL, "/"),
	}
}

// RegisterRoutes binds dashboard routes. Callers are expected to apply the
// auth middleware on the group.
func (h *DashboardHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/:userId", h.overview)
	r.GET("/:userId/referral-link", h.referralLink)
}

// Overview godoc
// @Summary Account dashboard
// @Description Returns the account, its ledger entries, and its direct referrals.
// @Tags Dashboard
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {object} DashboardResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /api/v1/dashboard/{userId} [get]
func (h *DashboardHandler) overview(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}

	overview, err := h.dashboard.Overview(c.Request.Context(), userID)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "user not found"},
		}, http.StatusInternalServerError, "failed to load dashboard")
		return
	}

	overview.User.PasswordHash = ""

	transactions := make([]TransactionPayload, 0, len(overview.Transactions))
	for _, entry := range overview.Transactions {
		transactions = append(transactions, newTransactionPayload(entry))
	}

	referrals := make([]ReferralPayload, 0, len(overview.Referrals))
	for _, ref := range overview.Referrals {
		referrals = append(referrals, newReferralPayload(ref))
	}

	c.JSON(http.StatusOK, DashboardResponse{
		User:         newUserSummary(overview.User),
		Transactions: transactions,
		Referrals:    referrals,
	})
}

// ReferralLink godoc
// @Summary Shareable referral link
// @Description Returns the account's referral code and registration link.
// @Tags Dashboard
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {object} ReferralLinkResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /api/v1/dashboard/{userId}/referral-link [get]
func (h *DashboardHandler) referralLink(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}

	code, link, err := h.dashboard.ReferralLink(c.Request.Context(), userID, h.linkBaseURL)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "user not found"},
		}, http.StatusInternalServerError, "failed to build referral link")
		return
	}

	c.JSON(http.StatusOK, ReferralLinkResponse{
		ReferralCode: code,
		ReferralLink: link,
	})
}

// authorizedUserID resolves the path user id and rejects cross-account access.
func (h *DashboardHandler) authorizedUserID(c *gin.Context) (string, bool) {
	userID := strings.TrimSpace(c.Param("userId"))
	if userID == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "user id is required"))
		return "", false
	}

	callerID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return "", false
	}

	if callerID != userID {
		c.JSON(http.StatusForbidden, NewErrorResponse(c, "access denied"))
		return "", false
	}

	return userID, true
}
