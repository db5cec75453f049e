package handler

import (
	"log/slog"
	"net/http"

	"github.com/hqbui/faceswap-be/internal/api/dto"
	"github.com/hqbui/faceswap-be/internal/domain"
	"github.com/gin-gonic/gin"
)

// AdminHandler handles privileged credit operations
type AdminHandler struct {
	logger *slog.Logger
	ledger Ledger
}

// NewAdminHandler creates a new AdminHandler instance
func NewAdminHandler(deps *Dependencies) *AdminHandler {
	return &AdminHandler{
		logger: deps.Logger,
		ledger: deps.Ledger,
	}
}

// GrantCredits handles POST /api/v1/admin/credits/grant. Grants go through
// the ledger so they leave the same auditable transaction as any credit.
func (h *AdminHandler) GrantCredits(c *gin.Context) {
	var req dto.GrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	reason := domain.TxReason(req.Reason)
	if req.Reason == "" {
		reason = domain.ReasonAdminGrant
	}
	if !domain.ValidGrantReason(reason) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "reason must be admin_grant or referral_reward",
		})
		return
	}

	ctx := c.Request.Context()

	if err := h.ledger.EnsureUser(ctx, req.OwnerID); err != nil {
		h.logger.Error("Failed to ensure user", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to prepare account",
		})
		return
	}

	if err := h.ledger.Credit(ctx, req.OwnerID, req.Amount, reason, ""); err != nil {
		h.logger.Error("Failed to grant credits",
			slog.String("owner_id", req.OwnerID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to grant credits",
		})
		return
	}

	h.logger.Info("Credits granted",
		slog.String("owner_id", req.OwnerID),
		slog.Int64("amount", req.Amount),
		slog.String("reason", string(reason)),
	)

	c.JSON(http.StatusOK, gin.H{
		"owner_id": req.OwnerID,
		"amount":   req.Amount,
		"reason":   reason,
	})
}
