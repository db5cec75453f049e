package handler

import (
	"log/slog"
	"net/http"

	"github.com/hqbui/faceswap-be/internal/api/dto"
	"github.com/hqbui/faceswap-be/internal/domain"
	"github.com/gin-gonic/gin"
)

// PaymentHandler consumes payment provider webhooks
type PaymentHandler struct {
	logger *slog.Logger
	ledger Ledger
}

// NewPaymentHandler creates a new PaymentHandler instance
func NewPaymentHandler(deps *Dependencies) *PaymentHandler {
	return &PaymentHandler{
		logger: deps.Logger,
		ledger: deps.Ledger,
	}
}

// Webhook handles POST /api/v1/payments/webhook. The payment provider may
// deliver the same session more than once; replays are answered with 200 and
// credited zero additional times.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	var req dto.PaymentWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid webhook body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid webhook body",
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

	applied, err := h.ledger.CreditIdempotent(ctx, req.SessionID, req.OwnerID, req.CreditsPurchased, domain.ReasonPurchase)
	if err != nil {
		h.logger.Error("Failed to credit purchase",
			slog.String("session_id", req.SessionID),
			slog.String("error", err.Error()),
		)
		// Signal the provider to retry the delivery
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to credit purchase",
		})
		return
	}

	if !applied {
		c.JSON(http.StatusOK, gin.H{
			"status":     "already_processed",
			"session_id": req.SessionID,
		})
		return
	}

	h.logger.Info("Purchase credited",
		slog.String("session_id", req.SessionID),
		slog.String("owner_id", req.OwnerID),
		slog.Int64("credits", req.CreditsPurchased),
	)

	c.JSON(http.StatusOK, gin.H{
		"status":     "credited",
		"session_id": req.SessionID,
		"credits":    req.CreditsPurchased,
	})
}
