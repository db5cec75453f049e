package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hqbui/faceswap-be/internal/api/dto"
	"github.com/hqbui/faceswap-be/internal/domain"
	"github.com/hqbui/faceswap-be/internal/store"
	"github.com/gin-gonic/gin"
)

// AccountHandler serves balances and transaction history
type AccountHandler struct {
	logger *slog.Logger
	ledger Ledger
}

// NewAccountHandler creates a new AccountHandler instance
func NewAccountHandler(deps *Dependencies) *AccountHandler {
	return &AccountHandler{
		logger: deps.Logger,
		ledger: deps.Ledger,
	}
}

// GetBalance handles GET /api/v1/users/:user_id/balance
func (h *AccountHandler) GetBalance(c *gin.Context) {
	userID := c.Param("user_id")

	user, err := h.ledger.GetUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "User not found",
			})
			return
		}
		h.logger.Error("Failed to get user", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get balance",
		})
		return
	}

	c.JSON(http.StatusOK, dto.BalanceResponse{
		OwnerID:      user.ID,
		Balance:      user.Balance,
		HasPurchased: user.HasPurchased,
	})
}

// ListTransactions handles GET /api/v1/users/:user_id/transactions
func (h *AccountHandler) ListTransactions(c *gin.Context) {
	userID := c.Param("user_id")

	var req dto.ListTransactionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	if req.PageSize <= 0 {
		req.PageSize = 20
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	cursor, err := DecodeTxCursor(req.Cursor)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid cursor",
		})
		return
	}

	txs, err := h.ledger.ListTransactions(c.Request.Context(), store.TxFilter{
		OwnerID:  userID,
		PageSize: req.PageSize,
		Cursor:   cursor,
	})
	if err != nil {
		h.logger.Error("Failed to list transactions", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list transactions",
		})
		return
	}

	hasMore := len(txs) > req.PageSize
	if hasMore {
		txs = txs[:req.PageSize]
	}

	txResponse := make([]dto.TransactionDTO, len(txs))
	for i, tx := range txs {
		txResponse[i] = dto.TransactionDTO{
			ID:          tx.ID,
			OwnerID:     tx.OwnerID,
			Amount:      tx.Amount,
			Reason:      string(tx.Reason),
			ReferenceID: tx.ReferenceID,
			CreatedAt:   tx.CreatedAt.Format(time.RFC3339),
		}
	}

	var nextCursor string
	if hasMore {
		lastTx := txs[len(txs)-1]
		nextCursor = EncodeTxCursor(&store.TxCursor{
			CreatedAt: lastTx.CreatedAt,
			ID:        lastTx.ID,
		})
	}

	c.JSON(http.StatusOK, dto.ListTransactionsResponse{
		Transactions: txResponse,
		NextCursor:   nextCursor,
	})
}
