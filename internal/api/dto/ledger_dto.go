package dto

// PaymentWebhookRequest is the event body the payment provider posts after a
// completed checkout. Signature verification happens upstream of this API.
type PaymentWebhookRequest struct {
	SessionID            string `json:"session_id" binding:"required"`
	OwnerID              string `json:"owner_id" binding:"required"`
	AmountPaidMinorUnits int64  `json:"amount_paid_minor_units"`
	CreditsPurchased     int64  `json:"credits_purchased" binding:"required,gt=0"`
}

// GrantRequest is the body of POST /api/v1/admin/credits/grant
type GrantRequest struct {
	OwnerID string `json:"owner_id" binding:"required"`
	Amount  int64  `json:"amount" binding:"required,gt=0"`
	// Reason defaults to admin_grant; referral_reward is also accepted
	Reason string `json:"reason"`
}

// BalanceResponse is the body of GET /api/v1/users/:user_id/balance
type BalanceResponse struct {
	OwnerID      string `json:"owner_id"`
	Balance      int64  `json:"balance"`
	HasPurchased bool   `json:"has_purchased"`
}

// TransactionDTO is the API representation of a ledger entry
type TransactionDTO struct {
	ID          int64  `json:"id"`
	OwnerID     string `json:"owner_id"`
	Amount      int64  `json:"amount"`
	Reason      string `json:"reason"`
	ReferenceID string `json:"reference_id,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// ListTransactionsRequest holds the query parameters of the history endpoint
type ListTransactionsRequest struct {
	PageSize int    `form:"page_size"`
	Cursor   string `form:"cursor"`
}

// ListTransactionsResponse is the body of the history endpoint
type ListTransactionsResponse struct {
	Transactions []TransactionDTO `json:"transactions"`
	NextCursor   string           `json:"next_cursor,omitempty"`
}
