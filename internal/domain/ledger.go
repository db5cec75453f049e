package domain

import "time"

// TxReason classifies ledger transactions
type TxReason string

const (
	ReasonDebitReserve   TxReason = "debit_reserve"
	ReasonRefundFailed   TxReason = "refund_failed"
	ReasonRefundTimeout  TxReason = "refund_timeout"
	ReasonPurchase       TxReason = "purchase"
	ReasonAdminGrant     TxReason = "admin_grant"
	ReasonReferralReward TxReason = "referral_reward"
)

// ValidGrantReason reports whether r is allowed on the admin grant path
func ValidGrantReason(r TxReason) bool {
	return r == ReasonAdminGrant || r == ReasonReferralReward
}

// User holds a credit account. Balance is never negative; every balance
// change appends a Transaction in the same database transaction.
type User struct {
	ID           string    `db:"id"`
	Balance      int64     `db:"balance"`
	HasPurchased bool      `db:"has_purchased"`
	CreatedAt    time.Time `db:"created_at"`
}

// Transaction is an append-only ledger entry. Amount is signed: debits are
// negative, credits positive. ReferenceID is the job request id or payment
// session id the entry relates to, if any.
type Transaction struct {
	ID          int64     `db:"id"`
	OwnerID     string    `db:"owner_id"`
	Amount      int64     `db:"amount"`
	Reason      TxReason  `db:"reason"`
	ReferenceID string    `db:"reference_id"`
	CreatedAt   time.Time `db:"created_at"`
}
