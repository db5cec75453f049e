// Package notify decouples terminal-outcome delivery from the poller.
// Delivery is best-effort: a failed delivery never rolls back a job's
// terminal status or a ledger refund.
package notify

import (
	"context"

	"github.com/hqbui/faceswap-be/internal/domain"
)

// Outcome describes a job's terminal result for the delivery front end
type Outcome struct {
	RequestID       string         `json:"request_id"`
	Kind            domain.JobKind `json:"kind"`
	Succeeded       bool           `json:"succeeded"`
	ResultRef       string         `json:"result_ref,omitempty"`
	Message         string         `json:"message,omitempty"`
	RefundedCredits int64          `json:"refunded_credits,omitempty"`
}

// Sink delivers terminal outcomes to their target
type Sink interface {
	Deliver(ctx context.Context, deliveryTarget string, outcome Outcome) error
}
