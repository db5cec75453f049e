package handler

import (
	"context"
	"log/slog"

	"github.com/hqbui/faceswap-be/internal/config"
	"github.com/hqbui/faceswap-be/internal/domain"
	"github.com/hqbui/faceswap-be/internal/store"
	"github.com/hqbui/faceswap-be/internal/submit"
)

// Submitter runs the reservation protocol for a new swap
type Submitter interface {
	Submit(ctx context.Context, req submit.Request) (*domain.Job, error)
}

// Jobs is the read side of the job store used by the API
type Jobs interface {
	GetJob(ctx context.Context, requestID string) (*domain.Job, error)
	ListJobs(ctx context.Context, filter store.JobFilter) ([]domain.Job, error)
}

// Ledger is the slice of the credits ledger used by the API
type Ledger interface {
	EnsureUser(ctx context.Context, ownerID string) error
	GetUser(ctx context.Context, ownerID string) (*domain.User, error)
	Credit(ctx context.Context, ownerID string, amount int64, reason domain.TxReason, referenceID string) error
	CreditIdempotent(ctx context.Context, sessionID, ownerID string, amount int64, reason domain.TxReason) (bool, error)
	ListTransactions(ctx context.Context, filter store.TxFilter) ([]domain.Transaction, error)
}

// Dependencies holds everything the handlers need
type Dependencies struct {
	Logger    *slog.Logger
	Submitter Submitter
	Jobs      Jobs
	Ledger    Ledger
	Credits   config.CreditsConfig
}
