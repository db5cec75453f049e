// Package submit implements the reservation protocol: debit first, then call
// the provider, and refund the reservation if anything after the debit fails
// before a job row exists. Once the job row is created, the poller's
// compare-and-set transition is the only remaining refund path.
package submit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hqbui/faceswap-be/internal/domain"
)

// Ledger is the slice of the credits ledger submission needs
type Ledger interface {
	Debit(ctx context.Context, ownerID string, amount int64, reason domain.TxReason, referenceID string) error
	Credit(ctx context.Context, ownerID string, amount int64, reason domain.TxReason, referenceID string) error
}

// JobStore persists new jobs
type JobStore interface {
	CreateJob(ctx context.Context, job *domain.Job) error
}

// ProviderClient submits swap tasks to the external provider
type ProviderClient interface {
	Submit(ctx context.Context, assets []string, kind domain.JobKind) (string, error)
}

// Service coordinates credit reservation and provider submission
type Service struct {
	ledger   Ledger
	jobs     JobStore
	provider ProviderClient
	logger   *slog.Logger
	now      func() time.Time
}

// Config holds submission service dependencies
type Config struct {
	Ledger   Ledger
	Jobs     JobStore
	Provider ProviderClient
	Logger   *slog.Logger
	// Now overrides the clock; nil means time.Now
	Now func() time.Time
}

// NewService creates a submission service
func NewService(cfg *Config) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		ledger:   cfg.Ledger,
		jobs:     cfg.Jobs,
		provider: cfg.Provider,
		logger:   cfg.Logger,
		now:      now,
	}
}

// Request describes one swap submission
type Request struct {
	OwnerID        string
	DeliveryTarget string
	Kind           domain.JobKind
	Cost           int64
	Assets         []string
}

// Submit reserves credits, submits the task to the provider, and creates the
// job record. On domain.ErrInsufficientBalance nothing has happened; on a
// provider or persistence failure after the debit, the reservation has been
// credited back and no job row exists.
func (s *Service) Submit(ctx context.Context, req Request) (*domain.Job, error) {
	if err := s.ledger.Debit(ctx, req.OwnerID, req.Cost, domain.ReasonDebitReserve, ""); err != nil {
		if errors.Is(err, domain.ErrInsufficientBalance) {
			s.logger.Info("Submission rejected, insufficient balance",
				slog.String("owner_id", req.OwnerID),
				slog.Int64("cost", req.Cost),
			)
		}
		return nil, err
	}

	requestID, err := s.provider.Submit(ctx, req.Assets, req.Kind)
	if err != nil {
		s.refundReservation(ctx, req, "provider submission failed")
		return nil, fmt.Errorf("provider submission failed: %w", err)
	}

	createdAt := s.now()
	job := &domain.Job{
		RequestID:      requestID,
		OwnerID:        req.OwnerID,
		DeliveryTarget: req.DeliveryTarget,
		Kind:           req.Kind,
		Status:         domain.JobStatusProcessing,
		CreatedAt:      createdAt,
		Attempts:       0,
		NextPollAt:     createdAt,
		ReservedCost:   req.Cost,
	}

	if err := s.jobs.CreateJob(ctx, job); err != nil {
		// The provider accepted the task but we have no durable record of
		// it, so there is nothing the poller could ever refund. Give the
		// reservation back now.
		s.refundReservation(ctx, req, "job persistence failed")
		return nil, fmt.Errorf("failed to persist job: %w", err)
	}

	s.logger.Info("Swap submitted",
		slog.String("request_id", requestID),
		slog.String("owner_id", req.OwnerID),
		slog.String("kind", string(req.Kind)),
		slog.Int64("cost", req.Cost),
	)

	return job, nil
}

// refundReservation compensates the submission debit. No job row exists at
// this point, so the reference id is empty.
func (s *Service) refundReservation(ctx context.Context, req Request, cause string) {
	if err := s.ledger.Credit(ctx, req.OwnerID, req.Cost, domain.ReasonRefundFailed, ""); err != nil {
		// The debit is durable but the compensation is not. This needs an
		// operator: surface it loudly.
		s.logger.Error("Failed to refund reservation",
			slog.String("owner_id", req.OwnerID),
			slog.Int64("cost", req.Cost),
			slog.String("cause", cause),
			slog.Any("error", err),
		)
		return
	}

	s.logger.Info("Reservation refunded",
		slog.String("owner_id", req.OwnerID),
		slog.Int64("cost", req.Cost),
		slog.String("cause", cause),
	)
}
