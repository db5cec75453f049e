package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hqbui/faceswap-be/internal/domain"
)

const jobColumns = `
	request_id, owner_id, delivery_target, kind, status,
	created_at, updated_at,
	COALESCE(result_ref, '') AS result_ref,
	COALESCE(failure_reason, '') AS failure_reason,
	attempts, next_poll_at, reserved_cost,
	COALESCE(refund_reason, '') AS refund_reason
`

// CreateJob inserts a new job in processing status. Returns
// domain.ErrJobAlreadyExists if the request id is already present.
func (s *Store) CreateJob(ctx context.Context, job *domain.Job) error {
	query := `
		INSERT INTO jobs (
			request_id, owner_id, delivery_target, kind, status,
			created_at, updated_at, attempts, next_poll_at, reserved_cost
		) VALUES ($1, $2, $3, $4, $5, $6, $6, $7, $8, $9)
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		job.RequestID,
		job.OwnerID,
		job.DeliveryTarget,
		job.Kind,
		job.Status,
		job.CreatedAt,
		job.Attempts,
		job.NextPollAt,
		job.ReservedCost,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrJobAlreadyExists
		}
		return fmt.Errorf("failed to create job: %w", err)
	}

	s.logger.Info("Job created",
		slog.String("request_id", job.RequestID),
		slog.String("owner_id", job.OwnerID),
		slog.String("kind", string(job.Kind)),
		slog.Int64("reserved_cost", job.ReservedCost),
	)

	return nil
}

// TransitionJob moves a job out of processing into the given terminal status.
// The UPDATE is guarded on the current status, so out of any number of concurrent
// callers exactly one observes won=true; the rest lost the race to an earlier
// terminal transition and must treat the job as already handled.
func (s *Store) TransitionJob(ctx context.Context, requestID string, newStatus domain.JobStatus, resultRef, failureReason, refundReason string) (bool, error) {
	if !newStatus.Terminal() {
		return false, fmt.Errorf("transition target must be terminal, got %q", newStatus)
	}

	query := `
		UPDATE jobs
		SET status = $2,
		    result_ref = NULLIF($3, ''),
		    failure_reason = NULLIF($4, ''),
		    refund_reason = NULLIF($5, ''),
		    updated_at = NOW()
		WHERE request_id = $1
		  AND status = $6
	`

	result, err := s.db.ExecContext(ctx, query, requestID, newStatus, resultRef, failureReason, refundReason, domain.JobStatusProcessing)
	if err != nil {
		return false, fmt.Errorf("failed to transition job: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		s.logger.Debug("Job transition lost or job unknown",
			slog.String("request_id", requestID),
			slog.String("target_status", string(newStatus)),
		)
		return false, nil
	}

	s.logger.Info("Job transitioned",
		slog.String("request_id", requestID),
		slog.String("status", string(newStatus)),
	)

	return true, nil
}

// GetJob retrieves a job by request id
func (s *Store) GetJob(ctx context.Context, requestID string) (*domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE request_id = $1`

	var job domain.Job
	if err := s.db.GetContext(ctx, &job, query, requestID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return &job, nil
}

// ListDueJobs returns all processing jobs whose next poll time has passed
func (s *Store) ListDueJobs(ctx context.Context, now time.Time) ([]domain.Job, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM jobs
		WHERE status = $1 AND next_poll_at <= $2
		ORDER BY next_poll_at ASC
	`

	var jobs []domain.Job
	if err := s.db.SelectContext(ctx, &jobs, query, domain.JobStatusProcessing, now); err != nil {
		return nil, fmt.Errorf("failed to list due jobs: %w", err)
	}

	return jobs, nil
}

// RescheduleJob bumps the poll metadata of a still-processing job. A no-op
// when the job already reached a terminal status.
func (s *Store) RescheduleJob(ctx context.Context, requestID string, attempts int, nextPollAt time.Time) error {
	query := `
		UPDATE jobs
		SET attempts = $2,
		    next_poll_at = $3,
		    updated_at = NOW()
		WHERE request_id = $1 AND status = $4
	`

	_, err := s.db.ExecContext(ctx, query, requestID, attempts, nextPollAt, domain.JobStatusProcessing)
	if err != nil {
		return fmt.Errorf("failed to reschedule job: %w", err)
	}

	return nil
}

// ResetPollSchedule marks every processing job due at now, regardless of its
// stored next poll time. Called once at poller startup so in-flight jobs
// survive a crash or redeploy.
func (s *Store) ResetPollSchedule(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE jobs
		SET next_poll_at = $1,
		    updated_at = NOW()
		WHERE status = $2
	`

	result, err := s.db.ExecContext(ctx, query, now, domain.JobStatusProcessing)
	if err != nil {
		return 0, fmt.Errorf("failed to reset poll schedule: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

// JobFilter narrows ListJobs results
type JobFilter struct {
	OwnerID  string
	Kind     string
	Status   string
	PageSize int
	Cursor   *Cursor
}

// Cursor marks a position in a (created_at, id) ordered listing
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

// ListJobs returns jobs matching the filter, newest first, cursor-paginated.
// Fetches one row beyond PageSize so the caller can detect more results.
func (s *Store) ListJobs(ctx context.Context, filter JobFilter) ([]domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE 1=1`
	args := []interface{}{}
	argIdx := 1

	if filter.OwnerID != "" {
		query += fmt.Sprintf(" AND owner_id = $%d", argIdx)
		args = append(args, filter.OwnerID)
		argIdx++
	}

	if filter.Kind != "" {
		query += fmt.Sprintf(" AND kind = $%d", argIdx)
		args = append(args, filter.Kind)
		argIdx++
	}

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, filter.Status)
		argIdx++
	}

	if filter.Cursor != nil {
		query += fmt.Sprintf(" AND (created_at, request_id) < ($%d, $%d)", argIdx, argIdx+1)
		args = append(args, filter.Cursor.CreatedAt, filter.Cursor.ID)
		argIdx += 2
	}

	query += " ORDER BY created_at DESC, request_id DESC"
	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, filter.PageSize+1)

	var jobs []domain.Job
	if err := s.db.SelectContext(ctx, &jobs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	return jobs, nil
}
