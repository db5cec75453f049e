// Package poller advances every in-flight job toward a terminal state. A
// single ticking scheduler reads due jobs from the store and fans them out
// to a bounded worker pool; all refunds on the failure path are guarded by
// the store's compare-and-set transition, so they fire at most once per job
// no matter how many ticks observe the same outcome.
package poller

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hqbui/faceswap-be/internal/domain"
	"github.com/hqbui/faceswap-be/internal/notify"
	"github.com/hqbui/faceswap-be/internal/provider"
)

// JobStore is the slice of the job store the poller needs
type JobStore interface {
	ListDueJobs(ctx context.Context, now time.Time) ([]domain.Job, error)
	TransitionJob(ctx context.Context, requestID string, newStatus domain.JobStatus, resultRef, failureReason, refundReason string) (bool, error)
	RescheduleJob(ctx context.Context, requestID string, attempts int, nextPollAt time.Time) error
	ResetPollSchedule(ctx context.Context, now time.Time) (int64, error)
}

// Ledger credits refunds back to job owners
type Ledger interface {
	Credit(ctx context.Context, ownerID string, amount int64, reason domain.TxReason, referenceID string) error
}

// StatusChecker polls the provider for a job's state
type StatusChecker interface {
	PollStatus(ctx context.Context, requestID string, kind domain.JobKind) provider.Result
}

// Config holds poller configuration and dependencies
type Config struct {
	Logger   *slog.Logger
	Store    JobStore
	Ledger   Ledger
	Provider StatusChecker
	Sink     notify.Sink

	// TickInterval is how often due jobs are fetched
	TickInterval time.Duration
	// Concurrency bounds the worker pool polling the provider
	Concurrency int
	// PollTimeout bounds each individual status call
	PollTimeout time.Duration
	// JobDeadline is the ceiling after which a processing job is forced
	// to failed with a timeout refund
	JobDeadline time.Duration
	// BackoffBase and BackoffMax shape the reschedule delay
	BackoffBase time.Duration
	BackoffMax  time.Duration

	// Now overrides the clock; nil means time.Now
	Now func() time.Time
}

// Poller is the background scheduler driving in-flight jobs
type Poller struct {
	logger   *slog.Logger
	store    JobStore
	ledger   Ledger
	provider StatusChecker
	sink     notify.Sink

	tickInterval time.Duration
	concurrency  int
	pollTimeout  time.Duration
	jobDeadline  time.Duration
	backoffBase  time.Duration
	backoffMax   time.Duration
	now          func() time.Time

	jobsChan chan domain.Job
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a poller. Zero config values fall back to defaults.
func New(cfg *Config) *Poller {
	p := &Poller{
		logger:       cfg.Logger,
		store:        cfg.Store,
		ledger:       cfg.Ledger,
		provider:     cfg.Provider,
		sink:         cfg.Sink,
		tickInterval: cfg.TickInterval,
		concurrency:  cfg.Concurrency,
		pollTimeout:  cfg.PollTimeout,
		jobDeadline:  cfg.JobDeadline,
		backoffBase:  cfg.BackoffBase,
		backoffMax:   cfg.BackoffMax,
		now:          cfg.Now,
		stopChan:     make(chan struct{}),
	}

	if p.tickInterval <= 0 {
		p.tickInterval = 3 * time.Second
	}
	if p.concurrency <= 0 {
		p.concurrency = 5
	}
	if p.pollTimeout <= 0 {
		p.pollTimeout = 5 * time.Second
	}
	if p.jobDeadline <= 0 {
		p.jobDeadline = 150 * time.Second
	}
	if p.backoffBase <= 0 {
		p.backoffBase = 2 * time.Second
	}
	if p.backoffMax <= 0 {
		p.backoffMax = 30 * time.Second
	}
	if p.now == nil {
		p.now = time.Now
	}

	p.jobsChan = make(chan domain.Job, p.concurrency)

	return p
}

// Start recovers in-flight jobs, spawns the worker pool, and runs the tick
// loop until the context is canceled or Stop is called.
func (p *Poller) Start(ctx context.Context) error {
	if err := p.recover(ctx); err != nil {
		return err
	}

	p.logger.Info("Starting poller",
		slog.Duration("tick_interval", p.tickInterval),
		slog.Int("concurrency", p.concurrency),
		slog.Duration("job_deadline", p.jobDeadline),
	)

	for i := 0; i < p.concurrency; i++ {
		p.wg.Add(1)
		go p.workerLoop(ctx, i)
	}

	ticker := time.NewTicker(p.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Poller stopping - context canceled")
			return nil
		case <-p.stopChan:
			p.logger.Info("Poller stopping - stop requested")
			return nil
		case <-ticker.C:
			p.dispatchDue(ctx)
		}
	}
}

// Stop signals the tick loop and workers to exit and waits for them
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopChan)
	})
	p.wg.Wait()
	p.logger.Info("Poller stopped")
}

// recover re-admits every processing job into the schedule. The job store is
// the sole source of scheduling truth, so jobs left in flight by a crash or
// redeploy become due immediately.
func (p *Poller) recover(ctx context.Context) error {
	count, err := p.store.ResetPollSchedule(ctx, p.now())
	if err != nil {
		return fmt.Errorf("failed to recover in-flight jobs: %w", err)
	}

	if count > 0 {
		p.logger.Info("Recovered in-flight jobs",
			slog.Int64("count", count),
		)
	}

	return nil
}

// dispatchDue fetches due jobs and hands them to the worker pool
func (p *Poller) dispatchDue(ctx context.Context) {
	now := p.now()

	jobs, err := p.store.ListDueJobs(ctx, now)
	if err != nil {
		p.logger.Error("Failed to list due jobs",
			slog.Any("error", err),
		)
		return
	}

	if len(jobs) == 0 {
		return
	}

	p.logger.Debug("Dispatching due jobs",
		slog.Int("count", len(jobs)),
	)

	for _, job := range jobs {
		select {
		case p.jobsChan <- job:
		case <-ctx.Done():
			return
		case <-p.stopChan:
			return
		}
	}
}

// workerLoop processes jobs from the pool channel
func (p *Poller) workerLoop(ctx context.Context, workerNum int) {
	defer p.wg.Done()

	p.logger.Debug("Poll worker started",
		slog.Int("worker_num", workerNum),
	)

	for {
		select {
		case <-p.stopChan:
			return
		case <-ctx.Done():
			return
		case job := <-p.jobsChan:
			p.handleJob(ctx, job)
		}
	}
}

// handleJob runs one poll cycle for a single job
func (p *Poller) handleJob(ctx context.Context, job domain.Job) {
	now := p.now()

	// Deadline check before spending a provider call on a lost cause
	if now.Sub(job.CreatedAt) >= p.jobDeadline {
		p.logger.Warn("Job exceeded deadline, forcing failure",
			slog.String("request_id", job.RequestID),
			slog.Duration("age", now.Sub(job.CreatedAt)),
		)
		p.failJob(ctx, job, "timeout", domain.ReasonRefundTimeout)
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, p.pollTimeout)
	result := p.provider.PollStatus(callCtx, job.RequestID, job.Kind)
	cancel()

	switch result.State {
	case provider.StateCompleted:
		p.completeJob(ctx, job, result.ResultRef)

	case provider.StateFailed:
		p.failJob(ctx, job, result.FailureReason, domain.ReasonRefundFailed)

	case provider.StateRetry:
		p.logger.Debug("Transient poll failure",
			slog.String("request_id", job.RequestID),
			slog.String("cause", result.RetryCause),
			slog.Int("attempts", job.Attempts),
		)
		p.reschedule(ctx, job, true)

	case provider.StateProcessing:
		p.reschedule(ctx, job, false)
	}
}

// completeJob attempts the terminal success transition and notifies if this
// caller won it
func (p *Poller) completeJob(ctx context.Context, job domain.Job, resultRef string) {
	won, err := p.store.TransitionJob(ctx, job.RequestID, domain.JobStatusCompleted, resultRef, "", "")
	if err != nil {
		p.logger.Error("Failed to complete job",
			slog.String("request_id", job.RequestID),
			slog.Any("error", err),
		)
		return
	}
	if !won {
		// Another caller already settled this job
		return
	}

	p.deliver(ctx, job, notify.Outcome{
		RequestID: job.RequestID,
		Kind:      job.Kind,
		Succeeded: true,
		ResultRef: resultRef,
	})
}

// failJob attempts the terminal failure transition; the refund and the
// notification happen only when this caller won the transition, which makes
// the refund fire at most once per job.
func (p *Poller) failJob(ctx context.Context, job domain.Job, reason string, refundReason domain.TxReason) {
	won, err := p.store.TransitionJob(ctx, job.RequestID, domain.JobStatusFailed, "", reason, string(refundReason))
	if err != nil {
		p.logger.Error("Failed to fail job",
			slog.String("request_id", job.RequestID),
			slog.Any("error", err),
		)
		return
	}
	if !won {
		return
	}

	refunded := int64(0)
	if job.ReservedCost > 0 {
		if err := p.ledger.Credit(ctx, job.OwnerID, job.ReservedCost, refundReason, job.RequestID); err != nil {
			// The job is terminally failed but the owner was not made
			// whole; this must be reconciled by an operator.
			p.logger.Error("Refund failed after terminal transition",
				slog.String("request_id", job.RequestID),
				slog.String("owner_id", job.OwnerID),
				slog.Int64("reserved_cost", job.ReservedCost),
				slog.Any("error", err),
			)
		} else {
			refunded = job.ReservedCost
		}
	}

	p.logger.Info("Job failed",
		slog.String("request_id", job.RequestID),
		slog.String("reason", reason),
		slog.Int64("refunded", refunded),
	)

	p.deliver(ctx, job, notify.Outcome{
		RequestID:       job.RequestID,
		Kind:            job.Kind,
		Succeeded:       false,
		Message:         reason,
		RefundedCredits: refunded,
	})
}

// reschedule bumps the job's poll metadata. Transient failures count against
// attempts; a still-processing answer backs off without counting.
func (p *Poller) reschedule(ctx context.Context, job domain.Job, countAttempt bool) {
	attempts := job.Attempts
	if countAttempt {
		attempts++
	}

	nextPollAt := p.now().Add(backoffDelay(p.backoffBase, p.backoffMax, attempts))

	if err := p.store.RescheduleJob(ctx, job.RequestID, attempts, nextPollAt); err != nil {
		p.logger.Error("Failed to reschedule job",
			slog.String("request_id", job.RequestID),
			slog.Any("error", err),
		)
	}
}

// deliver pushes the outcome to the sink. Failures are logged only: delivery
// is best-effort and never unwinds job or ledger state.
func (p *Poller) deliver(ctx context.Context, job domain.Job, outcome notify.Outcome) {
	if err := p.sink.Deliver(ctx, job.DeliveryTarget, outcome); err != nil {
		p.logger.Warn("Failed to deliver outcome",
			slog.String("request_id", job.RequestID),
			slog.String("delivery_target", job.DeliveryTarget),
			slog.Any("error", err),
		)
	}
}
