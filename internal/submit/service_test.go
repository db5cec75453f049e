package submit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hqbui/faceswap-be/internal/domain"
)

type ledgerCall struct {
	ownerID     string
	amount      int64
	reason      domain.TxReason
	referenceID string
}

type fakeLedger struct {
	debits  []ledgerCall
	credits []ledgerCall

	debitErr  error
	creditErr error
}

func (f *fakeLedger) Debit(_ context.Context, ownerID string, amount int64, reason domain.TxReason, referenceID string) error {
	if f.debitErr != nil {
		return f.debitErr
	}
	f.debits = append(f.debits, ledgerCall{ownerID, amount, reason, referenceID})
	return nil
}

func (f *fakeLedger) Credit(_ context.Context, ownerID string, amount int64, reason domain.TxReason, referenceID string) error {
	if f.creditErr != nil {
		return f.creditErr
	}
	f.credits = append(f.credits, ledgerCall{ownerID, amount, reason, referenceID})
	return nil
}

type fakeJobs struct {
	created   []*domain.Job
	createErr error
}

func (f *fakeJobs) CreateJob(_ context.Context, job *domain.Job) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, job)
	return nil
}

type fakeProvider struct {
	requestID string
	err       error
	calls     int
}

func (f *fakeProvider) Submit(_ context.Context, _ []string, _ domain.JobKind) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.requestID, nil
}

func newTestService(ledger *fakeLedger, jobs *fakeJobs, prov *fakeProvider, now time.Time) *Service {
	return NewService(&Config{
		Ledger:   ledger,
		Jobs:     jobs,
		Provider: prov,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:      func() time.Time { return now },
	})
}

func testRequest() Request {
	return Request{
		OwnerID:        "user-1",
		DeliveryTarget: "chat-42",
		Kind:           domain.KindImage,
		Cost:           2,
		Assets:         []string{"https://cdn.example/face.png", "https://cdn.example/target.png"},
	}
}

func TestService_Submit(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	ledger := &fakeLedger{}
	jobs := &fakeJobs{}
	prov := &fakeProvider{requestID: "req-1"}

	svc := newTestService(ledger, jobs, prov, now)

	job, err := svc.Submit(context.Background(), testRequest())
	require.NoError(t, err)
	require.NotNil(t, job)

	assert.Equal(t, "req-1", job.RequestID)
	assert.Equal(t, "user-1", job.OwnerID)
	assert.Equal(t, "chat-42", job.DeliveryTarget)
	assert.Equal(t, domain.KindImage, job.Kind)
	assert.Equal(t, domain.JobStatusProcessing, job.Status)
	assert.Equal(t, now, job.CreatedAt)
	assert.Equal(t, 0, job.Attempts)
	// A fresh job is due for its first poll immediately
	assert.Equal(t, now, job.NextPollAt)
	assert.Equal(t, int64(2), job.ReservedCost)

	require.Len(t, ledger.debits, 1)
	assert.Equal(t, ledgerCall{"user-1", 2, domain.ReasonDebitReserve, ""}, ledger.debits[0])
	assert.Empty(t, ledger.credits)

	require.Len(t, jobs.created, 1)
	assert.Equal(t, job, jobs.created[0])
}

func TestService_Submit_InsufficientBalance(t *testing.T) {
	ledger := &fakeLedger{debitErr: domain.ErrInsufficientBalance}
	jobs := &fakeJobs{}
	prov := &fakeProvider{requestID: "req-1"}

	svc := newTestService(ledger, jobs, prov, time.Now())

	job, err := svc.Submit(context.Background(), testRequest())
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)
	assert.Nil(t, job)

	// Rejection happens before any side effect
	assert.Equal(t, 0, prov.calls)
	assert.Empty(t, jobs.created)
	assert.Empty(t, ledger.credits)
}

func TestService_Submit_ProviderFailureRefunds(t *testing.T) {
	ledger := &fakeLedger{}
	jobs := &fakeJobs{}
	prov := &fakeProvider{err: errors.New("provider down")}

	svc := newTestService(ledger, jobs, prov, time.Now())

	job, err := svc.Submit(context.Background(), testRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider submission failed")
	assert.Nil(t, job)

	// Debit compensated, net zero, no job row
	require.Len(t, ledger.debits, 1)
	require.Len(t, ledger.credits, 1)
	assert.Equal(t, ledgerCall{"user-1", 2, domain.ReasonRefundFailed, ""}, ledger.credits[0])
	assert.Empty(t, jobs.created)
}

func TestService_Submit_PersistenceFailureRefunds(t *testing.T) {
	ledger := &fakeLedger{}
	jobs := &fakeJobs{createErr: errors.New("connection reset")}
	prov := &fakeProvider{requestID: "req-1"}

	svc := newTestService(ledger, jobs, prov, time.Now())

	job, err := svc.Submit(context.Background(), testRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to persist job")
	assert.Nil(t, job)

	assert.Equal(t, 1, prov.calls)
	require.Len(t, ledger.credits, 1)
	assert.Equal(t, domain.ReasonRefundFailed, ledger.credits[0].reason)
}

func TestService_Submit_RefundFailureStillReturnsError(t *testing.T) {
	ledger := &fakeLedger{creditErr: errors.New("ledger unavailable")}
	jobs := &fakeJobs{}
	prov := &fakeProvider{err: errors.New("provider down")}

	svc := newTestService(ledger, jobs, prov, time.Now())

	job, err := svc.Submit(context.Background(), testRequest())
	require.Error(t, err)
	assert.Nil(t, job)
	assert.Empty(t, jobs.created)
}
