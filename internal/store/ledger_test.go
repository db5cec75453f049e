package store

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hqbui/faceswap-be/internal/domain"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &Store{
		db:     sqlx.NewDb(db, "sqlmock"),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, mock
}

func TestStore_CreditIdempotent_FirstDelivery(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO processed_payments")).
		WithArgs("sess-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("SET balance = balance + $2")).
		WithArgs("user-1", int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO transactions")).
		WithArgs("user-1", int64(10), "purchase", "sess-1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("SET has_purchased = TRUE")).
		WithArgs("user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	applied, err := s.CreditIdempotent(context.Background(), "sess-1", "user-1", 10, domain.ReasonPurchase)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_CreditIdempotent_DuplicateSession(t *testing.T) {
	s, mock := newMockStore(t)

	// The replayed insert conflicts, affects zero rows, and the transaction
	// still commits cleanly. No balance update or ledger append runs.
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO processed_payments (session_id, owner_id, credited_at)")).
		WithArgs("sess-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	applied, err := s.CreditIdempotent(context.Background(), "sess-1", "user-1", 10, domain.ReasonPurchase)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_CreditIdempotent_InsertUsesOnConflict(t *testing.T) {
	s, mock := newMockStore(t)

	// The insert must tolerate the duplicate inline rather than raise a
	// unique violation, which would abort the open transaction.
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (session_id) DO NOTHING")).
		WithArgs("sess-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	_, err := s.CreditIdempotent(context.Background(), "sess-1", "user-1", 10, domain.ReasonPurchase)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Debit(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SET balance = balance - $2")).
		WithArgs("user-1", int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO transactions")).
		WithArgs("user-1", int64(-2), "debit_reserve", "").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := s.Debit(context.Background(), "user-1", 2, domain.ReasonDebitReserve, "")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Debit_InsufficientBalance(t *testing.T) {
	s, mock := newMockStore(t)

	// The guarded UPDATE matches no row; the user exists, so the balance was
	// too low. Everything rolls back with no ledger append.
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $1 AND balance >= $2")).
		WithArgs("user-1", int64(100)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	err := s.Debit(context.Background(), "user-1", 100, domain.ReasonDebitReserve, "")
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Debit_UnknownUser(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SET balance = balance - $2")).
		WithArgs("ghost", int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	err := s.Debit(context.Background(), "ghost", 2, domain.ReasonDebitReserve, "")
	require.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Debit_RejectsNonPositiveAmount(t *testing.T) {
	s, mock := newMockStore(t)

	err := s.Debit(context.Background(), "user-1", 0, domain.ReasonDebitReserve, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be positive")
	assert.NoError(t, mock.ExpectationsWereMet())
}
