package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hqbui/faceswap-be/internal/domain"
	"github.com/jmoiron/sqlx"
)

// EnsureUser creates the user row on first contact. Existing rows are left
// untouched.
func (s *Store) EnsureUser(ctx context.Context, ownerID string) error {
	query := `
		INSERT INTO users (id, balance, has_purchased, created_at)
		VALUES ($1, 0, FALSE, NOW())
		ON CONFLICT (id) DO NOTHING
	`

	if _, err := s.db.ExecContext(ctx, query, ownerID); err != nil {
		return fmt.Errorf("failed to ensure user: %w", err)
	}
	return nil
}

// GetUser retrieves a user with their current balance
func (s *Store) GetUser(ctx context.Context, ownerID string) (*domain.User, error) {
	var user domain.User
	query := `SELECT id, balance, has_purchased, created_at FROM users WHERE id = $1`

	if err := s.db.GetContext(ctx, &user, query, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// Debit atomically subtracts amount from the user's balance and appends the
// ledger entry in one database transaction. The balance check and decrement
// are a single UPDATE statement guarded on balance >= amount, so concurrent
// debits can never drive the balance negative. Returns
// domain.ErrInsufficientBalance without side effects when the balance is too
// low.
func (s *Store) Debit(ctx context.Context, ownerID string, amount int64, reason domain.TxReason, referenceID string) error {
	if amount <= 0 {
		return fmt.Errorf("debit amount must be positive, got %d", amount)
	}

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE users
			SET balance = balance - $2
			WHERE id = $1 AND balance >= $2
		`, ownerID, amount)
		if err != nil {
			return fmt.Errorf("failed to debit balance: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}

		if rowsAffected == 0 {
			var exists bool
			if err := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, ownerID); err != nil {
				return fmt.Errorf("failed to check user: %w", err)
			}
			if !exists {
				return domain.ErrUserNotFound
			}
			return domain.ErrInsufficientBalance
		}

		return s.appendTransaction(ctx, tx, ownerID, -amount, reason, referenceID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Balance debited",
		slog.String("owner_id", ownerID),
		slog.Int64("amount", amount),
		slog.String("reason", string(reason)),
	)

	return nil
}

// Credit atomically adds amount to the user's balance and appends the ledger
// entry in one database transaction.
func (s *Store) Credit(ctx context.Context, ownerID string, amount int64, reason domain.TxReason, referenceID string) error {
	if amount <= 0 {
		return fmt.Errorf("credit amount must be positive, got %d", amount)
	}

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		return s.creditInTx(ctx, tx, ownerID, amount, reason, referenceID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Balance credited",
		slog.String("owner_id", ownerID),
		slog.Int64("amount", amount),
		slog.String("reason", string(reason)),
		slog.String("reference_id", referenceID),
	)

	return nil
}

// CreditIdempotent credits a purchase keyed by the payment session id.
// The session id is inserted into processed_payments first, inside the same
// database transaction as the balance update, so its primary key is the
// idempotency guarantee: a replayed webhook conflicts on the insert and
// returns applied=false with no ledger change. ON CONFLICT DO NOTHING keeps
// the transaction healthy on the duplicate path; a raised unique violation
// would abort the whole transaction and the commit with it.
func (s *Store) CreditIdempotent(ctx context.Context, sessionID, ownerID string, amount int64, reason domain.TxReason) (bool, error) {
	if amount <= 0 {
		return false, fmt.Errorf("credit amount must be positive, got %d", amount)
	}

	applied := true
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO processed_payments (session_id, owner_id, credited_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (session_id) DO NOTHING
		`, sessionID, ownerID)
		if err != nil {
			return fmt.Errorf("failed to record payment session: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			applied = false
			return nil
		}

		if err := s.creditInTx(ctx, tx, ownerID, amount, reason, sessionID); err != nil {
			return err
		}

		if reason == domain.ReasonPurchase {
			if _, err := tx.ExecContext(ctx, `UPDATE users SET has_purchased = TRUE WHERE id = $1`, ownerID); err != nil {
				return fmt.Errorf("failed to mark user as purchased: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return false, err
	}

	if !applied {
		s.logger.Info("Payment session already processed, skipping credit",
			slog.String("session_id", sessionID),
			slog.String("owner_id", ownerID),
		)
		return false, nil
	}

	s.logger.Info("Payment credited",
		slog.String("session_id", sessionID),
		slog.String("owner_id", ownerID),
		slog.Int64("amount", amount),
	)

	return true, nil
}

// creditInTx increments the balance and appends the ledger entry using the
// caller's transaction
func (s *Store) creditInTx(ctx context.Context, tx *sqlx.Tx, ownerID string, amount int64, reason domain.TxReason, referenceID string) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE users
		SET balance = balance + $2
		WHERE id = $1
	`, ownerID, amount)
	if err != nil {
		return fmt.Errorf("failed to credit balance: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrUserNotFound
	}

	return s.appendTransaction(ctx, tx, ownerID, amount, reason, referenceID)
}

// appendTransaction writes an immutable ledger entry
func (s *Store) appendTransaction(ctx context.Context, tx *sqlx.Tx, ownerID string, amount int64, reason domain.TxReason, referenceID string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (owner_id, amount, reason, reference_id, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NOW())
	`, ownerID, amount, reason, referenceID)
	if err != nil {
		return fmt.Errorf("failed to append transaction: %w", err)
	}
	return nil
}

// TxFilter narrows ListTransactions results
type TxFilter struct {
	OwnerID  string
	PageSize int
	Cursor   *TxCursor
}

// TxCursor marks a position in the transaction history listing
type TxCursor struct {
	CreatedAt time.Time
	ID        int64
}

// ListTransactions returns a user's ledger entries, newest first,
// cursor-paginated. Fetches one extra row so the caller can detect more
// results.
func (s *Store) ListTransactions(ctx context.Context, filter TxFilter) ([]domain.Transaction, error) {
	query := `
		SELECT id, owner_id, amount, reason,
		       COALESCE(reference_id, '') AS reference_id, created_at
		FROM transactions
		WHERE owner_id = $1
	`
	args := []interface{}{filter.OwnerID}
	argIdx := 2

	if filter.Cursor != nil {
		query += fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", argIdx, argIdx+1)
		args = append(args, filter.Cursor.CreatedAt, filter.Cursor.ID)
		argIdx += 2
	}

	query += " ORDER BY created_at DESC, id DESC"
	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, filter.PageSize+1)

	var txs []domain.Transaction
	if err := s.db.SelectContext(ctx, &txs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	return txs, nil
}

// withTx runs fn inside a database transaction, rolling back on error so a
// failed write never leaves a partial balance or ledger change behind.
func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("Failed to rollback transaction",
				slog.Any("error", rbErr),
			)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
