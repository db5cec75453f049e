// Package store is the single persistence component. It owns the jobs,
// users, transactions, and processed_payments tables and exposes only
// atomic operations: job status changes go through a compare-and-set
// UPDATE, balance changes through single-statement arithmetic updates.
package store

import (
	"errors"
	"log/slog"

	"github.com/hqbui/faceswap-be/shared/postgresql"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Store handles all database operations for both services
type Store struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// New creates a Store backed by the given PostgreSQL client
func New(pg *postgresql.Client, logger *slog.Logger) *Store {
	return &Store{
		db:     pg.DB(),
		logger: logger,
	}
}

// isUniqueViolation reports whether err is a Postgres unique constraint error
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
