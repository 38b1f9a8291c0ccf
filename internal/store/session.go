package store

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5"
)

// Session wraps one transaction. Each sensor apply phase owns its own
// Session and commits or rolls it back independently (§4.4): a store
// error in one sensor's apply must not roll back another sensor's
// already-committed work.
type Session struct {
	log *slog.Logger
	tx  pgx.Tx
	// done is set once Commit or Rollback has been called, guarding
	// against double-finalization.
	done bool
}

// Commit commits the underlying transaction.
func (s *Session) Commit(ctx context.Context) error {
	if s.done {
		return nil
	}
	s.done = true
	return s.tx.Commit(ctx)
}

// Rollback rolls back the underlying transaction. Safe to call after a
// successful Commit (it becomes a no-op).
func (s *Session) Rollback(ctx context.Context) error {
	if s.done {
		return nil
	}
	s.done = true
	err := s.tx.Rollback(ctx)
	if err == pgx.ErrTxClosed {
		return nil
	}
	return err
}
