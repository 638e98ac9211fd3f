package postgres

import (
	"context"
	"fmt"

	"github.com/alihumdard/suya-kabab-app-sub000/internal/application"
)

// Store aggregates the repositories over one pool and hands out
// transaction-bound views through WithTx.
type Store struct {
	db *DB
	q  Executor
}

func NewStore(db *DB) *Store {
	return &Store{db: db, q: db.Pool}
}

var _ application.Store = (*Store)(nil)

func (s *Store) Intents() application.IntentRepository {
	return &IntentRepository{q: s.q}
}

func (s *Store) Orders() application.OrderRepository {
	return &OrderRepository{q: s.q}
}

func (s *Store) Payments() application.PaymentRepository {
	return &PaymentRepository{q: s.q}
}

func (s *Store) Refunds() application.RefundRepository {
	return &RefundRepository{q: s.q}
}

func (s *Store) ReviewQueue() application.ReviewQueueRepository {
	return &ReviewQueueRepository{q: s.q}
}

// WithTx executes fn against repositories bound to a single transaction.
// The transaction commits only if fn returns nil; any error rolls back every
// write made through the transactional store.
func (s *Store) WithTx(ctx context.Context, fn func(application.Store) error) error {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	txStore := &Store{db: s.db, q: tx}

	if err := fn(txStore); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
