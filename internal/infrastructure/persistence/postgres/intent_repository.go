package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/alihumdard/suya-kabab-app-sub000/internal/domain"
)

var (
	ErrIntentNotFound     = errors.New("pending intent not found")
	ErrDuplicateReference = errors.New("payment reference already exists")
)

type IntentRepository struct {
	q Executor
}

func NewIntentRepository(db *DB) *IntentRepository {
	return &IntentRepository{q: db.Pool}
}

func (r *IntentRepository) Create(ctx context.Context, intent *domain.PendingIntent) error {
	query := `
		INSERT INTO pending_intents (
			id, payment_reference, owner_id, order_draft, status,
			failure_reason, linked_order_id, created_at, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	m, err := intentToModel(intent)
	if err != nil {
		return err
	}

	_, err = r.q.Exec(ctx, query,
		m.ID,
		m.PaymentReference,
		m.OwnerID,
		m.OrderDraft,
		m.Status,
		m.FailureReason,
		m.LinkedOrderID,
		m.CreatedAt,
		m.ExpiresAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("intent %s: %w", intent.PaymentReference, ErrDuplicateReference)
		}
		return fmt.Errorf("failed to create pending intent: %w", err)
	}

	return nil
}

func (r *IntentRepository) FindByReference(ctx context.Context, reference string) (*domain.PendingIntent, error) {
	query := `
		SELECT id, payment_reference, owner_id, order_draft, status,
		       failure_reason, linked_order_id, created_at, expires_at
		FROM pending_intents WHERE payment_reference = $1
	`

	var m IntentModel
	err := r.q.QueryRow(ctx, query, reference).Scan(
		&m.ID, &m.PaymentReference, &m.OwnerID, &m.OrderDraft, &m.Status,
		&m.FailureReason, &m.LinkedOrderID, &m.CreatedAt, &m.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrIntentNotFound
		}
		return nil, fmt.Errorf("failed to scan pending intent: %w", err)
	}

	return intentToDomain(m)
}

func (r *IntentRepository) Update(ctx context.Context, intent *domain.PendingIntent) error {
	query := `
		UPDATE pending_intents
		SET status = $1, failure_reason = $2, linked_order_id = $3
		WHERE payment_reference = $4
	`

	m, err := intentToModel(intent)
	if err != nil {
		return err
	}

	result, err := r.q.Exec(ctx, query, m.Status, m.FailureReason, m.LinkedOrderID, m.PaymentReference)
	if err != nil {
		return fmt.Errorf("failed to update pending intent: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrIntentNotFound
	}

	return nil
}

// SweepExpired marks non-terminal intents past their TTL as expired.
func (r *IntentRepository) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE pending_intents
		SET status = 'expired'
		WHERE expires_at < $1
		  AND status IN ('pending_payment', 'payment_verified')
	`

	result, err := r.q.Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep expired intents: %w", err)
	}

	return result.RowsAffected(), nil
}
