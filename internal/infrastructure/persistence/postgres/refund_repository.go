package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/alihumdard/suya-kabab-app-sub000/internal/domain"
)

var ErrRefundNotFound = errors.New("refund not found")

type RefundRepository struct {
	q Executor
}

func NewRefundRepository(db *DB) *RefundRepository {
	return &RefundRepository{q: db.Pool}
}

func (r *RefundRepository) Create(ctx context.Context, refund *domain.Refund) error {
	query := `
		INSERT INTO refunds (
			id, payment_id, reference, transaction_id, amount, status,
			reason, failure_reason, created_at, updated_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	m := refundToModel(refund)
	_, err := r.q.Exec(ctx, query,
		m.ID,
		m.PaymentID,
		m.Reference,
		m.TransactionID,
		m.Amount,
		m.Status,
		m.Reason,
		m.FailureReason,
		m.CreatedAt,
		m.UpdatedAt,
		m.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create refund: %w", err)
	}

	return nil
}

func (r *RefundRepository) FindByReference(ctx context.Context, reference string) (*domain.Refund, error) {
	return r.findOne(ctx, "reference = $1", reference)
}

func (r *RefundRepository) FindByProviderRefundID(ctx context.Context, providerRefundID string) (*domain.Refund, error) {
	return r.findOne(ctx, "transaction_id = $1", providerRefundID)
}

const refundColumns = `id, payment_id, reference, transaction_id, amount, status,
		       reason, failure_reason, created_at, updated_at, completed_at`

func (r *RefundRepository) findOne(ctx context.Context, where string, arg any) (*domain.Refund, error) {
	query := `SELECT ` + refundColumns + ` FROM refunds WHERE ` + where

	var m RefundModel
	err := r.q.QueryRow(ctx, query, arg).Scan(
		&m.ID, &m.PaymentID, &m.Reference, &m.TransactionID, &m.Amount, &m.Status,
		&m.Reason, &m.FailureReason, &m.CreatedAt, &m.UpdatedAt, &m.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRefundNotFound
		}
		return nil, fmt.Errorf("failed to scan refund: %w", err)
	}

	return refundToDomain(m), nil
}

func (r *RefundRepository) FindByPayment(ctx context.Context, paymentID uuid.UUID) ([]*domain.Refund, error) {
	query := `SELECT ` + refundColumns + ` FROM refunds WHERE payment_id = $1 ORDER BY created_at`

	return r.collect(ctx, query, paymentID)
}

// FindProcessingByAmountSince is the last-resort webhook match: refunds
// still processing with the exact amount, created after the cutoff.
func (r *RefundRepository) FindProcessingByAmountSince(ctx context.Context, amount int64, since time.Time) ([]*domain.Refund, error) {
	query := `SELECT ` + refundColumns + `
		FROM refunds
		WHERE status = 'processing' AND amount = $1 AND created_at >= $2
		ORDER BY created_at`

	return r.collect(ctx, query, amount, since)
}

func (r *RefundRepository) collect(ctx context.Context, query string, args ...any) ([]*domain.Refund, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query refunds: %w", err)
	}

	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Refund, error) {
		var m RefundModel
		err := row.Scan(
			&m.ID, &m.PaymentID, &m.Reference, &m.TransactionID, &m.Amount, &m.Status,
			&m.Reason, &m.FailureReason, &m.CreatedAt, &m.UpdatedAt, &m.CompletedAt,
		)
		return refundToDomain(m), err
	})
	if err != nil {
		return nil, fmt.Errorf("scan refunds: %w", err)
	}

	return results, nil
}

func (r *RefundRepository) SumSuccessfulByPayment(ctx context.Context, paymentID uuid.UUID) (int64, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM refunds
		WHERE payment_id = $1 AND status = 'successful'
	`

	var total int64
	if err := r.q.QueryRow(ctx, query, paymentID).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum successful refunds: %w", err)
	}

	return total, nil
}

// SumReservedByPayment sums every refund still holding a claim on the
// payment. Cancelled and failed refunds release their claim.
func (r *RefundRepository) SumReservedByPayment(ctx context.Context, paymentID uuid.UUID) (int64, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM refunds
		WHERE payment_id = $1 AND status IN ('pending', 'processing', 'successful')
	`

	var total int64
	if err := r.q.QueryRow(ctx, query, paymentID).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum reserved refunds: %w", err)
	}

	return total, nil
}

func (r *RefundRepository) Update(ctx context.Context, refund *domain.Refund) error {
	query := `
		UPDATE refunds
		SET transaction_id = $1, status = $2, failure_reason = $3,
		    updated_at = $4, completed_at = $5
		WHERE id = $6
	`

	m := refundToModel(refund)
	result, err := r.q.Exec(ctx, query,
		m.TransactionID, m.Status, m.FailureReason, m.UpdatedAt, m.CompletedAt, m.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update refund: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrRefundNotFound
	}

	return nil
}
