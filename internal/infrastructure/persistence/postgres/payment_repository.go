package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/alihumdard/suya-kabab-app-sub000/internal/domain"
)

var ErrPaymentNotFound = errors.New("payment not found")

type PaymentRepository struct {
	q Executor
}

func NewPaymentRepository(db *DB) *PaymentRepository {
	return &PaymentRepository{q: db.Pool}
}

func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (
			id, order_id, transaction_id, reference, amount, currency,
			status, gateway_data, paid_at, failed_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	m := paymentToModel(payment)
	_, err := r.q.Exec(ctx, query,
		m.ID,
		m.OrderID,
		m.TransactionID,
		m.Reference,
		m.Amount,
		m.Currency,
		m.Status,
		m.GatewayData,
		m.PaidAt,
		m.FailedAt,
		m.CreatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("payment for %s: %w", payment.Reference, ErrDuplicateReference)
		}
		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}

func (r *PaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	return r.findOne(ctx, "id = $1", id)
}

func (r *PaymentRepository) FindByReference(ctx context.Context, reference string) (*domain.Payment, error) {
	return r.findOne(ctx, "reference = $1", reference)
}

func (r *PaymentRepository) FindByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error) {
	return r.findOne(ctx, "transaction_id = $1", transactionID)
}

func (r *PaymentRepository) findOne(ctx context.Context, where string, arg any) (*domain.Payment, error) {
	query := `
		SELECT id, order_id, transaction_id, reference, amount, currency,
		       status, gateway_data, paid_at, failed_at, created_at
		FROM payments WHERE ` + where

	var m PaymentModel
	err := r.q.QueryRow(ctx, query, arg).Scan(
		&m.ID, &m.OrderID, &m.TransactionID, &m.Reference, &m.Amount, &m.Currency,
		&m.Status, &m.GatewayData, &m.PaidAt, &m.FailedAt, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to scan payment: %w", err)
	}

	return paymentToDomain(m), nil
}

func (r *PaymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	query := `
		UPDATE payments
		SET transaction_id = $1, status = $2, gateway_data = $3, paid_at = $4, failed_at = $5
		WHERE id = $6
	`

	m := paymentToModel(payment)
	result, err := r.q.Exec(ctx, query,
		m.TransactionID, m.Status, m.GatewayData, m.PaidAt, m.FailedAt, m.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrPaymentNotFound
	}

	return nil
}
