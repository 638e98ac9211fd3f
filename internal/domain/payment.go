package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// PaymentState represents the state of a single charge record.
type PaymentState string

const (
	PaymentStatePending    PaymentState = "pending"
	PaymentStateProcessing PaymentState = "processing"
	PaymentStateSuccessful PaymentState = "successful"
	PaymentStateFailed     PaymentState = "failed"
	PaymentStateCancelled  PaymentState = "cancelled"
	PaymentStateRefunded   PaymentState = "refunded"
)

// Payment records one charge against an order. Reference matches the order's
// payment reference; TransactionID is assigned by the provider.
type Payment struct {
	ID            uuid.UUID
	OrderID       uuid.UUID
	TransactionID string
	Reference     string
	Amount        int64
	Currency      string
	Status        PaymentState
	GatewayData   json.RawMessage
	PaidAt        *time.Time
	FailedAt      *time.Time
	CreatedAt     time.Time
}

// NewSuccessfulPayment builds the payment row written during materialization.
// Amount is authoritative against the order total at creation time.
func NewSuccessfulPayment(orderID uuid.UUID, reference, transactionID string, amount int64, currency string, gatewayData json.RawMessage) *Payment {
	now := time.Now().UTC()
	return &Payment{
		ID:            uuid.New(),
		OrderID:       orderID,
		TransactionID: transactionID,
		Reference:     reference,
		Amount:        amount,
		Currency:      currency,
		Status:        PaymentStateSuccessful,
		GatewayData:   gatewayData,
		PaidAt:        &now,
		CreatedAt:     now,
	}
}

// RefundableAmount returns how much of the payment can still be refunded
// given the total of successful refunds recorded against it.
func (p *Payment) RefundableAmount(refundedTotal int64) int64 {
	remaining := p.Amount - refundedTotal
	if remaining < 0 {
		return 0
	}
	return remaining
}

// MarkRefunded flips the payment to refunded once its refundable balance is
// exhausted. Only a successful payment can become refunded.
func (p *Payment) MarkRefunded() error {
	if p.Status == PaymentStateRefunded {
		return nil
	}
	if p.Status != PaymentStateSuccessful {
		return NewTransitionError("payment", string(p.Status), string(PaymentStateRefunded))
	}
	p.Status = PaymentStateRefunded
	return nil
}
