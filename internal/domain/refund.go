package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RefundStatus represents the lifecycle state of a refund request.
type RefundStatus string

const (
	RefundPending    RefundStatus = "pending"
	RefundProcessing RefundStatus = "processing"
	RefundSuccessful RefundStatus = "successful"
	RefundFailed     RefundStatus = "failed"
	RefundCancelled  RefundStatus = "cancelled"
)

// Refund is a request to return funds against a payment. TransactionID is
// the provider's refund id and may arrive late via webhook.
type Refund struct {
	ID            uuid.UUID
	PaymentID     uuid.UUID
	Reference     string
	TransactionID *string
	Amount        int64
	Status        RefundStatus
	Reason        string
	FailureReason *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CompletedAt   *time.Time
}

// NewRefund validates the requested amount against the payment's refundable
// balance and creates a pending refund.
func NewRefund(payment *Payment, refundedTotal, amount int64, reason string) (*Refund, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if amount > payment.RefundableAmount(refundedTotal) {
		return nil, fmt.Errorf("requested %d of %d refundable: %w",
			amount, payment.RefundableAmount(refundedTotal), ErrExceedsRefundable)
	}
	now := time.Now().UTC()
	return &Refund{
		ID:        uuid.New(),
		PaymentID: payment.ID,
		Reference: NewRefundReference(),
		Amount:    amount,
		Status:    RefundPending,
		Reason:    reason,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// NewRefundReference generates a locally unique refund reference.
func NewRefundReference() string {
	return "RFD-" + strings.ToUpper(uuid.New().String()[:13])
}

// IsTerminal reports whether the refund can never change state again.
func (r *Refund) IsTerminal() bool {
	switch r.Status {
	case RefundSuccessful, RefundFailed, RefundCancelled:
		return true
	default:
		return false
	}
}

// BeginProcessing moves pending → processing immediately before the gateway
// refund call is issued.
func (r *Refund) BeginProcessing() error {
	if r.Status != RefundPending {
		return NewTransitionError("refund", string(r.Status), string(RefundProcessing))
	}
	r.Status = RefundProcessing
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// Complete moves processing → successful, recording the provider refund id.
// Completing an already-successful refund is a no-op so duplicate webhook
// deliveries converge.
func (r *Refund) Complete(transactionID string) error {
	if r.Status == RefundSuccessful {
		return nil
	}
	if r.Status != RefundProcessing {
		return NewTransitionError("refund", string(r.Status), string(RefundSuccessful))
	}
	now := time.Now().UTC()
	r.Status = RefundSuccessful
	if transactionID != "" {
		r.TransactionID = &transactionID
	}
	r.CompletedAt = &now
	r.UpdatedAt = now
	return nil
}

// Fail moves processing → failed. No cascade happens on failure.
func (r *Refund) Fail(reason string) error {
	if r.Status == RefundFailed {
		return nil
	}
	if r.Status != RefundProcessing {
		return NewTransitionError("refund", string(r.Status), string(RefundFailed))
	}
	r.Status = RefundFailed
	r.FailureReason = &reason
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// Cancel retracts a refund before its gateway call was made. Only valid from
// pending.
func (r *Refund) Cancel(reason string) error {
	if r.Status != RefundPending {
		return NewTransitionError("refund", string(r.Status), string(RefundCancelled))
	}
	r.Status = RefundCancelled
	r.FailureReason = &reason
	r.UpdatedAt = time.Now().UTC()
	return nil
}
