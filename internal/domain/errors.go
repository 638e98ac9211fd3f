package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrExceedsRefundable = errors.New("amount exceeds refundable balance")
	ErrIntentExpired     = errors.New("pending intent has expired")
	ErrEmptyDraft        = errors.New("order draft has no items")
)

// NewTransitionError wraps ErrInvalidTransition with the attempted edge so
// callers can still match with errors.Is.
func NewTransitionError(entity, from, to string) error {
	return fmt.Errorf("%s cannot move from %s to %s: %w", entity, from, to, ErrInvalidTransition)
}
