package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alihumdard/suya-kabab-app-sub000/internal/application"
	"github.com/alihumdard/suya-kabab-app-sub000/internal/domain"
	"github.com/alihumdard/suya-kabab-app-sub000/internal/infrastructure/gateway"
	"github.com/alihumdard/suya-kabab-app-sub000/internal/infrastructure/persistence/postgres"
)

// refundMatchWindow bounds the last-resort amount match for refund webhooks.
const refundMatchWindow = 24 * time.Hour

// RefundService owns the refund lifecycle: request validation against the
// refundable balance, the gateway call, and the terminal transition with its
// cascade onto Payment and Order. Completion may arrive synchronously or via
// webhook; both paths converge on the same idempotent transition.
type RefundService struct {
	store   application.Store
	gateway application.GatewayClient
	logger  *slog.Logger
}

func NewRefundService(store application.Store, gatewayClient application.GatewayClient, logger *slog.Logger) *RefundService {
	return &RefundService{
		store:   store,
		gateway: gatewayClient,
		logger:  logger,
	}
}

// Request validates the amount against the payment's refundable balance and
// creates a pending refund.
func (s *RefundService) Request(ctx context.Context, cmd RequestRefundCommand) (*domain.Refund, error) {
	if cmd.Reason == "" {
		return nil, application.NewInvalidInputError("refund reason is required")
	}

	order, err := s.store.Orders().FindByNumber(ctx, cmd.OrderNumber)
	if err != nil {
		if errors.Is(err, postgres.ErrOrderNotFound) {
			return nil, application.NewNotFoundError("order not found")
		}
		return nil, application.NewInternalError(err)
	}

	payment, err := s.store.Payments().FindByReference(ctx, order.PaymentReference)
	if err != nil {
		if errors.Is(err, postgres.ErrPaymentNotFound) {
			return nil, application.NewNotFoundError("no payment recorded for this order")
		}
		return nil, application.NewInternalError(err)
	}

	// Pending and processing refunds reserve their amount immediately, so
	// overlapping requests cannot jointly exceed the payment.
	reservedTotal, err := s.store.Refunds().SumReservedByPayment(ctx, payment.ID)
	if err != nil {
		return nil, application.NewInternalError(err)
	}

	refund, err := domain.NewRefund(payment, reservedTotal, cmd.Amount, cmd.Reason)
	if err != nil {
		if errors.Is(err, domain.ErrExceedsRefundable) {
			return nil, application.NewExceedsRefundableError(err)
		}
		return nil, application.NewInvalidInputError(err.Error())
	}

	if err := s.store.Refunds().Create(ctx, refund); err != nil {
		return nil, application.NewInternalError(err)
	}

	s.logger.Info("refund requested",
		"refund_reference", refund.Reference, "payment_reference", payment.Reference, "amount", refund.Amount)

	return refund, nil
}

// Execute issues the gateway refund call for a pending refund. The refund
// moves to processing before the call; a synchronous completion or failure
// finalizes it, otherwise it stays processing until the webhook arrives.
func (s *RefundService) Execute(ctx context.Context, refundReference string) (*domain.Refund, error) {
	refund, err := s.store.Refunds().FindByReference(ctx, refundReference)
	if err != nil {
		if errors.Is(err, postgres.ErrRefundNotFound) {
			return nil, application.NewNotFoundError("refund not found")
		}
		return nil, application.NewInternalError(err)
	}

	payment, err := s.findPayment(ctx, refund.PaymentID)
	if err != nil {
		return nil, err
	}

	if err := refund.BeginProcessing(); err != nil {
		return nil, application.NewInvalidStateError(err)
	}
	if err := s.store.Refunds().Update(ctx, refund); err != nil {
		return nil, application.NewInternalError(err)
	}

	result, err := s.gateway.Refund(ctx, payment.TransactionID, refund.Amount, refund.Reason)
	if err != nil {
		if errors.Is(err, gateway.ErrGatewayUnreachable) {
			// The provider may or may not have received the request. The
			// refund stays processing; the webhook or a status poll settles it.
			s.logger.Warn("gateway unreachable during refund, awaiting confirmation",
				"refund_reference", refund.Reference)
			return refund, application.NewGatewayUnreachableError(err)
		}
		var gwErr *gateway.GatewayError
		if errors.As(err, &gwErr) && !gwErr.IsRetryable() {
			if ferr := s.failRefund(ctx, refund, gwErr.Message); ferr != nil {
				return nil, ferr
			}
			return refund, nil
		}
		return refund, application.NewInternalError(err)
	}

	switch {
	case result.Completed:
		if err := s.completeRefund(ctx, refund, payment, result.ProviderRefundID); err != nil {
			return nil, err
		}
	case result.Failed:
		if err := s.failRefund(ctx, refund, result.Message); err != nil {
			return nil, err
		}
	default:
		// Accepted but still in flight on the provider side.
		if result.ProviderRefundID != "" {
			refund.TransactionID = &result.ProviderRefundID
			if err := s.store.Refunds().Update(ctx, refund); err != nil {
				return nil, application.NewInternalError(err)
			}
		}
		s.logger.Info("refund accepted by provider, awaiting webhook",
			"refund_reference", refund.Reference, "provider_refund_id", result.ProviderRefundID)
	}

	return refund, nil
}

// Cancel retracts a refund that has not yet been sent to the gateway.
func (s *RefundService) Cancel(ctx context.Context, refundReference, reason string) (*domain.Refund, error) {
	refund, err := s.store.Refunds().FindByReference(ctx, refundReference)
	if err != nil {
		if errors.Is(err, postgres.ErrRefundNotFound) {
			return nil, application.NewNotFoundError("refund not found")
		}
		return nil, application.NewInternalError(err)
	}

	if err := refund.Cancel(reason); err != nil {
		return nil, application.NewInvalidStateError(err)
	}
	if err := s.store.Refunds().Update(ctx, refund); err != nil {
		return nil, application.NewInternalError(err)
	}

	s.logger.Info("refund cancelled", "refund_reference", refund.Reference, "reason", reason)

	return refund, nil
}

// Poll asks the provider for the refund's current status and finalizes it if
// the provider reached a terminal state.
func (s *RefundService) Poll(ctx context.Context, refundReference string) (*domain.Refund, error) {
	refund, err := s.store.Refunds().FindByReference(ctx, refundReference)
	if err != nil {
		if errors.Is(err, postgres.ErrRefundNotFound) {
			return nil, application.NewNotFoundError("refund not found")
		}
		return nil, application.NewInternalError(err)
	}
	if refund.IsTerminal() || refund.TransactionID == nil {
		return refund, nil
	}

	result, err := s.gateway.GetRefundStatus(ctx, *refund.TransactionID)
	if err != nil {
		if errors.Is(err, gateway.ErrGatewayUnreachable) {
			return refund, application.NewGatewayUnreachableError(err)
		}
		return refund, application.NewInternalError(err)
	}

	payment, err := s.findPayment(ctx, refund.PaymentID)
	if err != nil {
		return nil, err
	}

	switch {
	case result.Completed:
		if err := s.completeRefund(ctx, refund, payment, result.ProviderRefundID); err != nil {
			return nil, err
		}
	case result.Failed:
		if err := s.failRefund(ctx, refund, result.Message); err != nil {
			return nil, err
		}
	}

	return refund, nil
}

// RefundEvent is a normalized provider refund webhook.
type RefundEvent struct {
	ProviderRefundID string
	TransactionID    string
	Amount           int64
	Successful       bool
	Message          string
	Raw              json.RawMessage
}

// ApplyEvent matches a refund webhook back to a local refund row and applies
// the terminal transition. Matching falls back from provider refund id to
// originating transaction id to an exact-amount processing row in a recent
// window; anything still unmatched is queued for manual review.
func (s *RefundService) ApplyEvent(ctx context.Context, event RefundEvent) error {
	refund, err := s.matchRefund(ctx, event)
	if err != nil {
		return err
	}
	if refund == nil {
		item := &application.ReviewItem{
			Kind:          application.ReviewUnmatchedRefund,
			TransactionID: event.TransactionID,
			Amount:        event.Amount,
			Detail:        "refund webhook matched no local refund",
			Payload:       event.Raw,
		}
		if err := s.store.ReviewQueue().Enqueue(ctx, item); err != nil {
			return application.NewInternalError(err)
		}
		s.logger.Warn("unmatched refund webhook queued for review",
			"provider_refund_id", event.ProviderRefundID, "transaction_id", event.TransactionID, "amount", event.Amount)
		return nil
	}

	if refund.IsTerminal() {
		// Duplicate delivery for an already-settled refund.
		return nil
	}

	payment, err := s.findPayment(ctx, refund.PaymentID)
	if err != nil {
		return err
	}

	if event.Successful {
		return s.completeRefund(ctx, refund, payment, event.ProviderRefundID)
	}
	return s.failRefund(ctx, refund, event.Message)
}

// matchRefund implements the fallback chain. Every non-primary match is
// logged for audit.
func (s *RefundService) matchRefund(ctx context.Context, event RefundEvent) (*domain.Refund, error) {
	if event.ProviderRefundID != "" {
		refund, err := s.store.Refunds().FindByProviderRefundID(ctx, event.ProviderRefundID)
		if err == nil {
			return refund, nil
		}
		if !errors.Is(err, postgres.ErrRefundNotFound) {
			return nil, application.NewInternalError(err)
		}
	}

	if event.TransactionID != "" {
		payment, err := s.store.Payments().FindByTransactionID(ctx, event.TransactionID)
		if err == nil {
			refunds, err := s.store.Refunds().FindByPayment(ctx, payment.ID)
			if err != nil {
				return nil, application.NewInternalError(err)
			}
			var processing []*domain.Refund
			for _, r := range refunds {
				if r.Status == domain.RefundProcessing && (event.Amount == 0 || r.Amount == event.Amount) {
					processing = append(processing, r)
				}
			}
			if len(processing) == 1 {
				s.logger.Info("refund webhook matched by transaction id",
					"refund_reference", processing[0].Reference, "transaction_id", event.TransactionID)
				return processing[0], nil
			}
			if len(processing) > 1 {
				s.logger.Warn("refund webhook ambiguous by transaction id",
					"transaction_id", event.TransactionID, "candidates", len(processing))
				return nil, nil
			}
		} else if !errors.Is(err, postgres.ErrPaymentNotFound) {
			return nil, application.NewInternalError(err)
		}
	}

	if event.Amount > 0 {
		since := time.Now().UTC().Add(-refundMatchWindow)
		candidates, err := s.store.Refunds().FindProcessingByAmountSince(ctx, event.Amount, since)
		if err != nil {
			return nil, application.NewInternalError(err)
		}
		if len(candidates) == 1 {
			s.logger.Warn("refund webhook matched by amount fallback",
				"refund_reference", candidates[0].Reference, "amount", event.Amount)
			return candidates[0], nil
		}
		if len(candidates) > 1 {
			s.logger.Warn("refund webhook ambiguous by amount", "amount", event.Amount, "candidates", len(candidates))
		}
	}

	return nil, nil
}

// completeRefund finalizes a refund and cascades the new refund position onto
// the payment and its order inside one transaction.
func (s *RefundService) completeRefund(ctx context.Context, refund *domain.Refund, payment *domain.Payment, providerRefundID string) error {
	err := s.store.WithTx(ctx, func(tx application.Store) error {
		// Backstop for refunds created before the reservation was recorded:
		// completion must never push the successful total past the payment.
		refundedTotal, err := tx.Refunds().SumSuccessfulByPayment(ctx, payment.ID)
		if err != nil {
			return err
		}
		if refund.Amount > payment.RefundableAmount(refundedTotal) {
			return fmt.Errorf("completing %s would refund %d of %d refundable: %w",
				refund.Reference, refund.Amount, payment.RefundableAmount(refundedTotal), domain.ErrExceedsRefundable)
		}

		if err := refund.Complete(providerRefundID); err != nil {
			return err
		}
		if err := tx.Refunds().Update(ctx, refund); err != nil {
			return err
		}
		refundedTotal += refund.Amount

		if payment.RefundableAmount(refundedTotal) == 0 {
			if err := payment.MarkRefunded(); err != nil {
				return err
			}
			if err := tx.Payments().Update(ctx, payment); err != nil {
				return err
			}
		}

		order, err := tx.Orders().FindByReference(ctx, payment.Reference)
		if err != nil {
			return err
		}
		order.RecomputePaymentStatus(payment.Amount, refundedTotal)
		return tx.Orders().UpdatePaymentStatus(ctx, order.ID, order.PaymentStatus)
	})
	if err != nil {
		if errors.Is(err, domain.ErrExceedsRefundable) {
			s.logger.Error("provider confirmed a refund exceeding the refundable balance",
				"refund_reference", refund.Reference, "payment_reference", payment.Reference, "amount", refund.Amount)
			if ferr := s.failRefund(ctx, refund, "exceeds refundable balance"); ferr != nil {
				return ferr
			}
			return application.NewExceedsRefundableError(err)
		}
		if errors.Is(err, domain.ErrInvalidTransition) {
			return application.NewInvalidStateError(err)
		}
		return application.NewInternalError(err)
	}

	s.logger.Info("refund completed",
		"refund_reference", refund.Reference, "payment_reference", payment.Reference, "amount", refund.Amount)

	return nil
}

func (s *RefundService) failRefund(ctx context.Context, refund *domain.Refund, reason string) error {
	if reason == "" {
		reason = "provider reported failure"
	}
	if err := refund.Fail(reason); err != nil {
		return application.NewInvalidStateError(err)
	}
	if err := s.store.Refunds().Update(ctx, refund); err != nil {
		return application.NewInternalError(err)
	}

	s.logger.Info("refund failed", "refund_reference", refund.Reference, "reason", reason)

	return nil
}

func (s *RefundService) findPayment(ctx context.Context, paymentID uuid.UUID) (*domain.Payment, error) {
	payment, err := s.store.Payments().FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, postgres.ErrPaymentNotFound) {
			return nil, application.NewNotFoundError("payment not found")
		}
		return nil, application.NewInternalError(err)
	}
	return payment, nil
}
