package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alihumdard/suya-kabab-app-sub000/internal/application"
	"github.com/alihumdard/suya-kabab-app-sub000/internal/domain"
	"github.com/alihumdard/suya-kabab-app-sub000/internal/infrastructure/collaborators"
	"github.com/alihumdard/suya-kabab-app-sub000/internal/infrastructure/persistence/postgres"
)

const defaultCurrency = "NGN"

// ReconcileService materializes exactly one order per payment reference no
// matter how many channels deliver the success signal or how many times they
// race. The unique constraint on orders.payment_reference is the final
// arbiter; everything here converges on it.
type ReconcileService struct {
	store    application.Store
	identity application.IdentityClient
	cart     application.CartClient
	logger   *slog.Logger
}

func NewReconcileService(
	store application.Store,
	identity application.IdentityClient,
	cart application.CartClient,
	logger *slog.Logger,
) *ReconcileService {
	return &ReconcileService{
		store:    store,
		identity: identity,
		cart:     cart,
		logger:   logger,
	}
}

// Materialize turns confirmed payment evidence into a durable order. Safe to
// call concurrently for the same reference from any trigger path; repeated
// calls return the already-created order unchanged.
func (s *ReconcileService) Materialize(ctx context.Context, reference string, ev application.PaymentEvidence) (*domain.Order, error) {
	existing, err := s.store.Orders().FindByReference(ctx, reference)
	if err == nil {
		s.logger.Info("order already materialized", "reference", reference, "order_number", existing.OrderNumber)
		return existing, nil
	}
	if !errors.Is(err, postgres.ErrOrderNotFound) {
		return nil, application.NewInternalError(err)
	}

	intent, draft, err := s.resolveDraft(ctx, reference, ev)
	if err != nil {
		return nil, err
	}

	ownerID, err := s.resolveOwner(ctx, reference, intent, ev)
	if err != nil {
		return nil, err
	}

	order := domain.MaterializeOrder(reference, ownerID, draft)

	amount := ev.Amount
	if amount == 0 {
		amount = draft.TotalAmount
	} else if amount != draft.TotalAmount {
		// Money was taken, so the order is still created, but an operator
		// has to look at the discrepancy before fulfilment.
		s.logger.Warn("evidence amount differs from draft total",
			"reference", reference, "evidence_amount", amount, "draft_total", draft.TotalAmount)
		order.RequiresReview = true
	}

	currency := ev.Currency
	if currency == "" {
		currency = defaultCurrency
	}

	payment := domain.NewSuccessfulPayment(order.ID, reference, ev.TransactionID, amount, currency, ev.Raw)

	err = s.store.WithTx(ctx, func(tx application.Store) error {
		if err := tx.Orders().Create(ctx, order); err != nil {
			return err
		}
		if err := tx.Payments().Create(ctx, payment); err != nil {
			return err
		}
		if intent != nil {
			if err := intent.MarkMaterialized(order.ID); err != nil {
				return err
			}
			if err := tx.Intents().Update(ctx, intent); err != nil {
				return err
			}
		}
		if intent == nil {
			item := &application.ReviewItem{
				Kind:          application.ReviewMissingIntent,
				Reference:     reference,
				TransactionID: ev.TransactionID,
				Amount:        amount,
				Detail:        "confirmed payment without a usable pending intent",
				Payload:       ev.Raw,
			}
			if err := tx.ReviewQueue().Enqueue(ctx, item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, postgres.ErrDuplicateReference) {
			// A concurrent caller won the race; their order is ours too.
			winner, ferr := s.store.Orders().FindByReference(ctx, reference)
			if ferr != nil {
				return nil, application.NewInternalError(fmt.Errorf("lost insert race but winner not found: %w", ferr))
			}
			s.logger.Info("concurrent materialization detected", "reference", reference, "order_number", winner.OrderNumber)
			return winner, nil
		}
		return nil, application.NewInternalError(err)
	}

	s.logger.Info("order materialized",
		"reference", reference, "order_number", order.OrderNumber, "amount", amount, "owner_id", ownerID)

	if err := s.cart.Clear(ctx, ownerID); err != nil {
		s.logger.Warn("cart clear failed after materialization", "owner_id", ownerID, "error", err)
	}

	return order, nil
}

// resolveDraft loads the staged draft for the reference. An absent or expired
// intent degrades to a minimal flagged draft built from the evidence; a
// confirmed payment is never dropped for lack of staging data.
func (s *ReconcileService) resolveDraft(ctx context.Context, reference string, ev application.PaymentEvidence) (*domain.PendingIntent, domain.OrderDraft, error) {
	intent, err := s.store.Intents().FindByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, postgres.ErrIntentNotFound) {
			s.logger.Warn("no pending intent for confirmed payment", "reference", reference)
			return nil, minimalDraft(ev), nil
		}
		return nil, domain.OrderDraft{}, application.NewInternalError(err)
	}

	if intent.Status == domain.IntentExpired || intent.Status == domain.IntentFailed || intent.Expired(time.Now().UTC()) {
		s.logger.Warn("pending intent unusable for confirmed payment",
			"reference", reference, "status", intent.Status)
		return nil, minimalDraft(ev), nil
	}

	return intent, intent.Draft, nil
}

// resolveOwner picks the owning user: intent owner id, then evidence owner
// id, then identity lookup by the payer's email. An unresolvable owner parks
// the payment on the review queue instead of discarding it.
func (s *ReconcileService) resolveOwner(ctx context.Context, reference string, intent *domain.PendingIntent, ev application.PaymentEvidence) (string, error) {
	if intent != nil && intent.OwnerID != "" {
		return intent.OwnerID, nil
	}
	if ev.OwnerID != "" {
		// The evidence owner id originates from charge metadata the client
		// supplied, so it is confirmed against the identity service.
		user, err := s.identity.FindUserByID(ctx, ev.OwnerID)
		if err == nil {
			return user.ID, nil
		}
		if errors.Is(err, collaborators.ErrNotFound) {
			s.logger.Warn("evidence owner id unknown to identity service",
				"reference", reference, "owner_id", ev.OwnerID)
		} else {
			s.logger.Warn("identity lookup failed", "reference", reference, "error", err)
		}
	}
	if ev.CustomerEmail != "" {
		user, err := s.identity.FindUserByEmail(ctx, ev.CustomerEmail)
		if err == nil {
			s.logger.Info("owner resolved by payer email", "reference", reference, "owner_id", user.ID)
			return user.ID, nil
		}
		if !errors.Is(err, collaborators.ErrNotFound) {
			s.logger.Warn("identity lookup failed", "reference", reference, "error", err)
		}
	}

	item := &application.ReviewItem{
		Kind:          application.ReviewUnresolvableOwner,
		Reference:     reference,
		TransactionID: ev.TransactionID,
		Amount:        ev.Amount,
		Detail:        "no owner could be resolved from intent or evidence",
		Payload:       ev.Raw,
	}
	if err := s.store.ReviewQueue().Enqueue(ctx, item); err != nil {
		s.logger.Error("failed to queue unresolvable payment", "reference", reference, "error", err)
	}

	return "", application.NewUnresolvableOwnerError(reference)
}

// minimalDraft builds the fallback draft for a confirmed payment that has no
// usable staging record. It carries the paid totals but no lines, and the
// order it produces always requires review.
func minimalDraft(ev application.PaymentEvidence) domain.OrderDraft {
	return domain.OrderDraft{
		Delivery:       domain.DeliveryDetails{Method: "unknown"},
		Subtotal:       ev.Amount,
		TotalAmount:    ev.Amount,
		CustomerEmail:  ev.CustomerEmail,
		RequiresReview: true,
	}
}
