package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alihumdard/suya-kabab-app-sub000/internal/application"
	"github.com/alihumdard/suya-kabab-app-sub000/internal/domain"
	"github.com/alihumdard/suya-kabab-app-sub000/internal/infrastructure/collaborators"
	"github.com/alihumdard/suya-kabab-app-sub000/internal/infrastructure/gateway"
	"github.com/alihumdard/suya-kabab-app-sub000/internal/infrastructure/persistence/postgres"
)

// CheckoutResult is the outcome of a charge attempt. Order is set only when
// the payment confirmed synchronously and materialization completed.
type CheckoutResult struct {
	Charge *application.ChargeResult
	Order  *domain.Order
}

// CheckoutService stages pending intents and drives card charges through the
// provider, including the PIN/AVS/OTP/3DS challenge loop. Confirmed charges
// are handed to the reconciler; the webhook may beat any of these paths and
// that is fine.
type CheckoutService struct {
	store      application.Store
	gateway    application.GatewayClient
	catalog    application.CatalogClient
	settings   application.SettingsStore
	reconciler *ReconcileService
	intentTTL  time.Duration
	logger     *slog.Logger
}

func NewCheckoutService(
	store application.Store,
	gatewayClient application.GatewayClient,
	catalog application.CatalogClient,
	settings application.SettingsStore,
	reconciler *ReconcileService,
	intentTTL time.Duration,
	logger *slog.Logger,
) *CheckoutService {
	return &CheckoutService{
		store:      store,
		gateway:    gatewayClient,
		catalog:    catalog,
		settings:   settings,
		reconciler: reconciler,
		intentTTL:  intentTTL,
		logger:     logger,
	}
}

// CreateIntent validates the requested lines against the catalog, prices the
// draft and stages it under a fresh payment reference.
func (s *CheckoutService) CreateIntent(ctx context.Context, cmd CreateIntentCommand) (*domain.PendingIntent, error) {
	if cmd.OwnerID == "" {
		return nil, application.NewInvalidInputError("owner id is required")
	}
	if len(cmd.Items) == 0 {
		return nil, application.NewInvalidInputError("at least one item is required")
	}

	draft := domain.OrderDraft{
		Delivery: domain.DeliveryDetails{
			Method:  cmd.DeliveryMethod,
			Address: cmd.DeliveryAddress,
			Phone:   cmd.DeliveryPhone,
		},
		DiscountAmount: cmd.DiscountAmount,
		CustomerEmail:  cmd.CustomerEmail,
	}

	var subtotal int64
	for _, in := range cmd.Items {
		if in.Quantity <= 0 {
			return nil, application.NewInvalidInputError(fmt.Sprintf("invalid quantity for product %s", in.ProductID))
		}
		product, err := s.catalog.GetProduct(ctx, in.ProductID)
		if err != nil {
			if errors.Is(err, collaborators.ErrNotFound) {
				return nil, application.NewInvalidInputError(fmt.Sprintf("unknown product %s", in.ProductID))
			}
			return nil, application.NewInternalError(err)
		}
		if !product.InStock {
			return nil, application.NewInvalidInputError(fmt.Sprintf("product %s is out of stock", in.ProductID))
		}

		item := domain.DraftItem{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  in.Quantity,
			UnitPrice: product.Price,
		}
		subtotal += product.Price * int64(in.Quantity)
		for _, a := range in.Addons {
			item.Addons = append(item.Addons, domain.DraftAddon{
				AddonID:   a.AddonID,
				Name:      a.Name,
				Quantity:  a.Quantity,
				UnitPrice: a.UnitPrice,
			})
			subtotal += a.UnitPrice * int64(a.Quantity)
		}
		draft.Items = append(draft.Items, item)
	}

	draft.Subtotal = subtotal
	if cmd.DeliveryMethod == "delivery" {
		charge, err := s.settings.DeliveryCharge(ctx)
		if err != nil {
			return nil, application.NewInternalError(err)
		}
		draft.ShippingAmount = charge
	}
	draft.TotalAmount = draft.Subtotal - draft.DiscountAmount + draft.ShippingAmount

	intent, err := domain.NewPendingIntent(newPaymentReference(), cmd.OwnerID, draft, s.intentTTL)
	if err != nil {
		return nil, application.NewInvalidInputError(err.Error())
	}

	if err := s.store.Intents().Create(ctx, intent); err != nil {
		if errors.Is(err, postgres.ErrDuplicateReference) {
			return nil, application.NewConflictError("payment reference already in use")
		}
		return nil, application.NewInternalError(err)
	}

	s.logger.Info("pending intent created",
		"reference", intent.PaymentReference, "owner_id", intent.OwnerID, "total", draft.TotalAmount)

	return intent, nil
}

// Charge submits the card charge for a staged intent. The result is either a
// finished order, a challenge for the client to answer, or a typed decline.
func (s *CheckoutService) Charge(ctx context.Context, cmd ChargeCommand) (*CheckoutResult, error) {
	intent, err := s.chargeableIntent(ctx, cmd.Reference)
	if err != nil {
		return nil, err
	}

	result, err := s.gateway.Charge(ctx, application.CardCharge{
		Reference:   intent.PaymentReference,
		Amount:      intent.Draft.TotalAmount,
		Currency:    defaultCurrency,
		Email:       intent.Draft.CustomerEmail,
		CardNumber:  cmd.CardNumber,
		CVV:         cmd.CVV,
		ExpiryMonth: cmd.ExpiryMonth,
		ExpiryYear:  cmd.ExpiryYear,
	})
	if err != nil {
		return nil, s.translateGatewayError(ctx, intent, err)
	}

	return s.settleChargeResult(ctx, intent, result)
}

// SubmitChallenge resubmits the charge with PIN or AVS fields filled.
func (s *CheckoutService) SubmitChallenge(ctx context.Context, cmd ChallengeCommand) (*CheckoutResult, error) {
	intent, err := s.chargeableIntent(ctx, cmd.Reference)
	if err != nil {
		return nil, err
	}

	charge := application.CardCharge{
		Reference:   intent.PaymentReference,
		Amount:      intent.Draft.TotalAmount,
		Currency:    defaultCurrency,
		Email:       intent.Draft.CustomerEmail,
		CardNumber:  cmd.CardNumber,
		CVV:         cmd.CVV,
		ExpiryMonth: cmd.ExpiryMonth,
		ExpiryYear:  cmd.ExpiryYear,
	}
	answer := application.ChallengeAnswer{
		PIN:            cmd.PIN,
		BillingZip:     cmd.BillingZip,
		BillingCity:    cmd.BillingCity,
		BillingAddress: cmd.BillingAddress,
		BillingState:   cmd.BillingState,
		BillingCountry: cmd.BillingCountry,
	}

	result, err := s.gateway.SubmitChallenge(ctx, charge, answer)
	if err != nil {
		return nil, s.translateGatewayError(ctx, intent, err)
	}

	return s.settleChargeResult(ctx, intent, result)
}

// ValidateOTP submits the one-time password that finishes an OTP challenge.
func (s *CheckoutService) ValidateOTP(ctx context.Context, cmd ValidateOTPCommand) (*CheckoutResult, error) {
	intent, err := s.chargeableIntent(ctx, cmd.Reference)
	if err != nil {
		return nil, err
	}

	result, err := s.gateway.ValidateOTP(ctx, cmd.OTP, cmd.ChallengeToken)
	if err != nil {
		return nil, s.translateGatewayError(ctx, intent, err)
	}

	return s.settleChargeResult(ctx, intent, result)
}

// VerifyByReference asks the provider for the final status of a payment and
// materializes the order if it confirmed. This is the client-driven
// reconciliation path used after a 3DS redirect or a dropped connection.
func (s *CheckoutService) VerifyByReference(ctx context.Context, reference string) (*domain.Order, error) {
	verification, err := s.gateway.VerifyTransaction(ctx, reference)
	if err != nil {
		return nil, s.translateGatewayError(ctx, nil, err)
	}

	if !verification.Successful {
		if verification.Failed() {
			s.failIntent(ctx, reference, "provider reports payment "+verification.Status)
			return nil, application.NewDeclinedError("card_declined",
				fmt.Errorf("verification returned %q", verification.Status))
		}
		// Still in flight on the provider side. The intent stays chargeable
		// so the webhook or a later verification can finish the job.
		return nil, application.NewNotConfirmedError(reference, verification.Status)
	}

	ev := application.EvidenceFromVerification(verification)
	if ev.Reference == "" {
		ev.Reference = reference
	}

	s.markVerified(ctx, reference)

	return s.reconciler.Materialize(ctx, reference, ev)
}

// chargeableIntent loads the intent and enforces its soft TTL before any
// gateway call is made.
func (s *CheckoutService) chargeableIntent(ctx context.Context, reference string) (*domain.PendingIntent, error) {
	intent, err := s.store.Intents().FindByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, postgres.ErrIntentNotFound) {
			return nil, application.NewNotFoundError("no checkout session for this reference")
		}
		return nil, application.NewInternalError(err)
	}

	if intent.Status == domain.IntentOrderCreated {
		return nil, application.NewConflictError("payment already completed for this reference")
	}
	if intent.IsTerminal() {
		return nil, application.NewInvalidStateError(fmt.Errorf("intent is %s", intent.Status))
	}
	if intent.Expired(time.Now().UTC()) {
		if err := intent.MarkExpired(); err == nil {
			if uerr := s.store.Intents().Update(ctx, intent); uerr != nil {
				s.logger.Warn("failed to persist intent expiry", "reference", reference, "error", uerr)
			}
		}
		return nil, application.NewPendingIntentExpiredError(reference)
	}

	return intent, nil
}

// settleChargeResult routes a provider charge response: a challenge goes back
// to the client, success is verified and materialized, anything else is a
// decline.
func (s *CheckoutService) settleChargeResult(ctx context.Context, intent *domain.PendingIntent, result *application.ChargeResult) (*CheckoutResult, error) {
	switch result.Outcome {
	case application.ChargeRequiresChallenge:
		s.logger.Info("charge requires challenge",
			"reference", intent.PaymentReference, "mode", result.ChallengeMode)
		return &CheckoutResult{Charge: result}, nil

	case application.ChargeSuccessful:
		// Trust but verify: the provider's charge response alone never
		// materializes an order, the verification endpoint does.
		verification, err := s.gateway.VerifyTransaction(ctx, intent.PaymentReference)
		if err != nil {
			// The charge may still have gone through; the webhook or a
			// later client verification will finish the job.
			s.logger.Warn("verification after successful charge failed",
				"reference", intent.PaymentReference, "error", err)
			return nil, s.translateGatewayError(ctx, nil, err)
		}
		if !verification.Successful {
			if verification.Failed() {
				s.failIntent(ctx, intent.PaymentReference, "verification contradicted charge response")
				return nil, application.NewDeclinedError("card_declined",
					fmt.Errorf("verification returned %q", verification.Status))
			}
			s.logger.Info("charge reported success but verification is still pending",
				"reference", intent.PaymentReference, "status", verification.Status)
			return nil, application.NewNotConfirmedError(intent.PaymentReference, verification.Status)
		}

		ev := application.EvidenceFromVerification(verification)
		if ev.Reference == "" {
			ev.Reference = intent.PaymentReference
		}

		s.markVerified(ctx, intent.PaymentReference)

		order, err := s.reconciler.Materialize(ctx, intent.PaymentReference, ev)
		if err != nil {
			return nil, err
		}
		return &CheckoutResult{Charge: result, Order: order}, nil

	default:
		s.failIntent(ctx, intent.PaymentReference, result.Message)
		return nil, application.NewDeclinedError("card_declined", fmt.Errorf("provider message: %s", result.Message))
	}
}

// translateGatewayError converts transport and provider errors into the
// service taxonomy. A typed decline also retires the intent.
func (s *CheckoutService) translateGatewayError(ctx context.Context, intent *domain.PendingIntent, err error) error {
	if errors.Is(err, gateway.ErrGatewayUnreachable) {
		return application.NewGatewayUnreachableError(err)
	}

	var gwErr *gateway.GatewayError
	if errors.As(err, &gwErr) {
		if gwErr.IsRetryable() {
			return application.NewGatewayUnreachableError(err)
		}
		if intent != nil {
			s.failIntent(ctx, intent.PaymentReference, string(gwErr.Decline))
		}
		return application.NewDeclinedError(string(gwErr.Decline), err)
	}

	return application.NewInternalError(err)
}

func (s *CheckoutService) markVerified(ctx context.Context, reference string) {
	intent, err := s.store.Intents().FindByReference(ctx, reference)
	if err != nil {
		return
	}
	if err := intent.MarkVerified(); err != nil {
		return
	}
	if err := s.store.Intents().Update(ctx, intent); err != nil {
		s.logger.Warn("failed to mark intent verified", "reference", reference, "error", err)
	}
}

func (s *CheckoutService) failIntent(ctx context.Context, reference, reason string) {
	intent, err := s.store.Intents().FindByReference(ctx, reference)
	if err != nil {
		return
	}
	if err := intent.MarkFailed(reason); err != nil {
		return
	}
	if err := s.store.Intents().Update(ctx, intent); err != nil {
		s.logger.Warn("failed to mark intent failed", "reference", reference, "error", err)
	}
}

func newPaymentReference() string {
	return "SKB-" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:20]
}
