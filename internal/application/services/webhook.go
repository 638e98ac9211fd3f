package services

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/alihumdard/suya-kabab-app-sub000/internal/application"
)

// WebhookService is the trust boundary for provider callbacks. Everything it
// dispatches to is idempotent, so duplicate and out-of-order deliveries are
// handled by accepting them and letting the downstream transitions converge.
type WebhookService struct {
	secretHash string
	reconciler *ReconcileService
	refunds    *RefundService
	logger     *slog.Logger
}

func NewWebhookService(secretHash string, reconciler *ReconcileService, refunds *RefundService, logger *slog.Logger) *WebhookService {
	return &WebhookService{
		secretHash: secretHash,
		reconciler: reconciler,
		refunds:    refunds,
		logger:     logger,
	}
}

// VerifySignature checks the provider's signature header against the shared
// secret in constant time. Both sides are hashed first so the comparison
// leaks neither content nor length.
func (s *WebhookService) VerifySignature(signature string) bool {
	if signature == "" {
		return false
	}
	got := sha256.Sum256([]byte(signature))
	want := sha256.Sum256([]byte(s.secretHash))
	return subtle.ConstantTimeCompare(got[:], want[:]) == 1
}

type callbackEnvelope struct {
	Event     string `json:"event"`
	EventType string `json:"event.type"`
}

// rawRefundEvent mirrors the provider's refund callback shape.
type rawRefundEvent struct {
	Data struct {
		ID             json.Number `json:"id"`
		Status         string      `json:"status"`
		AmountRefunded json.Number `json:"amount_refunded"`
		Amount         json.Number `json:"amount"`
		Tx             struct {
			ID json.Number `json:"id"`
		} `json:"tx"`
	} `json:"data"`
}

// HandleCallback dispatches a signature-verified provider event. Unrecognized
// event types return nil so the provider gets a 200 and stops retrying them.
func (s *WebhookService) HandleCallback(ctx context.Context, signature string, body []byte) error {
	if !s.VerifySignature(signature) {
		s.logger.Warn("webhook rejected", "reason", "signature mismatch or missing")
		return application.NewSignatureInvalidError()
	}

	var envelope callbackEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return application.NewEvidenceIncompleteError(err)
	}

	event := strings.ToLower(envelope.Event)
	if event == "" {
		event = strings.ToLower(envelope.EventType)
	}

	switch {
	case strings.Contains(event, "refund"):
		return s.handleRefundEvent(ctx, event, body)

	case strings.Contains(event, "charge") || strings.Contains(event, "transaction"):
		return s.handleChargeEvent(ctx, body)

	default:
		s.logger.Info("webhook event ignored", "event", event)
		return nil
	}
}

func (s *WebhookService) handleChargeEvent(ctx context.Context, body []byte) error {
	ev, err := application.NormalizeEvidence(body)
	if err != nil {
		return err
	}

	if !successfulStatus(ev.Status) {
		s.logger.Info("charge webhook without successful status",
			"reference", ev.Reference, "status", ev.Status)
		return nil
	}

	_, err = s.reconciler.Materialize(ctx, ev.Reference, ev)
	return err
}

func (s *WebhookService) handleRefundEvent(ctx context.Context, event string, body []byte) error {
	var raw rawRefundEvent
	if err := json.Unmarshal(body, &raw); err != nil {
		return application.NewEvidenceIncompleteError(err)
	}

	amount, _ := raw.Data.AmountRefunded.Int64()
	if amount == 0 {
		amount, _ = raw.Data.Amount.Int64()
	}

	successful := successfulStatus(raw.Data.Status)
	if strings.Contains(event, "failed") {
		successful = false
	}

	return s.refunds.ApplyEvent(ctx, RefundEvent{
		ProviderRefundID: raw.Data.ID.String(),
		TransactionID:    raw.Data.Tx.ID.String(),
		Amount:           amount,
		Successful:       successful,
		Message:          raw.Data.Status,
		Raw:              body,
	})
}

func successfulStatus(status string) bool {
	switch strings.ToLower(status) {
	case "successful", "success", "completed", "succeeded":
		return true
	default:
		return false
	}
}
