package handlers

import (
	"io"
	"net/http"

	"github.com/alihumdard/suya-kabab-app-sub000/internal/application"
	"github.com/alihumdard/suya-kabab-app-sub000/internal/interfaces/rest"
)

// maxWebhookBody caps callback payloads at 1 MiB.
const maxWebhookBody = 1 << 20

// PaymentWebhook receives provider callbacks. The signature is checked before
// anything else; processing errors after a valid signature still answer 200
// so the provider does not retry-storm events we already recorded for review.
func (h *Handlers) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		rest.WriteError(w, application.NewInvalidInputError("unreadable body"), h.logger)
		return
	}

	signature := r.Header.Get("verif-hash")

	if err := h.webhookService.HandleCallback(r.Context(), signature, body); err != nil {
		if code := application.ToErrorCode(err); code == application.ErrCodeSignatureInvalid {
			rest.WriteError(w, err, h.logger)
			return
		}
		h.logger.Error("webhook processing failed", "error", err)
	}

	rest.WriteJSON(w, http.StatusOK, nil)
}
