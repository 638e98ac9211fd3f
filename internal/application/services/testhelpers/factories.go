package testhelpers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/alihumdard/suya-kabab-app-sub000/internal/application"
	"github.com/alihumdard/suya-kabab-app-sub000/internal/domain"
)

// DefaultDraft stages two suya lines totalling 6200 minor units with a
// delivery charge.
func DefaultDraft() domain.OrderDraft {
	return domain.OrderDraft{
		Items: []domain.DraftItem{
			{
				ProductID: "prod-1",
				Name:      "Beef Suya",
				Quantity:  2,
				UnitPrice: 1500,
				Addons: []domain.DraftAddon{
					{AddonID: "addon-1", Name: "Extra Pepper", Quantity: 1, UnitPrice: 200},
				},
			},
			{ProductID: "prod-2", Name: "Chicken Kabab", Quantity: 1, UnitPrice: 2500},
		},
		Delivery:       domain.DeliveryDetails{Method: "delivery", Address: "12 Broad St", Phone: "0800"},
		Subtotal:       5700,
		ShippingAmount: 500,
		TotalAmount:    6200,
		CustomerEmail:  "ada@example.com",
	}
}

// DefaultIntent stages DefaultDraft under the given reference for user-1.
func DefaultIntent(reference string) *domain.PendingIntent {
	intent, err := domain.NewPendingIntent(reference, "user-1", DefaultDraft(), 2*time.Hour)
	if err != nil {
		panic(fmt.Sprintf("factory intent: %v", err))
	}
	return intent
}

// DefaultEvidence is successful payment evidence matching DefaultDraft.
func DefaultEvidence(reference string) application.PaymentEvidence {
	return application.PaymentEvidence{
		Reference:     reference,
		TransactionID: "tx-100",
		Amount:        6200,
		Currency:      "NGN",
		Status:        "successful",
		CustomerEmail: "ada@example.com",
		Raw:           json.RawMessage(`{"data":{"status":"successful"}}`),
	}
}

// SuccessfulVerification mirrors DefaultEvidence as a provider verification
// response.
func SuccessfulVerification(reference string) *application.VerificationResult {
	return &application.VerificationResult{
		Successful:    true,
		Status:        "successful",
		Amount:        6200,
		Currency:      "NGN",
		TransactionID: "tx-100",
		Reference:     reference,
		CustomerEmail: "ada@example.com",
		Raw:           json.RawMessage(`{"data":{"status":"successful"}}`),
	}
}
