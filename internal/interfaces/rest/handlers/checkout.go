package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/alihumdard/suya-kabab-app-sub000/internal/application"
	"github.com/alihumdard/suya-kabab-app-sub000/internal/application/services"
	"github.com/alihumdard/suya-kabab-app-sub000/internal/interfaces/rest"
)

type createIntentRequest struct {
	OwnerID        string `json:"owner_id" validate:"required"`
	CustomerEmail  string `json:"customer_email"`
	DiscountAmount int64  `json:"discount_amount"`
	Delivery       struct {
		Method  string `json:"method"`
		Address string `json:"address"`
		Phone   string `json:"phone"`
	} `json:"delivery"`
	Items []struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
		Addons    []struct {
			AddonID   string `json:"addon_id"`
			Name      string `json:"name"`
			Quantity  int    `json:"quantity"`
			UnitPrice int64  `json:"unit_price"`
		} `json:"addons"`
	} `json:"items"`
}

func (h *Handlers) CreateIntent(w http.ResponseWriter, r *http.Request) {
	var req createIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rest.WriteError(w, application.NewInvalidInputError("malformed request body"), h.logger)
		return
	}

	cmd := services.CreateIntentCommand{
		OwnerID:         req.OwnerID,
		CustomerEmail:   req.CustomerEmail,
		DiscountAmount:  req.DiscountAmount,
		DeliveryMethod:  req.Delivery.Method,
		DeliveryAddress: req.Delivery.Address,
		DeliveryPhone:   req.Delivery.Phone,
	}
	for _, item := range req.Items {
		in := services.ItemInput{ProductID: item.ProductID, Quantity: item.Quantity}
		for _, addon := range item.Addons {
			in.Addons = append(in.Addons, services.AddonInput{
				AddonID:   addon.AddonID,
				Name:      addon.Name,
				Quantity:  addon.Quantity,
				UnitPrice: addon.UnitPrice,
			})
		}
		cmd.Items = append(cmd.Items, in)
	}

	intent, err := h.checkoutService.CreateIntent(r.Context(), cmd)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusCreated, rest.ToIntentView(intent))
}

func (h *Handlers) GetIntent(w http.ResponseWriter, r *http.Request) {
	intent, err := h.queryService.GetIntent(r.Context(), r.PathValue("reference"))
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.ToIntentView(intent))
}

type chargeRequest struct {
	Reference   string `json:"reference"`
	CardNumber  string `json:"card_number"`
	CVV         string `json:"cvv"`
	ExpiryMonth string `json:"expiry_month"`
	ExpiryYear  string `json:"expiry_year"`
}

func (h *Handlers) Charge(w http.ResponseWriter, r *http.Request) {
	var req chargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rest.WriteError(w, application.NewInvalidInputError("malformed request body"), h.logger)
		return
	}

	result, err := h.checkoutService.Charge(r.Context(), services.ChargeCommand{
		Reference:   req.Reference,
		CardNumber:  req.CardNumber,
		CVV:         req.CVV,
		ExpiryMonth: req.ExpiryMonth,
		ExpiryYear:  req.ExpiryYear,
	})
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.ToChargeView(result))
}

type challengeRequest struct {
	chargeRequest
	PIN     string `json:"pin"`
	Billing struct {
		Zip     string `json:"zip"`
		City    string `json:"city"`
		Address string `json:"address"`
		State   string `json:"state"`
		Country string `json:"country"`
	} `json:"billing"`
}

func (h *Handlers) SubmitChallenge(w http.ResponseWriter, r *http.Request) {
	var req challengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rest.WriteError(w, application.NewInvalidInputError("malformed request body"), h.logger)
		return
	}

	result, err := h.checkoutService.SubmitChallenge(r.Context(), services.ChallengeCommand{
		Reference:      req.Reference,
		CardNumber:     req.CardNumber,
		CVV:            req.CVV,
		ExpiryMonth:    req.ExpiryMonth,
		ExpiryYear:     req.ExpiryYear,
		PIN:            req.PIN,
		BillingZip:     req.Billing.Zip,
		BillingCity:    req.Billing.City,
		BillingAddress: req.Billing.Address,
		BillingState:   req.Billing.State,
		BillingCountry: req.Billing.Country,
	})
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.ToChargeView(result))
}

type validateOTPRequest struct {
	Reference      string `json:"reference"`
	OTP            string `json:"otp"`
	ChallengeToken string `json:"challenge_token"`
}

func (h *Handlers) ValidateOTP(w http.ResponseWriter, r *http.Request) {
	var req validateOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rest.WriteError(w, application.NewInvalidInputError("malformed request body"), h.logger)
		return
	}

	result, err := h.checkoutService.ValidateOTP(r.Context(), services.ValidateOTPCommand{
		Reference:      req.Reference,
		OTP:            req.OTP,
		ChallengeToken: req.ChallengeToken,
	})
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.ToChargeView(result))
}

// Verify is the client-driven reconciliation trigger: the browser lands back
// from a 3DS redirect, or the app retries after losing the charge response.
func (h *Handlers) Verify(w http.ResponseWriter, r *http.Request) {
	order, err := h.checkoutService.VerifyByReference(r.Context(), r.PathValue("reference"))
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.ToOrderView(order))
}
