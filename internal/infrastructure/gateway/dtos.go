package gateway

import "encoding/json"

// Wire shapes for the provider API. The card payload is serialized, then
// encrypted (crypto.go) and shipped inside chargeEnvelope.

type cardPayload struct {
	TxRef         string `json:"tx_ref"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	Email         string `json:"email"`
	CardNumber    string `json:"card_number"`
	CVV           string `json:"cvv"`
	ExpiryMonth   string `json:"expiry_month"`
	ExpiryYear    string `json:"expiry_year"`
	SuggestedAuth string `json:"suggested_auth,omitempty"`

	PIN            string `json:"pin,omitempty"`
	BillingZip     string `json:"billing_zip,omitempty"`
	BillingCity    string `json:"billing_city,omitempty"`
	BillingAddress string `json:"billing_address,omitempty"`
	BillingState   string `json:"billing_state,omitempty"`
	BillingCountry string `json:"billing_country,omitempty"`
}

type chargeEnvelope struct {
	Client string `json:"client"`
	Alg    string `json:"alg"`
}

type validateRequest struct {
	TransactionReference string `json:"transaction_reference"`
	OTP                  string `json:"otp"`
}

type verifyRequest struct {
	TxRef string `json:"txref"`
}

type refundRequest struct {
	Ref    string `json:"ref"`
	Amount int64  `json:"amount"`
	Reason string `json:"reason,omitempty"`
}

// providerResponse is the common envelope; Data varies per endpoint.
type providerResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type chargeData struct {
	ResponseCode    string      `json:"charge_response_code"`
	ResponseMessage string      `json:"charge_response_message"`
	SuggestedAuth   string      `json:"suggested_auth"`
	AuthModelUsed   string      `json:"auth_model_used"`
	AuthURL         string      `json:"auth_url"`
	FlwRef          string      `json:"flw_ref"`
	TxRef           string      `json:"tx_ref"`
	ID              json.Number `json:"id"`
	Amount          json.Number `json:"amount"`
	Currency        string      `json:"currency"`
}

type verifyData struct {
	Status   string      `json:"status"`
	TxRef    string      `json:"tx_ref"`
	FlwRef   string      `json:"flw_ref"`
	ID       json.Number `json:"id"`
	Amount   json.Number `json:"amount"`
	Currency string      `json:"currency"`
	Message  string      `json:"vbvmessage"`
	Customer struct {
		Email string `json:"email"`
	} `json:"customer"`
}

type refundData struct {
	ID             json.Number `json:"id"`
	Status         string      `json:"status"`
	AmountRefunded json.Number `json:"amount_refunded"`
}

type providerErrorResponse struct {
	Status  string `json:"status"`
	Err     string `json:"error"`
	Message string `json:"message"`
}
