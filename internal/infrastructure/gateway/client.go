// Package gateway implements the HTTP client for the remote payment
// provider, including the provider-mandated card payload encryption and the
// translation of provider errors into a fixed taxonomy.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/alihumdard/suya-kabab-app-sub000/internal/application"
	"github.com/alihumdard/suya-kabab-app-sub000/internal/config"
)

type HTTPGatewayClient struct {
	baseURL       string
	secretKey     string
	encryptionKey string
	httpClient    *http.Client
}

func NewGatewayClient(cfg config.GatewayConfig) *HTTPGatewayClient {
	return &HTTPGatewayClient{
		baseURL:       cfg.BaseURL,
		secretKey:     cfg.SecretKey,
		encryptionKey: cfg.EncryptionKey,
		httpClient: &http.Client{
			Timeout: cfg.ConnTimeout,
		},
	}
}

var _ application.GatewayClient = (*HTTPGatewayClient)(nil)

// Charge submits a card charge. The card block is encrypted before
// transmission; raw card data never leaves this package unencrypted and is
// never logged.
func (c *HTTPGatewayClient) Charge(ctx context.Context, req application.CardCharge) (*application.ChargeResult, error) {
	return c.sendCharge(ctx, c.toCardPayload(req, ""))
}

// SubmitChallenge resubmits the charge with PIN or AVS fields filled.
func (c *HTTPGatewayClient) SubmitChallenge(ctx context.Context, req application.CardCharge, answer application.ChallengeAnswer) (*application.ChargeResult, error) {
	payload := c.toCardPayload(req, "")
	if answer.PIN != "" {
		payload.SuggestedAuth = "PIN"
		payload.PIN = answer.PIN
	} else {
		payload.SuggestedAuth = "AVS"
		payload.BillingZip = answer.BillingZip
		payload.BillingCity = answer.BillingCity
		payload.BillingAddress = answer.BillingAddress
		payload.BillingState = answer.BillingState
		payload.BillingCountry = answer.BillingCountry
	}
	return c.sendCharge(ctx, payload)
}

// ValidateOTP answers an OTP challenge using the token the charge call
// returned.
func (c *HTTPGatewayClient) ValidateOTP(ctx context.Context, otp, challengeToken string) (*application.ChargeResult, error) {
	req := validateRequest{
		TransactionReference: challengeToken,
		OTP:                  otp,
	}

	resp, err := c.post(ctx, "/charges/validate", req)
	if err != nil {
		return nil, err
	}
	return c.parseChargeResponse(resp)
}

// VerifyTransaction polls the provider for the final status of a
// transaction by its merchant reference.
func (c *HTTPGatewayClient) VerifyTransaction(ctx context.Context, reference string) (*application.VerificationResult, error) {
	resp, err := c.post(ctx, "/transactions/verify", verifyRequest{TxRef: reference})
	if err != nil {
		return nil, err
	}

	var data verifyData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("decode verification data: %w", err)
	}

	amount, _ := data.Amount.Int64()
	return &application.VerificationResult{
		Successful:    data.Status == "successful",
		Status:        data.Status,
		Amount:        amount,
		Currency:      data.Currency,
		TransactionID: data.ID.String(),
		Reference:     data.TxRef,
		CustomerEmail: data.Customer.Email,
		Message:       data.Message,
		Raw:           resp.Data,
	}, nil
}

// Refund asks the provider to return funds for a captured transaction.
func (c *HTTPGatewayClient) Refund(ctx context.Context, transactionID string, amount int64, reason string) (*application.RefundCallResult, error) {
	req := refundRequest{
		Ref:    transactionID,
		Amount: amount,
		Reason: reason,
	}

	resp, err := c.post(ctx, "/refunds", req)
	if err != nil {
		return nil, err
	}
	return parseRefundResponse(resp)
}

// GetRefundStatus polls a previously submitted refund.
func (c *HTTPGatewayClient) GetRefundStatus(ctx context.Context, providerRefundID string) (*application.RefundCallResult, error) {
	resp, err := c.get(ctx, "/refunds/"+providerRefundID)
	if err != nil {
		return nil, err
	}
	return parseRefundResponse(resp)
}

func (c *HTTPGatewayClient) toCardPayload(req application.CardCharge, suggestedAuth string) cardPayload {
	return cardPayload{
		TxRef:         req.Reference,
		Amount:        req.Amount,
		Currency:      req.Currency,
		Email:         req.Email,
		CardNumber:    req.CardNumber,
		CVV:           req.CVV,
		ExpiryMonth:   req.ExpiryMonth,
		ExpiryYear:    req.ExpiryYear,
		SuggestedAuth: suggestedAuth,
	}
}

func (c *HTTPGatewayClient) sendCharge(ctx context.Context, payload cardPayload) (*application.ChargeResult, error) {
	plain, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal card payload: %w", err)
	}

	client, err := encryptCardPayload(plain, c.encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("encrypt card payload: %w", err)
	}

	resp, err := c.post(ctx, "/charges/card", chargeEnvelope{Client: client, Alg: "3DES-24"})
	if err != nil {
		return nil, err
	}
	return c.parseChargeResponse(resp)
}

func (c *HTTPGatewayClient) parseChargeResponse(resp *providerResponse) (*application.ChargeResult, error) {
	var data chargeData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("decode charge data: %w", err)
	}

	amount, _ := data.Amount.Int64()
	result := &application.ChargeResult{
		Amount:         amount,
		Currency:       data.Currency,
		TransactionID:  data.ID.String(),
		ChallengeToken: data.FlwRef,
		Message:        data.ResponseMessage,
		Raw:            resp.Data,
	}

	switch data.ResponseCode {
	case "00":
		result.Outcome = application.ChargeSuccessful
	case "02":
		result.Outcome = application.ChargeRequiresChallenge
		result.ChallengeMode = challengeMode(data)
		result.AuthURL = data.AuthURL
	default:
		return nil, &GatewayError{
			Code:       data.ResponseCode,
			Message:    data.ResponseMessage,
			StatusCode: http.StatusOK,
			Decline:    classifyDecline(data.ResponseCode, data.ResponseMessage),
		}
	}

	return result, nil
}

// challengeMode resolves which secondary authentication the provider is
// asking for. A suggested_auth on a fresh charge names the input the client
// must collect; an auth_model on a resubmission names the step now pending.
func challengeMode(data chargeData) application.ChallengeMode {
	switch data.SuggestedAuth {
	case "PIN":
		return application.ChallengePIN
	case "AVS", "AVS_VBVSECURECODE", "NOAUTH_INTERNATIONAL":
		return application.ChallengeAVS
	}

	switch data.AuthModelUsed {
	case "PIN":
		// PIN accepted; provider has dispatched an OTP.
		return application.ChallengeOTP
	case "VBVSECURECODE", "3DS":
		return application.Challenge3DS
	}

	return application.ChallengeOTP
}

func parseRefundResponse(resp *providerResponse) (*application.RefundCallResult, error) {
	var data refundData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("decode refund data: %w", err)
	}

	amount, _ := data.AmountRefunded.Int64()
	return &application.RefundCallResult{
		Completed:        data.Status == "completed" || data.Status == "successful",
		Failed:           data.Status == "failed",
		ProviderRefundID: data.ID.String(),
		Amount:           amount,
		Message:          resp.Message,
		Raw:              resp.Data,
	}, nil
}

func (c *HTTPGatewayClient) post(ctx context.Context, path string, body any) (*providerResponse, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("error marshalling json: %w", err)
	}
	return c.send(ctx, http.MethodPost, path, bytes.NewReader(jsonData))
}

func (c *HTTPGatewayClient) get(ctx context.Context, path string) (*providerResponse, error) {
	return c.send(ctx, http.MethodGet, path, nil)
}

func (c *HTTPGatewayClient) send(ctx context.Context, method, path string, body io.Reader) (*providerResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnreachable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrGatewayUnreachable, err)
	}

	if resp.StatusCode != http.StatusOK {
		var provErr providerErrorResponse
		if err := json.Unmarshal(raw, &provErr); err != nil {
			return nil, fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, string(raw))
		}
		return nil, &GatewayError{
			Code:       provErr.Err,
			Message:    provErr.Message,
			StatusCode: resp.StatusCode,
			Decline:    classifyDecline(provErr.Err, provErr.Message),
		}
	}

	var envelope providerResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("error decoding json response: %w", err)
	}

	if envelope.Status == "error" {
		return nil, &GatewayError{
			Code:       "provider_error",
			Message:    envelope.Message,
			StatusCode: resp.StatusCode,
			Decline:    classifyDecline("", envelope.Message),
		}
	}

	return &envelope, nil
}
